/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Seednode/royaleserver/internal/account"
	"github.com/Seednode/royaleserver/internal/config"
	"github.com/Seednode/royaleserver/internal/logging"
	"github.com/Seednode/royaleserver/internal/server"
)

const releaseVersion = "0.1.0"

func main() {
	log.SetFlags(0)

	cfg := &config.Config{}
	cmd := config.NewCommand(cfg, releaseVersion, func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cfg)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(cmd.ExecuteContext(ctx))
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.Verbose)

	var accounts *account.Store
	if cfg.MySQLHost != "" {
		if err := account.RunMigrations(ctx, cfg.MySQLDSN()); err != nil {
			return err
		}

		var err error
		accounts, err = account.Open(cfg.MySQLDSN())
		if err != nil {
			return err
		}
		defer accounts.Close()
	} else {
		log.Logf("WARN: no mysql-host configured, accounts disabled")
	}

	srv, err := server.New(cfg, accounts, log)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
