package account

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"

	"github.com/Seednode/royaleserver/internal/account/migrations"
)

var gooseOnce sync.Once

// RunMigrations brings the accounts schema up to date on the given DSN,
// grounded on udisondev-la2go's internal/db/migrate.go (adapted here
// from the Postgres dialect to MySQL).
func RunMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("account: opening db for migrations: %w", err)
	}
	defer db.Close()

	var dialectErr error
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		dialectErr = goose.SetDialect("mysql")
	})
	if dialectErr != nil {
		return fmt.Errorf("account: setting goose dialect: %w", dialectErr)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("account: running migrations: %w", err)
	}
	return nil
}
