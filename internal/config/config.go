// Package config parses server.cfg (INI), environment variables under
// the ROYALE_ prefix, and command-line flags into a single Config,
// using cobra+viper+pflag to resolve the [Server]/[Match] keys of
// spec.md §6.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every server.cfg key from spec.md §6, plus the
// transport/admin flags exposed on the command line.
type Config struct {
	// [Server]
	Bind               string
	ListenPort         int
	MCode              string
	StatusPath         string
	LeaderBoardPath    string
	AssetsMetadataPath string
	DefaultName        string
	DefaultTeam        string
	MaxSimulIP         int
	SkinCount          int
	RestrictPublicSkins bool

	MySQLHost string
	MySQLPort int
	MySQLUser string
	MySQLPass string
	MySQLDB   string

	DiscordWebhookURL string

	// [Match]
	PlayerMin                      int
	PlayerCap                      int
	AutoStartTime                  time.Duration
	StartTimer                     int
	EnableAutoStartInMultiPrivate  bool
	EnableLevelSelectInMultiPrivate bool
	EnableVoteStart                bool
	VoteRateToStart                float64
	AllowLateEnter                 bool

	CoinRewardFlagpole int
	CoinRewardPodium1  int
	CoinRewardPodium2  int
	CoinRewardPodium3  int

	// Transport / process
	Prefix         string
	Profile        bool
	Verbose        bool
	SessionTimeout time.Duration
	ConfigFile     string
	BlockedListPath string
	LevelsPath      string
	ShutdownSentinel string
}

func (c *Config) Validate() error {
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("invalid listen port (must be between 1-65535 inclusive): %d", c.ListenPort)
	}
	if c.PlayerMin < 1 {
		return errors.New("PlayerMin must be at least 1")
	}
	if c.PlayerCap < c.PlayerMin {
		return errors.New("PlayerCap must be >= PlayerMin")
	}
	if c.VoteRateToStart < 0 || c.VoteRateToStart > 1 {
		return errors.New("VoteRateToStart must be between 0 and 1")
	}
	return nil
}

// NewCommand builds the cobra root command, binding every flag through
// viper so server.cfg (INI), ROYALE_* env vars, and flags all resolve
// into cfg in flag > env > file precedence order.
func NewCommand(cfg *Config, version string, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ROYALE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "royaleserver",
		Short:         "Authoritative match server for the royale platformer.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.ConfigFile != "" {
				v.SetConfigFile(cfg.ConfigFile)
				v.SetConfigType("ini")
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading %s: %w", cfg.ConfigFile, err)
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.ConfigFile, "config", "server.cfg", "path to server.cfg (env: ROYALE_CONFIG)")
	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: ROYALE_BIND)")
	fs.IntVarP(&cfg.ListenPort, "listen-port", "p", 8080, "port to listen on (env: ROYALE_LISTEN_PORT)")
	fs.StringVar(&cfg.MCode, "mcode", "", "maintenance access code (env: ROYALE_MCODE)")
	fs.StringVar(&cfg.StatusPath, "status-path", "/status", "status page path")
	fs.StringVar(&cfg.LeaderBoardPath, "leaderboard-path", "/leaderboard", "leaderboard page path")
	fs.StringVar(&cfg.AssetsMetadataPath, "assets-metadata-path", "assets.json", "path to asset metadata")
	fs.StringVar(&cfg.DefaultName, "default-name", "PLAYER", "fallback player name")
	fs.StringVar(&cfg.DefaultTeam, "default-team", "", "fallback squad/team; not applied, a blank team stays blank")
	fs.IntVar(&cfg.MaxSimulIP, "max-simul-ip", 4, "max simultaneous connections per address")
	fs.IntVar(&cfg.SkinCount, "skin-count", 10, "number of selectable skins")
	fs.BoolVar(&cfg.RestrictPublicSkins, "restrict-public-skins", false, "restrict skins in public matches; not read by the server, skins are never restricted")

	fs.StringVar(&cfg.MySQLHost, "mysql-host", "127.0.0.1", "MySQL host (env: ROYALE_MYSQL_HOST)")
	fs.IntVar(&cfg.MySQLPort, "mysql-port", 3306, "MySQL port")
	fs.StringVar(&cfg.MySQLUser, "mysql-user", "royale", "MySQL user")
	fs.StringVar(&cfg.MySQLPass, "mysql-pass", "", "MySQL password (env: ROYALE_MYSQL_PASS)")
	fs.StringVar(&cfg.MySQLDB, "mysql-db", "royale", "MySQL database name")

	fs.StringVar(&cfg.DiscordWebhookURL, "discord-webhook-url", "", "Discord webhook URL for podium notifications")

	fs.IntVar(&cfg.PlayerMin, "player-min", 2, "minimum players required for an unforced (vote) start of a public match; auto-start ignores it")
	fs.IntVar(&cfg.PlayerCap, "player-cap", 20, "maximum players per match")
	fs.DurationVar(&cfg.AutoStartTime, "auto-start-time", 30*time.Second, "delay after the most recent ready player before auto-start fires")
	fs.IntVar(&cfg.StartTimer, "start-timer", 5, "countdown seconds once a match starts")
	fs.BoolVar(&cfg.EnableAutoStartInMultiPrivate, "enable-auto-start-in-multi-private", true, "allow auto-start in named private rooms")
	fs.BoolVar(&cfg.EnableLevelSelectInMultiPrivate, "enable-level-select-in-multi-private", true, "not read by the server; level selection is open to dev players only, in any match")
	fs.BoolVar(&cfg.EnableVoteStart, "enable-vote-start", true, "allow players to vote-start a match")
	fs.Float64Var(&cfg.VoteRateToStart, "vote-rate-to-start", 0.75, "fraction of players required to vote-start")
	fs.BoolVar(&cfg.AllowLateEnter, "allow-late-enter", false, "allow joining a match that has already started")

	fs.IntVar(&cfg.CoinRewardFlagpole, "coin-reward-flagpole", 500, "coin bonus for crossing the flagpole")
	fs.IntVar(&cfg.CoinRewardPodium1, "coin-reward-podium-1", 200, "coin bonus for 1st place")
	fs.IntVar(&cfg.CoinRewardPodium2, "coin-reward-podium-2", 100, "coin bonus for 2nd place")
	fs.IntVar(&cfg.CoinRewardPodium3, "coin-reward-podium-3", 50, "coin bonus for 3rd place")

	fs.StringVar(&cfg.Prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy")
	fs.BoolVar(&cfg.Profile, "profile", false, "register net/http/pprof handlers")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output")
	fs.DurationVar(&cfg.SessionTimeout, "session-timeout", 60*time.Minute, "idle timeout; not read by the server, which does not reap idle matches")
	fs.StringVar(&cfg.BlockedListPath, "blocked-list", "blocked.json", "path to blocked.json")
	fs.StringVar(&cfg.LevelsPath, "levels-path", "levels", "path to the levels/*.json directory")
	fs.StringVar(&cfg.ShutdownSentinel, "shutdown-sentinel", "shutdown", "path to the shutdown sentinel file")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceUsage = true

	return cmd
}

// MySQLDSN builds the go-sql-driver/mysql DSN from the config.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.MySQLUser, c.MySQLPass, c.MySQLHost, c.MySQLPort, c.MySQLDB)
}
