// Package server wires the transport, matchmaker, account, and abuse
// layers together behind an httprouter mux (graceful http.Server
// start/shutdown, security headers, prefix-scoped routes) into the
// authoritative match server of spec.md §7.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/royaleserver/internal/abuse"
	"github.com/Seednode/royaleserver/internal/account"
	"github.com/Seednode/royaleserver/internal/config"
	"github.com/Seednode/royaleserver/internal/levels"
	"github.com/Seednode/royaleserver/internal/logging"
	"github.com/Seednode/royaleserver/internal/match"
	"github.com/Seednode/royaleserver/internal/matchmaker"
	"github.com/Seednode/royaleserver/internal/notify"
	"github.com/Seednode/royaleserver/internal/transport"
)

const requestTimeout = 10 * time.Second

// Server is the assembled royale match server.
type Server struct {
	cfg *config.Config
	log *logging.Logger

	accounts *account.Store
	sessions *account.Sessions
	matches  *matchmaker.Matchmaker
	levels   *levels.Catalog
	notifier *notify.Discord

	logins      *abuse.LoginLimiter
	connections *abuse.ConnectionCap
	blocklist   *abuse.BlockList
	challenges  *abuse.Challenges

	mu       sync.Mutex
	conns    map[*transport.Connection]*connSession
	draining bool

	leaderboard leaderboardCache

	httpSrv *http.Server
}

// New assembles every layer from cfg. accounts may be nil in
// environments without a configured MySQL backend (e.g. tests); in
// that case login/register/resume/profile all fail closed.
func New(cfg *config.Config, accounts *account.Store, log *logging.Logger) (*Server, error) {
	cat := levels.NewCatalog(cfg.LevelsPath)
	if err := cat.Reload(); err != nil {
		log.Debugf("server: initial level load: %v", err)
	}

	blocklist, err := abuse.LoadBlockList(cfg.BlockedListPath)
	if err != nil {
		return nil, err
	}

	notifier := notify.NewDiscord(cfg.DiscordWebhookURL, log)

	matchCfg := match.Config{
		PlayerMin:                     cfg.PlayerMin,
		PlayerCap:                     cfg.PlayerCap,
		AutoStartTimeSeconds:          int(cfg.AutoStartTime.Seconds()),
		StartTimerSeconds:             cfg.StartTimer,
		EnableAutoStartInMultiPrivate: cfg.EnableAutoStartInMultiPrivate,
		EnableVoteStart:               cfg.EnableVoteStart,
		VoteRateToStart:               cfg.VoteRateToStart,
		AllowLateEnter:                cfg.AllowLateEnter,
		CoinRewardFlagpole:            cfg.CoinRewardFlagpole,
		CoinRewardPodium1:             cfg.CoinRewardPodium1,
		CoinRewardPodium2:             cfg.CoinRewardPodium2,
		CoinRewardPodium3:             cfg.CoinRewardPodium3,
		DefaultName:                   cfg.DefaultName,
		DefaultTeam:                   cfg.DefaultTeam,
	}

	var stats match.StatSink
	if accounts != nil {
		stats = accounts
	}

	mm := matchmaker.New(cfg.PlayerCap, matchCfg, cat, notifier, stats, log)

	s := &Server{
		cfg:         cfg,
		log:         log,
		accounts:    accounts,
		sessions:    account.NewSessions(),
		matches:     mm,
		levels:      cat,
		notifier:    notifier,
		logins:      abuse.NewLoginLimiter(4, 60*time.Second, 60*time.Second),
		connections: abuse.NewConnectionCap(cfg.MaxSimulIP),
		blocklist:   blocklist,
		challenges:  abuse.NewChallenges(),
		conns:       make(map[*transport.Connection]*connSession),
	}
	return s, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled, then
// drains per spec.md §7 and shuts down.
func (s *Server) Run(ctx context.Context) error {
	mux := httprouter.New()

	prefix := strings.TrimSuffix(s.cfg.Prefix, "/")

	mux.GET(prefix+"/healthz", s.serveHealthz)
	mux.GET(prefix+"/version", s.serveVersion)
	mux.GET(prefix+"/robots.txt", s.serveRobots)
	mux.GET(prefix+"/royale/ws", s.serveWebsocket)
	mux.GET(prefix+s.cfg.StatusPath, s.serveStatus)
	mux.GET(prefix+s.cfg.LeaderBoardPath, s.serveLeaderboard)
	mux.GET(prefix+"/assets-metadata", s.serveAssetsMetadata)

	if s.cfg.Profile {
		mux.Handler("GET", prefix+"/pprof/allocs", pprof.Handler("allocs"))
		mux.Handler("GET", prefix+"/pprof/block", pprof.Handler("block"))
		mux.Handler("GET", prefix+"/pprof/goroutine", pprof.Handler("goroutine"))
		mux.Handler("GET", prefix+"/pprof/heap", pprof.Handler("heap"))
		mux.HandlerFunc("GET", prefix+"/pprof/cmdline", pprof.Cmdline)
		mux.HandlerFunc("GET", prefix+"/pprof/profile", pprof.Profile)
		mux.HandlerFunc("GET", prefix+"/pprof/symbol", pprof.Symbol)
		mux.HandlerFunc("GET", prefix+"/pprof/trace", pprof.Trace)
	}

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		s.log.Logf("ERROR: panic serving %s: %v", r.URL.Path, i)
		w.WriteHeader(http.StatusInternalServerError)
	}

	s.httpSrv = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Bind, strconv.Itoa(s.cfg.ListenPort)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       requestTimeout,
		ReadHeaderTimeout: requestTimeout,
		WriteTimeout:      requestTimeout,
	}

	go s.pollSentinel(ctx)
	go s.pollLevels(ctx)
	go s.pollLeaderboard(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Logf("SERVE: listening on %s", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

// pollSentinel watches for the shutdown sentinel file (spec.md §7):
// once present, broadcast a 180s hurry-up warning, then stop either
// once every match empties or 240s have elapsed.
func (s *Server) pollSentinel(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.draining {
				continue
			}
			if _, err := os.Stat(s.cfg.ShutdownSentinel); err != nil {
				continue
			}
			s.beginDrain(ctx)
			return
		}
	}
}

func (s *Server) beginDrain(ctx context.Context) {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	s.log.Logf("DRAIN: shutdown sentinel detected, broadcasting hurry-up")
	s.matches.BroadcastAll(180)

	deadline := time.After(240 * time.Second)
	check := time.NewTicker(5 * time.Second)
	defer check.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			s.log.Logf("DRAIN: deadline reached, shutting down")
			return
		case <-check.C:
			if s.matches.TotalPlayers() == 0 {
				s.log.Logf("DRAIN: all players gone, shutting down")
				return
			}
		}
	}
}

// pollLevels hot-reloads the levels directory (spec.md §7).
func (s *Server) pollLevels(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.levels.Reload(); err != nil {
				s.log.Debugf("server: reloading levels: %v", err)
			}
		}
	}
}

func (s *Server) serveHealthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	securityHeaders(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.draining {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("draining\n"))
		return
	}
	w.Write([]byte("Ok\n"))
}

func (s *Server) serveVersion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	securityHeaders(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("royaleserver v1\n"))
}

func (s *Server) serveRobots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	securityHeaders(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("User-agent: *\nDisallow: /royale/ws\n"))
}
