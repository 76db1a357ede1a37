package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/wristcalm/wristcalm/server/internal/api"
	"github.com/wristcalm/wristcalm/server/internal/auth"
	"github.com/wristcalm/wristcalm/server/internal/breathing"
	"github.com/wristcalm/wristcalm/server/internal/config"
	"github.com/wristcalm/wristcalm/server/internal/metrics"
	"github.com/wristcalm/wristcalm/server/internal/session"
	"github.com/wristcalm/wristcalm/server/internal/ui"
	"github.com/wristcalm/wristcalm/server/internal/ws"
)

// hubRefresh is how often live session views are re-sent so clients notice
// expiry even when nothing changes.
const hubRefresh = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file; empty runs with defaults")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	slog.Info("wristwatch starting", "config", *configPath)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
	}
	level.Set(cfg.Server.SlogLevel())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"log_level", cfg.Server.LogLevel,
		"auth_mode", cfg.Server.Auth.Mode,
		"session_ttl", cfg.Server.Session.TTL,
		"breathing_cycles", cfg.Server.Breathing.Cycles,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The breathing script is rebuilt from whatever config is current.
	var breath atomic.Pointer[config.BreathingConfig]
	bc := cfg.Server.Breathing
	breath.Store(&bc)
	script := func() []breathing.Step {
		b := breath.Load()
		return breathing.Script(b.Cycles, b.Inhale, b.Exhale)
	}

	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				level.Set(next.Server.SlogLevel())
				nb := next.Server.Breathing
				breath.Store(&nb)
				slog.Info("config applied",
					"log_level", next.Server.LogLevel,
					"breathing_cycles", nb.Cycles,
					"inhale", nb.Inhale,
					"exhale", nb.Exhale,
				)
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	// Session store with background TTL eviction.
	sessions := session.NewStore(cfg.Server.Session.TTL)
	go sessions.Run(ctx)

	reg := metrics.New()

	// WebSocket hub: pushes a session's view to its watchers on every change.
	hub := ws.New(sessions, hubRefresh, cfg.Server.WebSocket.PingPeriod)
	go hub.Run(ctx)
	breather := ws.NewBreather(script, breathing.NewPlayer(), reg)

	reg.Gauge("sessions_active", "Sessions that have not expired.", func() float64 {
		return float64(len(sessions.List()))
	})
	reg.Gauge("websocket_clients", "Open WebSocket connections.", func() float64 {
		return float64(hub.Count() + breather.Active())
	})

	screens, err := ui.New(ui.Options{
		Sessions:  sessions,
		Metrics:   reg,
		Publisher: hub,
		Script:    script,
	})
	if err != nil {
		slog.Error("failed to load UI templates", "err", err)
		os.Exit(1)
	}

	apiKey := auth.APIKey(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)

	router := mux.NewRouter()
	router.PathPrefix("/api/").Handler(apiKey(api.New(api.Options{
		Sessions:  sessions,
		Metrics:   reg,
		Publisher: hub,
		Script:    script,
	})))
	router.Handle("/metrics", reg)
	router.Handle("/ws/breathing", breather)
	router.Handle("/ws/sessions/{id}", hub)
	screens.Register(router)

	handler := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(
		handlers.CombinedLoggingHandler(os.Stdout, router),
	)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("wristwatch shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
}

// recoveryLogger sends handler panics to slog.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	slog.Error("http: recovered from panic", "err", fmt.Sprint(v...))
}
