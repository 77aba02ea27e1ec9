package main

import (
	"encoding/hex"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iyulab/shell-tunnel/cmd"
	"github.com/iyulab/shell-tunnel/internal/admin"
	"github.com/iyulab/shell-tunnel/internal/config"
	"github.com/iyulab/shell-tunnel/internal/keystore"
	"github.com/iyulab/shell-tunnel/internal/logging"
	"github.com/iyulab/shell-tunnel/internal/ratelimit"
	"github.com/iyulab/shell-tunnel/internal/server"
	"github.com/iyulab/shell-tunnel/internal/session"
)

// idleSweepInterval and idleTimeout bound the optional session-eviction
// sweeper; a session idle past idleTimeout is terminated and reclaimed.
const (
	idleSweepInterval = 30 * time.Second
	idleTimeout       = 30 * time.Minute
)

func main() {
	cmd.Run(run)
}

func run(opts cmd.Options) {
	cfg := config.Defaults()
	if opts.ConfigPath != "" {
		loaded, err := config.LoadFile(opts.ConfigPath)
		if err == nil {
			cfg = loaded
		} else if !os.IsNotExist(err) {
			logrus.WithError(err).Fatal("loading config file")
		}
	}
	cfg = config.EnvOverlay(cfg)

	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.NoAuth {
		cfg.Auth.Enabled = false
	}
	if opts.NoRateLimit {
		cfg.RateLimit.Enabled = false
	}
	cfg.Auth.APIKeys = append(cfg.Auth.APIKeys, opts.APIKeys...)

	logging.Init(cfg.LogLevel)

	keys := keystore.New(cfg.Auth.Enabled, keystore.DefaultLayout)
	for _, k := range cfg.Auth.APIKeys {
		keys.Add(k)
	}

	limiter := ratelimit.New(ratelimit.Config{
		Enabled:           cfg.RateLimit.Enabled,
		MaxRequests:       cfg.RateLimit.RequestsPerWindow,
		Window:            time.Duration(cfg.RateLimit.WindowSecs) * time.Second,
		MaxTrackedSources: 10_000,
	})

	registry := session.NewRegistry()
	go sweepIdleSessions(registry)

	var adminHandlers *admin.Handlers
	if store, err := config.LoadAdminStore(opts.AdminStore); err == nil {
		jwtSecret, hexErr := hex.DecodeString(store.JWTSecret)
		if hexErr != nil {
			logrus.WithError(hexErr).Warn("admin: invalid jwt_secret in store, admin surface disabled")
		} else {
			mgr := admin.NewManager(store.PasswordHash, store.TOTPSecret, jwtSecret)
			adminHandlers = admin.NewHandlers(mgr, keys)
			logrus.Info("admin key-management surface enabled")
		}
	} else if !os.IsNotExist(err) {
		logrus.WithError(err).Warn("admin: failed to load store, admin surface disabled")
	}

	if opts.ConfigPath != "" {
		if _, err := config.Watch(opts.ConfigPath, func(reloaded config.Server) {
			if opts.NoAuth {
				reloaded.Auth.Enabled = false
			}
			if opts.NoRateLimit {
				reloaded.RateLimit.Enabled = false
			}
			keys.SetEnabled(reloaded.Auth.Enabled)
			limiter.SetConfig(ratelimit.Config{
				Enabled:           reloaded.RateLimit.Enabled,
				MaxRequests:       reloaded.RateLimit.RequestsPerWindow,
				Window:            time.Duration(reloaded.RateLimit.WindowSecs) * time.Second,
				MaxTrackedSources: 10_000,
			})
			logrus.Info("config: reloaded")
		}); err != nil {
			logrus.WithError(err).Warn("config: live reload disabled")
		}
	}

	srv := server.New(cfg, registry, keys, limiter, adminHandlers)
	if err := srv.Run(); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

func sweepIdleSessions(registry *session.Registry) {
	ticker := time.NewTicker(idleSweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		n, err := registry.SweepIdle(idleTimeout)
		if err != nil {
			logrus.WithError(err).Warn("session sweep failed")
			continue
		}
		if n > 0 {
			logrus.WithField("count", n).Debug("swept idle sessions")
		}
	}
}
