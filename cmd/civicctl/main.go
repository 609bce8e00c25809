// Command civicctl talks to the civic reporting API from a terminal. The
// login is kept in a session profile so consecutive invocations share it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/civic_mirror/pkg/authclient"
	"github.com/Skotchmaster/civic_mirror/pkg/config"
	pkgdb "github.com/Skotchmaster/civic_mirror/pkg/db"
	"github.com/Skotchmaster/civic_mirror/pkg/logging"
	"github.com/Skotchmaster/civic_mirror/pkg/session"
)

func main() {
	_ = godotenv.Load()

	logger := logging.NewWithWriter(os.Stderr, config.EnvDefault("LOG_LEVEL", "warn"))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "civicctl:", err)
		os.Exit(1)
	}
	defer closeStore()

	client := authclient.New(
		config.EnvDefault("CIVIC_API_URL", "http://localhost:8080"),
		store,
		authclient.WithTimeout(config.EnvDurationDefault("CIVIC_TIMEOUT", authclient.DefaultTimeout)),
		authclient.WithLogger(logger),
	)

	code := run(ctx, client, os.Args[1:], os.Stdout, os.Stderr)
	closeStore()
	stop()
	os.Exit(code)
}

// openStore picks Redis when CIVIC_REDIS_URL is set and a SQLite profile
// file otherwise.
func openStore(ctx context.Context) (authclient.SessionStore, func(), error) {
	profile := config.EnvDefault("CIVIC_PROFILE_NAME", "default")

	if redisURL := os.Getenv("CIVIC_REDIS_URL"); redisURL != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		rdb, err := session.NewRedisClient(pingCtx, redisURL)
		if err != nil {
			return nil, nil, err
		}
		ttl := config.EnvDurationDefault("CIVIC_SESSION_TTL", 7*24*time.Hour)
		return session.NewRedisStore(rdb, profile, ttl), func() { _ = rdb.Close() }, nil
	}

	path := os.Getenv("CIVIC_PROFILE")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("locate home directory: %w", err)
		}
		path = filepath.Join(home, ".civicctl", "session.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create profile directory: %w", err)
	}

	db, err := pkgdb.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	store, err := session.NewGormStore(db, profile)
	if err != nil {
		_ = pkgdb.Close(db)
		return nil, nil, err
	}
	var closed bool
	return store, func() {
		if !closed {
			closed = true
			_ = pkgdb.Close(db)
		}
	}, nil
}
