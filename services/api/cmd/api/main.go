package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	pkgdb "github.com/Skotchmaster/civic_mirror/pkg/db"
	"github.com/Skotchmaster/civic_mirror/pkg/logging"

	apicfg "github.com/Skotchmaster/civic_mirror/services/api/internal/config"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/events"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/httpserver"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/images"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/repo"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/search"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/service"
)

func main() {
	if err := godotenv.Load("services/api/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := apicfg.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	rp := repo.New(db)
	if err := rp.Migrate(ctx); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}

	reports := &service.ReportService{Repo: rp, Events: events.Noop{}}

	if len(cfg.KafkaBrokers) > 0 {
		reports.Events = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("kafka events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	if cfg.Elastic.URL != "" {
		es, err := search.NewClient(cfg.Elastic.URL, cfg.Elastic.User, cfg.Elastic.Password)
		if err != nil {
			logger.Error("elasticsearch unavailable, using database search", "error", err)
		} else {
			idx := &search.ESIndex{ES: es, Index: cfg.Elastic.Index}
			if err := idx.EnsureIndex(ctx); err != nil {
				logger.Error("elasticsearch index setup failed, using database search", "error", err)
			} else {
				reports.Index = idx
			}
		}
	}

	if cfg.Minio.Endpoint != "" {
		store, err := images.NewMinioStore(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			logger.Error("object storage unavailable, images disabled", "error", err)
		} else {
			publicURL := cfg.Minio.PublicURL
			if publicURL == "" {
				publicURL = images.DefaultPublicURL(cfg.Minio.Endpoint, cfg.Minio.Bucket, cfg.Minio.UseSSL)
			}
			reports.Images = &images.Uploader{Store: store, PublicURL: publicURL}
		}
	}
	cancel()

	auth := &service.AuthService{
		Repo:          rp,
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}

	e := httpserver.New(logger)
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: auth},
		ReportHandler:  &httpserver.ReportHTTP{Svc: reports},
		CommentHandler: &httpserver.CommentHTTP{Svc: &service.CommentService{Repo: rp}},
		UserHandler:    &httpserver.UserHTTP{Svc: &service.UserService{Repo: rp}},
		AdminHandler:   &httpserver.AdminHTTP{Svc: &service.AdminService{Reports: reports}, Users: auth},
		JWTSecret:      cfg.JWTAccessSecret,
		Ready:          rp.Ping,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if err := reports.Events.Close(); err != nil {
		logger.Error("event publisher close", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db close", "error", err)
	}

	logger.Info("api stopped")
}
