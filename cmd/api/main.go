package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/livestock-vision/internal/application"
	appanalysis "github.com/bryanwahyu/livestock-vision/internal/application/analysis"
	"github.com/bryanwahyu/livestock-vision/internal/config"
	"github.com/bryanwahyu/livestock-vision/internal/domain/analysis"
	"github.com/bryanwahyu/livestock-vision/internal/domain/breeds"
	"github.com/bryanwahyu/livestock-vision/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/livestock-vision/internal/infra/db/mysql"
	"github.com/bryanwahyu/livestock-vision/internal/infra/db/postgres"
	"github.com/bryanwahyu/livestock-vision/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/livestock-vision/internal/infra/storage"
	"github.com/bryanwahyu/livestock-vision/internal/logger"
	"github.com/bryanwahyu/livestock-vision/internal/middleware"
)

// historyRepo is what main needs from either SQL backend.
type historyRepo interface {
	analysis.Repository
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	ctx := context.Background()
	checkers := map[string]middleware.HealthChecker{}

	if cfg.Inference.APIKey == "" {
		lg.Warn("inference api key is empty; every analysis will return the error fallback")
	}
	classifier := openai.NewClient(openai.Options{
		APIKey:    cfg.Inference.APIKey,
		BaseURL:   cfg.Inference.BaseURL,
		Model:     cfg.Inference.Model,
		MaxTokens: cfg.Inference.MaxTokens,
		Timeout:   cfg.Inference.Timeout,
	})

	svc := &appanalysis.Service{
		Classifier: classifier,
		Catalog:    breeds.Default(),
		Clock:      application.SystemClock{},
		Log:        lg,
		UploadDir:  cfg.Upload.Dir,
		MaxBytes:   cfg.Upload.MaxBytes,
		Timeout:    cfg.Inference.Timeout,
	}

	// optional analysis history
	if cfg.History.Driver != "" {
		db, repo, err := openHistory(ctx, cfg)
		if err != nil {
			lg.WithError(err).WithField("driver", cfg.History.Driver).Fatal("history store init error")
		}
		defer db.Close()
		svc.Repo = repo
		checkers["database"] = middleware.CheckFunc(repo.Ping)
		lg.WithField("driver", cfg.History.Driver).Info("analysis history enabled")
	}

	// optional image archive
	if cfg.Archive.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Archive.Endpoint,
			cfg.Archive.Region,
			cfg.Archive.BucketName,
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			cfg.Archive.UseSSL,
		)
		if err != nil {
			lg.WithError(err).Fatal("minio init error")
		}
		svc.Archive = store
		checkers["archive"] = store
		lg.WithField("bucket", cfg.Archive.BucketName).Info("image archive enabled")
	}

	handler := httpserver.NewRouter(httpserver.Options{
		Analysis:       svc,
		Catalog:        svc.Catalog,
		Metrics:        middleware.NewMetrics(),
		Log:            lg,
		APIKeys:        cfg.Auth.APIKeys,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		HealthCheckers: checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	go func() {
		lg.WithFields(logrus.Fields{
			"addr":  addr,
			"model": cfg.Inference.Model,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.WithError(err).Fatal("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	lg.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		lg.WithError(err).Error("shutdown error")
	}
}

func openHistory(ctx context.Context, cfg *config.Config) (*sql.DB, historyRepo, error) {
	var (
		db   *sql.DB
		repo historyRepo
		err  error
	)
	switch cfg.History.Driver {
	case "mysql":
		if db, err = mysqlp.Connect(ctx, cfg.MySQLDSN()); err != nil {
			return nil, nil, err
		}
		repo = mysqlp.NewHistoryRepository(db)
	case "postgres":
		if db, err = postgres.Connect(ctx, cfg.PostgresDSN()); err != nil {
			return nil, nil, err
		}
		repo = postgres.NewHistoryRepository(db)
	default:
		return nil, nil, fmt.Errorf("unknown history driver %q", cfg.History.Driver)
	}

	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(ctx2); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, repo, nil
}
