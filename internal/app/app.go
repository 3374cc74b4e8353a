package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/bookmarks/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/bookmarks/internal/auth"
	"github.com/vadimbarashkov/bookmarks/internal/config"
	"github.com/vadimbarashkov/bookmarks/internal/usecase"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/bookmarks/internal/adapter/delivery/http"
	pgconn "github.com/vadimbarashkov/bookmarks/pkg/postgres"
)

func newLogger(cfg *config.Config) *httplog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	return httplog.NewLogger("bookmarks", httplog.Options{
		JSON:             cfg.Env != config.EnvDev,
		LogLevel:         level,
		Concise:          cfg.Env == config.EnvDev,
		RequestHeaders:   false,
		MessageFieldName: "message",
		Tags: map[string]string{
			"env": cfg.Env,
		},
	})
}

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg)

	db, err := pgconn.New(
		ctx,
		cfg.Postgres.DSN(),
		pgconn.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pgconn.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pgconn.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pgconn.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	version, err := pgconn.RunMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}
	logger.Info("database migrated", slog.Uint64("version", uint64(version)))

	bookmarkRepo := postgres.NewBookmarkRepository(db)
	bookmarkUseCase := usecase.NewBookmarkUseCase(cfg.ShortURLLength, bookmarkRepo)
	identity := auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	router := delivery.NewRouter(logger, identity, bookmarkUseCase, delivery.Pagination{
		DefaultPerPage: cfg.Pagination.DefaultPerPage,
		MaxPerPage:     cfg.Pagination.MaxPerPage,
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
