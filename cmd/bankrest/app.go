package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dankotyt/Bank-REST/internal/db"
	"github.com/dankotyt/Bank-REST/internal/handlers"
	"github.com/dankotyt/Bank-REST/internal/logger"
	"github.com/dankotyt/Bank-REST/internal/repository/postgres"
	"github.com/dankotyt/Bank-REST/internal/service/admin"
	"github.com/dankotyt/Bank-REST/internal/service/auth"
	"github.com/dankotyt/Bank-REST/internal/service/card"
	"github.com/dankotyt/Bank-REST/internal/service/transfer"
	"github.com/dankotyt/Bank-REST/internal/token"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize token machinery
	codec, err := token.NewCodec(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}
	issuer := token.NewIssuer(codec, c.AccessTokenTTL, c.RefreshTokenTTL)
	validator := token.NewValidator(codec, token.NewRevocationList(codec))

	// Initialize services
	authService, err := auth.NewService(auth.Config{}, codec, issuer, validator, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	cardService := card.NewService(storage)
	transferService := transfer.NewService(storage)
	adminService := admin.NewService(storage, auth.BcryptHasher{})

	mux := handlers.NewRouter(
		authService,
		cardService,
		transferService,
		adminService,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
