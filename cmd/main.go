package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supply_sandbox/internal/config"
	"supply_sandbox/internal/handlers"
	"supply_sandbox/internal/logger"
	"supply_sandbox/internal/repository"
	"supply_sandbox/internal/repository/db"
	"supply_sandbox/internal/server"
	"supply_sandbox/internal/service"
	"supply_sandbox/internal/wizard"
)

const shutdownTimeout = 10 * time.Second

// @title           Supply Sandbox Scenario Configurator API
// @version         1.0
// @description     Wizard sessions for building what-if scenario lists and handing them to the sandbox.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load configs/config.yml plus SANDBOX_* overrides
	cfg, err := config.Load("configs", ".")
	if err != nil {
		logger.Get(logger.Config{}).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.Log)
	defer func() { _ = log.Sync() }()

	conn, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DBPath, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	schema := wizard.DefaultSchema()
	if err := schema.Validate(); err != nil {
		log.Fatalw("invalid configurator schema", "err", err)
	}

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, log, service.Options{
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
		SessionTTL: cfg.Sessions.TTL,
		Schema:     schema,
	})
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go services.Reaper.Run(ctx, cfg.Sessions.ReapInterval)

	srv := &server.Server{}
	runHTTPServer(srv, cfg.HTTP, apiHandler, log)

	waitForShutdown(cancel, srv, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, cfg server.Config, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "port", cfg.Port)
		if err := srv.Run(cfg, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT/SIGTERM, then stops background work and drains requests.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
