package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mysnackdev/mysnack-storefront/internal/backend"
	"github.com/mysnackdev/mysnack-storefront/internal/cart"
	"github.com/mysnackdev/mysnack-storefront/internal/catalog"
	"github.com/mysnackdev/mysnack-storefront/internal/checkout"
	"github.com/mysnackdev/mysnack-storefront/internal/config"
	"github.com/mysnackdev/mysnack-storefront/internal/db"
	"github.com/mysnackdev/mysnack-storefront/internal/httpserver"
	"github.com/mysnackdev/mysnack-storefront/internal/mirror"
	"github.com/mysnackdev/mysnack-storefront/internal/realtime"
	catalogrepo "github.com/mysnackdev/mysnack-storefront/internal/repository/catalog"
	"github.com/mysnackdev/mysnack-storefront/internal/repository/devicestate"
	"github.com/mysnackdev/mysnack-storefront/internal/session"
	"github.com/mysnackdev/mysnack-storefront/internal/table"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	backendClient := backend.New(cfg.BackendBaseURL, logger)

	// The cart store and the file watcher reference each other, so the
	// watcher callback binds late through this indirection.
	var notifyCartChange func(deviceID string)
	var state devicestate.Repository
	if cfg.StateBackend == "file" {
		state, err = devicestate.NewFile(cfg.StateDir, logger, func(deviceID string) {
			if notifyCartChange != nil {
				notifyCartChange(deviceID)
			}
		})
		if err != nil {
			logger.Fatalf("open state dir %s: %v", cfg.StateDir, err)
		}
	} else {
		state = devicestate.NewPostgres(dbpool)
	}

	cartStore := cart.New(state, backendClient, cart.NewBus(), logger)
	notifyCartChange = cartStore.NotifyExternalChange

	var rt realtime.Client
	if cfg.DatabaseURL != "" {
		rt, err = realtime.NewFirebase(ctx, cfg.DatabaseURL, cfg.CredentialsFile, logger)
		if err != nil {
			logger.Fatalf("connect realtime db: %v", err)
		}
	} else {
		logger.Printf("REALTIME_DB_URL not set, order mirrors disabled")
		rt = realtime.Disabled()
	}

	catalogService := catalog.NewService(backendClient, catalogrepo.NewPostgres(dbpool), logger)

	hub := mirror.NewHub(ctx, rt, logger)
	defer hub.Close()

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sessions: session.New(),
		Carts:    cartStore,
		Checkout: checkout.NewManager(ctx, cartStore, rt, backendClient, logger),
		Catalog:  catalogService,
		Mirrors:  hub,
		Tables:   table.NewResolver(backendClient, logger),
		Cards:    backendClient,
		Prefs:    state,
		Statuses: mirror.NewStatusTracker(state, logger),
	}, cfg.AllowedOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
