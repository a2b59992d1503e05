package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mysnackdev/mysnack-storefront/internal/backend"
	"github.com/mysnackdev/mysnack-storefront/internal/catalog"
	"github.com/mysnackdev/mysnack-storefront/internal/config"
	"github.com/mysnackdev/mysnack-storefront/internal/db"
	catalogrepo "github.com/mysnackdev/mysnack-storefront/internal/repository/catalog"
)

func main() {
	var storeID string
	flag.StringVar(&storeID, "store", "", "Refresh only this store's menu (default: full catalog)")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	svc := catalog.NewService(backend.New(cfg.BackendBaseURL, logger), catalogrepo.NewPostgres(pool), logger)

	start := time.Now()
	if storeID != "" {
		err = svc.SyncMenu(ctx, storeID)
	} else {
		err = svc.SyncAll(ctx)
	}
	if err != nil {
		logger.Fatalf("catalog import failed: %v", err)
	}

	fmt.Printf("Catalog refreshed in %s\n", time.Since(start).Truncate(time.Millisecond))
}
