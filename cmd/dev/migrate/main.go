package main

import (
	"context"
	"fmt"
	"os"

	"scango/pkg/config"
	"scango/pkg/db"
)

func main() {
	cfg := config.Load()
	if !cfg.DatabaseConfigured() {
		fmt.Fprintln(os.Stderr, "set DATABASE_URL (and DIRECT_URL for poolers) or DB_HOST")
		os.Exit(2)
	}

	// Uses DIRECT_URL when set.
	if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}

	// Sanity check that the runtime connection opens too.
	pool, err := db.Open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime db open failed: %v\n", err)
		os.Exit(1)
	}
	pool.Close()

	fmt.Println("migrations applied")
}
