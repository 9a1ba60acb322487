package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/refbox/go/internal/dbconfig"
	"github.com/mcdev12/refbox/go/internal/outbox"
	"github.com/mcdev12/refbox/go/internal/stats"
)

// Creates the tables the stats pipeline needs. Every statement is
// IF NOT EXISTS, so running it twice is harmless.
func main() {
	schemas := []struct {
		name string
		sql  string
	}{
		{"refbox_outbox", outbox.Schema},
		{"game_stats", stats.Schema},
	}

	// Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var errs int
	for _, s := range schemas {
		if _, err := pool.Exec(context.Background(), s.sql); err != nil {
			fmt.Fprintf(os.Stderr, "error applying %s: %v\n", s.name, err)
			errs++
			continue
		}
		fmt.Printf("applied %s\n", s.name)
	}

	fmt.Printf("Done: %d schemas, %d errors\n", len(schemas), errs)
	if errs > 0 {
		os.Exit(1)
	}
}
