// Package main applies the embedded PostgreSQL and ClickHouse migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"kundali-lab/internal/storage/migrations"
	pgstore "kundali-lab/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall migration timeout")
	flag.Parse()

	if *postgresDSN == "" && *clickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: at least one of --postgres-dsn or --clickhouse-dsn is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
			os.Exit(1)
		}
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		pool.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error applying postgres migrations: %v\n", err)
			os.Exit(1)
		}
		for _, name := range applied {
			fmt.Printf("postgres: applied %s\n", name)
		}
		if len(applied) == 0 {
			fmt.Println("postgres: up to date")
		}
	}

	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error applying clickhouse migrations: %v\n", err)
			os.Exit(1)
		}
		_ = conn.Close()
		fmt.Println("clickhouse: migrations applied")
	}
}
