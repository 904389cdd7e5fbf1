// Applies scripts/schema.sql to the configured database. Run from the repo
// root:
//
//	go run ./scripts/apply-schema
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"nestlog-reconcile/pkg/config"
	"nestlog-reconcile/pkg/database"

	_ "github.com/lib/pq"
)

func main() {
	cfg := &config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "nestlog",
		SSLMode:  "disable",
	}
	cfg.LoadFromEnv("DB")

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	sqlFile := filepath.Join("scripts", "schema.sql")
	sqlBytes, err := os.ReadFile(sqlFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read SQL file %s: %v\n", sqlFile, err)
		os.Exit(1)
	}

	if _, err := db.Exec(string(sqlBytes)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute SQL: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("schema applied successfully")
}
