// Prints record counts per table plus the newest offline-queue entries.
// Quick sanity check for a deployed database:
//
//	go run ./scripts/checkdb
package main

import (
	"fmt"
	"log"

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
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	tables := []string{
		"sleep_records",
		"feed_records",
		"diaper_records",
		"activity_records",
		"pending_reports",
	}
	for _, table := range tables {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			log.Fatalf("Failed to count %s: %v", table, err)
		}
		fmt.Printf("%-20s %d\n", table, count)
	}

	rows, err := db.Query(`
		SELECT pending_report_id, child_id, content_type, failure_reason, created_at
		FROM pending_reports
		ORDER BY created_at DESC
		LIMIT 10
	`)
	if err != nil {
		log.Fatalf("Failed to query pending reports: %v", err)
	}
	defer rows.Close()

	fmt.Println("\nnewest pending reports:")
	for rows.Next() {
		var id, childID, contentType, reason, createdAt string
		if err := rows.Scan(&id, &childID, &contentType, &reason, &createdAt); err != nil {
			log.Fatalf("Failed to scan pending report: %v", err)
		}
		fmt.Printf("  %s  child=%s  %s  %q  %s\n", id, childID, contentType, reason, createdAt)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Failed reading pending reports: %v", err)
	}
}
