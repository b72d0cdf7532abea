package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// Ledger tables in delete order. Treasurer accounts and settings are kept.
var ledgerTables = []string{
	"payment_statuses",
	"notifications",
	"collections",
	"members",
}

func main() {
	keepMembers := flag.Bool("keep-members", false, "Keep the member roster, clear only collections and payments")
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("   Reset Treasury Ledger")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: This deletes every collection and payment record.")
	if !*keepMembers {
		fmt.Println("The member roster is deleted too (use -keep-members to keep it).")
	}
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	godotenv.Load()

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "treasury_db"),
		getEnv("DB_SSLMODE", "disable"),
	)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v\n", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range ledgerTables {
		if table == "members" && *keepMembers {
			continue
		}
		tag, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			log.Fatalf("Failed to clear %s: %v\n", table, err)
		}
		fmt.Printf("  Cleared %s (%d rows)\n", table, tag.RowsAffected())
	}

	if _, err := tx.Exec(ctx, `DELETE FROM settings WHERE key = 'notification_settings'`); err != nil {
		log.Printf("Warning: Failed to reset notification settings: %v\n", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit transaction: %v\n", err)
	}

	fmt.Println()
	fmt.Println("Ledger reset complete. Treasurer accounts were kept.")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
