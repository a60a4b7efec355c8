package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"flooring_crm/internal/config"
	"flooring_crm/internal/database"
	"flooring_crm/internal/migrations"
	"flooring_crm/internal/repository"
	"flooring_crm/internal/services"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	hashToken := flag.String("hash-token", "", "print a bcrypt hash for OPERATOR_TOKEN_HASH and exit")
	audit := flag.Bool("audit", false, "list orders whose status is not a system status")
	flag.Parse()

	if *hashToken != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*hashToken), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("Failed to hash token:", err)
		}
		fmt.Println(string(hash))
		return
	}

	fmt.Println("Initializing database...")

	// Load configuration
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	ctx := context.Background()

	// Create tables and default checklist templates
	if err := migrations.RunMigrations(ctx, db, logger); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	if *audit {
		repairService := services.NewRepairService(repository.NewOrderRepository(db), cfg.DriftBatchSize, logger)
		drifted, err := repairService.FindDriftedOrders(ctx)
		if err != nil {
			log.Fatal("Failed to audit order statuses:", err)
		}
		fmt.Printf("%d order(s) outside the system taxonomy\n", len(drifted))
		for _, o := range drifted {
			number := "-"
			if o.OrderNumber != nil {
				number = *o.OrderNumber
			}
			fmt.Printf("  order %d (%s): %q\n", o.ID, number, o.Status)
		}
	}

	fmt.Println("Database initialization completed successfully!")
}
