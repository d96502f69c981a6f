package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"logistics-backend/internal/auth"
	"logistics-backend/internal/config"
	"logistics-backend/internal/database"
	"logistics-backend/internal/db"
	"logistics-backend/internal/repositories"
	"logistics-backend/internal/services"
)

// Child tables first; CASCADE covers anything missed.
var resetTables = []string{
	"expenses",
	"carriers",
	"trucks",
	"drivers",
	"receipts",
	"invoices",
	"company_balances",
	"companies",
	"transactions",
	"accounts",
	"users",
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("   Reset Database for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: this deletes every account, invoice, fleet record and user.")
	fmt.Println("The bootstrap admin from the config is recreated afterwards.")
	fmt.Println()

	if !*yes {
		fmt.Print("Type 'yes' to confirm: ")
		var confirm string
		fmt.Scanln(&confirm) //nolint:errcheck
		if confirm != "yes" {
			fmt.Println("Reset cancelled.")
			return
		}
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logr := zap.NewExample()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg, logr)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.NewMigrator(pool, logr).RunMigrations(ctx); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, table := range resetTables {
			if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
				return fmt.Errorf("truncate %s: %w", table, err)
			}
			fmt.Printf("  cleared %s\n", table)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("reset failed: %v", err)
	}

	userRepo := repositories.NewUserRepository(pool)
	users := services.NewUserService(userRepo, auth.NewJWTManager(cfg), services.NewTOTPService(userRepo, cfg.Business.Name), logr)
	created, err := users.EnsureAdmin(ctx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
	if err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	fmt.Println()
	fmt.Println("Database reset successful.")
	if created {
		fmt.Printf("Admin login: %s (password from bootstrap.admin_password)\n", cfg.Bootstrap.AdminEmail)
	} else {
		fmt.Println("No bootstrap admin configured; set bootstrap.admin_email and bootstrap.admin_password.")
	}
}
