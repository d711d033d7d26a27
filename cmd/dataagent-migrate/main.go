package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dataagent/dataagent/internal/config"
	"github.com/dataagent/dataagent/internal/migrations"
	"github.com/dataagent/dataagent/internal/observability"
	"github.com/dataagent/dataagent/internal/store"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up|down|status")
	steps := flag.Int("steps", 0, "number of migration steps; 0 means all for up, 1 for down")
	seed := flag.Bool("seed", false, "insert demo data after migrating up when the database is empty")
	flag.Parse()

	cfg, err := config.LoadFromEnv("dataagent-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	runner := migrations.NewRunner()
	switch *direction {
	case "up":
		applied, err := runner.Up(ctx, db, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migration up failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("applied %d migration(s)\n", applied)
	case "down":
		if *seed {
			fmt.Fprintln(os.Stderr, "-seed only applies to -direction up")
			os.Exit(1)
		}
		applied, err := runner.Down(ctx, db, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migration down failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("rolled back %d migration(s)\n", applied)
	case "status":
		statuses, err := runner.Status(ctx, db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migration status failed: %v\n", err)
			os.Exit(1)
		}
		for _, status := range statuses {
			state := "pending"
			switch {
			case status.Name == "":
				state = "missing"
			case status.Applied:
				state = "applied"
			}
			fmt.Printf("%06d %-24s %s\n", status.Version, status.Name, state)
		}
		return
	default:
		fmt.Fprintf(os.Stderr, "invalid direction: %s\n", *direction)
		os.Exit(1)
	}

	if *seed {
		seeder, err := store.NewSeeder(db, cfg.Seed, observability.NewLogger(cfg, os.Stderr))
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed config error: %v\n", err)
			os.Exit(1)
		}
		result, err := seeder.Seed(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
		if result.Skipped {
			fmt.Println("database already seeded")
			return
		}
		fmt.Printf("seeded %d customer(s), %d product(s), %d order(s)\n", result.Customers, result.Products, result.Orders)
	}
}
