package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/samirrijal/crownbreaker/internal/adapters/postgres"
	"github.com/samirrijal/crownbreaker/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|list>")
	}

	dir := postgres.Direction(os.Args[1])
	switch os.Args[1] {
	case "up", "down":
	case "list":
		files, err := postgres.MigrationFiles(postgres.Up)
		if err != nil {
			log.Fatalf("list: %v", err)
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}

	cfg, err := config.Load("crownbreaker-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	err = db.Migrate(ctx, dir, func(name string) {
		fmt.Printf("OK  %s\n", name)
	})
	if err != nil {
		log.Fatalf("migrate %s: %v", dir, err)
	}

	log.Printf("all %s migrations applied", dir)
}
