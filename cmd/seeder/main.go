// cmd/seeder/main.go
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/app"
	"github.com/unclebandit/campaign-mailer/internal/config"
	"github.com/unclebandit/campaign-mailer/internal/db"
	"github.com/unclebandit/campaign-mailer/internal/logger"
	"github.com/unclebandit/campaign-mailer/internal/repository"
	"github.com/unclebandit/campaign-mailer/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	conn, err := db.Open(cfg.Database.Postgres, zl)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(conn); err != nil {
		zl.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()

	contacts, err := seedContacts(ctx, repository.NewContactRepository(conn))
	if err != nil {
		zl.Fatal("Failed to seed contacts", zap.Error(err))
	}

	templates, err := service.NewTemplateService(repository.NewTemplateRepository(conn), zl).SeedTemplates(ctx)
	if err != nil {
		zl.Fatal("Failed to seed templates", zap.Error(err))
	}

	zl.Info("Seeding completed successfully", zap.Int("contacts", contacts), zap.Int("templates", templates))
}

// seedContacts inserts the demo contacts into an empty contact table.
func seedContacts(ctx context.Context, repo repository.ContactRepositoryInterface) (int, error) {
	existing, err := repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	seeded := 0
	for _, c := range app.DemoContacts() {
		c := c
		if err := repo.Create(ctx, &c); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}
