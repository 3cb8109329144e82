// Command seed creates the initial helpdesk accounts. Users are never
// created through the API, only here.
package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/helpdeskpro/helpdesk-service/internal/auth"
	"github.com/helpdeskpro/helpdesk-service/internal/config"
	"github.com/helpdeskpro/helpdesk-service/internal/domain"
	"github.com/helpdeskpro/helpdesk-service/internal/observability"
	"github.com/helpdeskpro/helpdesk-service/internal/persistence"
	"github.com/helpdeskpro/helpdesk-service/internal/repository"
)

func main() {
	password := flag.String("password", "password123", "password for the seeded accounts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	hashed, err := auth.HashPassword(*password, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("failed to hash password", zap.Error(err))
	}

	users := repository.NewUserRepository(pg.PoolHandle())
	seeds := []domain.User{
		{Name: "Client Test", Email: "client@test.com", PasswordHash: hashed, Role: domain.RoleClient},
		{Name: "Agent Test", Email: "agent@test.com", PasswordHash: hashed, Role: domain.RoleAgent},
	}

	for i := range seeds {
		if err := users.Create(ctx, &seeds[i]); err != nil {
			logger.Warn("failed to seed user",
				zap.String("email", seeds[i].Email),
				zap.Error(err))
			continue
		}
		logger.Info("seeded user",
			zap.String("id", seeds[i].ID),
			zap.String("email", seeds[i].Email),
			zap.String("role", string(seeds[i].Role)))
	}
}
