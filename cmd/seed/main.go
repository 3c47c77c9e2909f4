package main

import (
	"context"
	"log"
	"os"

	"github.com/Baaaki/buy-sell-store/internal/config"
	"github.com/Baaaki/buy-sell-store/internal/database"
	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/internal/repository"
	"github.com/Baaaki/buy-sell-store/internal/utils"
	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"go.uber.org/zap"
)

// demoAccounts are created once per role so the marketplace can be tried
// end to end right after deployment.
var demoAccounts = []struct {
	login string
	email string
	role  models.Role
}{
	{"supplier", "supplier@example.com", models.RoleSupplier},
	{"seller", "seller@example.com", models.RoleSeller},
	{"buyer", "buyer@example.com", models.RoleBuyer},
}

func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		logger.Log.Fatal("Missing environment variable: SEED_PASSWORD")
	}

	database.Connect(cfg)
	database.Migrate()

	ctx := context.Background()
	users := repository.NewUserRepository(database.DB)

	hash, err := utils.HashPassword(password)
	if err != nil {
		logger.Log.Fatal("Failed to hash password", zap.Error(err))
	}

	for _, acc := range demoAccounts {
		existing, err := users.GetUserByLogin(ctx, acc.login)
		if err != nil {
			logger.Log.Fatal("Failed to look up user", zap.String("login", acc.login), zap.Error(err))
		}
		if existing != nil {
			logger.Log.Info("Demo user already exists", zap.String("login", acc.login))
			continue
		}

		user := &models.User{
			Login:        acc.login,
			Email:        acc.email,
			PasswordHash: hash,
			Role:         acc.role,
		}
		if err := users.CreateUser(ctx, user); err != nil {
			logger.Log.Fatal("Failed to create demo user", zap.String("login", acc.login), zap.Error(err))
		}

		logger.Log.Info("Demo user created",
			zap.String("login", user.Login),
			zap.String("role", string(user.Role)),
		)
	}
}
