package database

import (
	"github.com/Baaaki/buy-sell-store/internal/config"
	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}

	logger.Log.Info("Database connected successfully")
}

// Migrate creates or updates the users and products tables.
func Migrate() {
	if err := AutoMigrate(DB); err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}

	logger.Log.Info("Database migration completed")
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Product{})
}
