package testutil

import (
	"context"
	"testing"

	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/internal/utils"
	"gorm.io/gorm"
)

// DefaultPassword is the plain-text password of every fixture user.
const DefaultPassword = "Test123456"

// CreateTestUser inserts a user with a hashed DefaultPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, login, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := utils.HashPassword(DefaultPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Login:        login,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.WithContext(context.Background()).Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user %s: %v", login, err)
	}
	return user
}

// CreateTestProduct inserts an active, unpriced product supplied by supplier.
func CreateTestProduct(t *testing.T, db *gorm.DB, supplier *models.User, name, category string, supplierCost int64) *models.Product {
	t.Helper()

	supplierID := supplier.ID
	product := &models.Product{
		Name:         name,
		Description:  name + " for testing",
		Category:     category,
		SupplierCost: supplierCost,
		SupplierID:   &supplierID,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to create test product %s: %v", name, err)
	}
	return product
}
