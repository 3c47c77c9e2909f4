package service_test

import (
	"testing"

	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pricedProduct() *models.Product {
	return &models.Product{
		ID:           uuid.New(),
		Name:         "Chair",
		Description:  "Wooden chair",
		Category:     "Furniture",
		SupplierCost: 100,
		SellerCost:   150,
	}
}

func TestViewProduct(t *testing.T) {
	p := pricedProduct()

	tests := []struct {
		role         models.Role
		supplierCost *int64
		sellerCost   *int64
		finalCost    *int64
	}{
		{role: models.RoleSupplier, supplierCost: ptr(100)},
		{role: models.RoleSeller, sellerCost: ptr(150)},
		{role: models.RoleBuyer, finalCost: ptr(150)},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			v, err := service.ViewProduct(p, tt.role)
			require.NoError(t, err)

			assert.Equal(t, p.ID, v.ID)
			assert.Equal(t, "Chair", v.Name)
			assert.Equal(t, "Furniture", v.Category)
			assert.Equal(t, tt.supplierCost, v.SupplierCost)
			assert.Equal(t, tt.sellerCost, v.SellerCost)
			assert.Equal(t, tt.finalCost, v.FinalCost)
		})
	}
}

func TestViewProductInvalidRole(t *testing.T) {
	_, err := service.ViewProduct(pricedProduct(), models.Role("ADMIN"))
	assert.ErrorIs(t, err, service.ErrInvalidRole)
}

func TestViewProductsKeepsOrder(t *testing.T) {
	a, b := pricedProduct(), pricedProduct()
	b.Name = "Table"

	views, err := service.ViewProducts([]models.Product{*a, *b}, models.RoleBuyer)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Chair", views[0].Name)
	assert.Equal(t, "Table", views[1].Name)
}

func ptr(v int64) *int64 { return &v }
