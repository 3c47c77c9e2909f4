package service

import (
	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/google/uuid"
)

// ProductView is what a viewer of a given role may see of a product.
// Exactly one of the cost fields is set, chosen by Role.
type ProductView struct {
	Role        models.Role `json:"-"`
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`

	SupplierCost *int64 `json:"supplierCost,omitempty"`
	SellerCost   *int64 `json:"sellerCost,omitempty"`
	FinalCost    *int64 `json:"finalCost,omitempty"`
}

// ViewProduct selects the fields visible to role.
func ViewProduct(p *models.Product, role models.Role) (ProductView, error) {
	v := ProductView{
		Role:        role,
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
	}

	switch role {
	case models.RoleSupplier:
		cost := p.SupplierCost
		v.SupplierCost = &cost
	case models.RoleSeller:
		cost := p.SellerCost
		v.SellerCost = &cost
	case models.RoleBuyer:
		cost := p.SellerCost
		v.FinalCost = &cost
	default:
		return ProductView{}, newError(ErrInvalidRole, "invalid role %q", role)
	}

	return v, nil
}

func ViewProducts(products []models.Product, role models.Role) ([]ProductView, error) {
	views := make([]ProductView, 0, len(products))
	for i := range products {
		v, err := ViewProduct(&products[i], role)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
