package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx runs fn inside a single transaction. The repository handed to fn
// is bound to that transaction.
func (r *ProductRepository) WithTx(ctx context.Context, fn func(tx *ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ProductRepository{db: tx})
	})
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// LockProductByID reads the row with SELECT ... FOR UPDATE. Only meaningful
// inside WithTx; SQLite ignores the locking clause.
func (r *ProductRepository) LockProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *ProductRepository) get(db *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := db.Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListActiveProducts returns every non-archived product, newest first.
func (r *ProductRepository) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("archived = ?", false).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

// SetArchived flips the archived flag only if it currently holds the
// opposite value. Returns false when the row was not in that state.
func (r *ProductRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND archived = ?", id, !archived).
		Update("archived", archived)
	return res.RowsAffected == 1, res.Error
}

// AssignSeller replaces the seller of a product that has not been bought.
func (r *ProductRepository) AssignSeller(ctx context.Context, id, sellerID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND buyer_id IS NULL", id).
		Update("seller_id", sellerID)
	return res.RowsAffected == 1, res.Error
}

// MarkBought sets the buyer only while the product is active, has a seller
// and has no buyer yet.
func (r *ProductRepository) MarkBought(ctx context.Context, id, buyerID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND archived = ? AND seller_id IS NOT NULL AND buyer_id IS NULL", id, false).
		Updates(map[string]any{
			"buyer_id":  buyerID,
			"bought_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

// UpdateAsSeller overwrites description and seller cost, guarded by the
// assigned seller. Bought products are left untouched.
func (r *ProductRepository) UpdateAsSeller(ctx context.Context, id, sellerID uuid.UUID, description string, sellerCost int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND seller_id = ? AND buyer_id IS NULL", id, sellerID).
		Updates(map[string]any{
			"description": description,
			"seller_cost": sellerCost,
		})
	return res.RowsAffected == 1, res.Error
}

// UpdateAsSupplier applies the given column changes, guarded by the
// product's supplier.
func (r *ProductRepository) UpdateAsSupplier(ctx context.Context, id, supplierID uuid.UUID, changes map[string]any) (bool, error) {
	if len(changes) == 0 {
		return true, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND supplier_id = ?", id, supplierID).
		Updates(changes)
	return res.RowsAffected == 1, res.Error
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// IncomeFilter narrows the product set an income report is computed over.
// Zero values mean "no constraint".
type IncomeFilter struct {
	SellerID   *uuid.UUID
	SupplierID *uuid.UUID
	Category   string
	From       time.Time
	To         time.Time
}

// FindForIncome returns products matching the filter. A non-zero period
// restricts by purchase time, so unbought products drop out of it.
func (r *ProductRepository) FindForIncome(ctx context.Context, f IncomeFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	}
	if f.SupplierID != nil {
		q = q.Where("supplier_id = ?", *f.SupplierID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if !f.From.IsZero() {
		q = q.Where("bought_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("bought_at < ?", f.To)
	}

	var products []models.Product
	err := q.Order("created_at ASC").Find(&products).Error
	return products, err
}
