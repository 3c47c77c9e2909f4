package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry. Supplier, seller and buyer are kept as plain
// user IDs; a product never owns the users it refers to.
type Product struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:varchar(30);not null"`
	Description  string    `gorm:"type:text;not null"`
	Category     string    `gorm:"type:varchar(100);not null;index"`
	SupplierCost int64     `gorm:"not null"`
	SellerCost   int64     `gorm:"not null;default:0"` // 0 until a seller prices it
	Archived     bool      `gorm:"not null;default:false;index"`

	SupplierID *uuid.UUID `gorm:"type:uuid;index"`
	SellerID   *uuid.UUID `gorm:"type:uuid;index"`
	BuyerID    *uuid.UUID `gorm:"type:uuid;index"`
	BoughtAt   *time.Time `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Bought reports whether a buyer has been assigned.
func (p *Product) Bought() bool {
	return p.BuyerID != nil
}

// Margin is the seller's income for this product.
func (p *Product) Margin() int64 {
	return p.SellerCost - p.SupplierCost
}
