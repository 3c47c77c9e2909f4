package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleSupplier Role = "SUPPLIER"
	RoleSeller   Role = "SELLER"
	RoleBuyer    Role = "BUYER"
)

// Valid reports whether r is one of the three marketplace roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSupplier, RoleSeller, RoleBuyer:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Login        string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"login"`
	Email        string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	BirthDate    *time.Time `json:"birthDate,omitempty"`
	City         string     `gorm:"type:varchar(100)" json:"city,omitempty"`
	Description  string     `gorm:"type:text" json:"description,omitempty"`
	Role         Role       `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns the primary key on the application side so the
// schema works the same on Postgres and SQLite.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
