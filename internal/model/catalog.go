package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Brand is a manufacturer whose products are sold in the store.
type Brand struct {
	ID        uuid.UUID `json:"_id" gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:255;not null"`
	Logo      string    `json:"logo,omitempty" gorm:"size:1024"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Product is a catalog item. It always sits in a main category and may be
// narrowed to one of that category's subcategories.
type Product struct {
	ID            uuid.UUID       `json:"_id" gorm:"type:char(36);primaryKey"`
	Name          string          `json:"name" gorm:"size:255;not null;index"`
	Description   string          `json:"description" gorm:"type:text"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock         int             `json:"stock" gorm:"not null;default:0"`
	Image         string          `json:"image,omitempty" gorm:"size:1024"`
	CategoryID    uuid.UUID       `json:"category" gorm:"type:char(36);not null;index"`
	SubcategoryID *uuid.UUID      `json:"subcategory,omitempty" gorm:"type:char(36);index"`
	BrandID       *uuid.UUID      `json:"brand,omitempty" gorm:"type:char(36);index"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
