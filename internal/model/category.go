package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a storefront category. Records with a nil ParentID are main
// categories; records with a ParentID are subcategories of that main category.
type Category struct {
	ID        uuid.UUID  `json:"_id" gorm:"type:char(36);primaryKey"`
	Name      string     `json:"name" gorm:"size:255;not null;index"`
	Image     string     `json:"categoryImage,omitempty" gorm:"size:1024"`
	ParentID  *uuid.UUID `json:"parent_id" gorm:"type:char(36);index"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Relations
	Parent *Category `json:"parent,omitempty" gorm:"foreignKey:ParentID"`

	// Populated by the tree view only.
	Children []Category `json:"children,omitempty" gorm:"-"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsMain reports whether the category has no parent.
func (c *Category) IsMain() bool {
	return c.ParentID == nil
}
