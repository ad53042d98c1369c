package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a storefront customer or administrator. Accounts created during
// guest checkout carry IsGuestCreated and must change their generated
// password on first sign-in.
type User struct {
	ID                 uuid.UUID  `json:"_id" gorm:"type:char(36);primaryKey"`
	Name               string     `json:"name" gorm:"size:255;not null"`
	Email              string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash       string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	IsVerified         bool       `json:"isVerified" gorm:"default:false"`
	IsAdmin            bool       `json:"isAdmin" gorm:"default:false;index"`
	IsGuestCreated     bool       `json:"isGuestCreated" gorm:"default:false"`
	MustChangePassword bool       `json:"mustChangePassword" gorm:"default:false"`
	PasswordChangedAt  *time.Time `json:"lastPasswordChange,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserSummary is the reduced projection returned by checkout.
type UserSummary struct {
	ID        uuid.UUID `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsNewUser bool      `json:"isNewUser"`
}

// Summary projects the user for checkout responses.
func (u *User) Summary(isNew bool) UserSummary {
	return UserSummary{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsNewUser: isNew,
	}
}
