package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account represents a registered user of the listings site.
type Account struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Confirmed    bool      `json:"confirmed" gorm:"not null;default:false"`
	// Token is set while an email confirmation or password reset is pending.
	Token     *string   `json:"-" gorm:"size:64;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// HasPendingToken reports whether the account holds an unconsumed token.
func (a *Account) HasPendingToken() bool {
	return a.Token != nil && *a.Token != ""
}

// PendingToken returns the outstanding token or an empty string.
func (a *Account) PendingToken() string {
	if a.Token == nil {
		return ""
	}
	return *a.Token
}
