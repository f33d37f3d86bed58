package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	UserStatusPending  = "pending"
	UserStatusApproved = "approved"
	UserStatusRejected = "rejected"
)

// PlatformUser is a local snapshot of user data needed for project and bounty
// work. Authentication lives in the identity service; this table is populated
// by the user sync worker and only carries what listings and exports need.
type PlatformUser struct {
	ID               string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID   string `gorm:"uniqueIndex;not null" json:"external_user_id"` // identity service UUID
	Name             string `gorm:"index;not null" json:"name"`
	Email            string `json:"email,omitempty"`
	TelegramUsername string `json:"telegram_username,omitempty"`
	TwitterUsername  string `json:"twitter_username,omitempty"`
	WalletAddress    string `json:"wallet_address,omitempty"`
	Status           string `gorm:"default:'pending';index" json:"status"` // pending | approved | rejected

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ValidUserStatus reports whether s is a reviewable account state.
func ValidUserStatus(s string) bool {
	switch s {
	case UserStatusPending, UserStatusApproved, UserStatusRejected:
		return true
	}
	return false
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
