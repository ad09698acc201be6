package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents the user model stored in the database. Verification,
// password-reset and email-change codes live directly on the row with their
// own expiry timestamps; there is no separate token table.
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"type:varchar(100)"`
	Email    string `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password string `json:"-" gorm:"type:varchar(255)"`
	Role     string `json:"role" gorm:"type:varchar(20);default:'user'"`
	Verified bool   `json:"verified" gorm:"default:false"`

	VerifyCode          string     `json:"-" gorm:"type:varchar(8)"`
	VerifyCodeExpiresAt *time.Time `json:"-"`

	ResetCode          string     `json:"-" gorm:"type:varchar(8)"`
	ResetCodeExpiresAt *time.Time `json:"-"`

	PendingEmail             string     `json:"-" gorm:"type:varchar(100)"`
	EmailChangeCode          string     `json:"-" gorm:"type:varchar(8)"`
	EmailChangeCodeExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
