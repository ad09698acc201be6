package model

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user can have at a property
const (
	PropertyRoleLandlord = "landlord"
	PropertyRoleRenter   = "renter"
	PropertyRoleOther    = "other"
)

// Property represents a tracked rental unit. The unique index on OwnerID
// enforces the one-property-per-user rule at the database level; handlers
// treat the constraint violation as the duplicate signal.
type Property struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	OwnerID        uint   `json:"owner_id" gorm:"uniqueIndex;not null"`
	Address        string `json:"address" gorm:"type:text"`
	UnitNumber     string `json:"unit_number" gorm:"type:varchar(50)"`
	Description    string `json:"description" gorm:"type:text"`
	RoleAtProperty string `json:"role_at_property" gorm:"type:varchar(20);default:'renter'"`

	Deposit     *float64   `json:"deposit,omitempty"`
	LeaseStart  *time.Time `json:"lease_start,omitempty"`
	LeaseEnd    *time.Time `json:"lease_end,omitempty"`
	LeaseMonths *int       `json:"lease_months,omitempty"`

	LandlordName  string `json:"landlord_name" gorm:"type:varchar(100)"`
	LandlordEmail string `json:"landlord_email" gorm:"type:varchar(100)"`
	LandlordPhone string `json:"landlord_phone" gorm:"type:varchar(40)"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
