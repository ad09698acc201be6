package model

import (
	"time"

	"gorm.io/gorm"
)

// Report types
const (
	ReportTypeMoveIn  = "move_in"
	ReportTypeMoveOut = "move_out"
	ReportTypeGeneral = "general"
)

// Approval statuses. A nil ApprovalStatus means pending.
const (
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Report represents an inspection report. RoomsSnapshot is an immutable
// audit copy of the property's rooms taken at creation time; live reads
// always come from the rooms table.
type Report struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	PropertyID  uint   `json:"property_id" gorm:"index;not null"`
	CreatorID   uint   `json:"creator_id" gorm:"index;not null"`
	Type        string `json:"type" gorm:"type:varchar(20);default:'general'"`
	ShareToken  string `json:"share_token" gorm:"type:varchar(36);uniqueIndex"`
	Title       string `json:"title" gorm:"type:varchar(200)"`
	Description string `json:"description" gorm:"type:text"`

	RoomsSnapshot string `json:"rooms_snapshot,omitempty" gorm:"type:jsonb"`

	ApprovalStatus  *string    `json:"approval_status" gorm:"type:varchar(20)"`
	ApprovalMessage string     `json:"approval_message,omitempty" gorm:"type:text"`
	StatusChangedAt *time.Time `json:"status_changed_at,omitempty"`

	Archived      bool   `json:"archived" gorm:"default:false"`
	ArchiveReason string `json:"archive_reason,omitempty" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// ValidReportType reports whether t is one of the known report types
func ValidReportType(t string) bool {
	switch t {
	case ReportTypeMoveIn, ReportTypeMoveOut, ReportTypeGeneral:
		return true
	}
	return false
}
