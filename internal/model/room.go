package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Room types
const (
	RoomTypeLiving   = "living"
	RoomTypeBedroom  = "bedroom"
	RoomTypeKitchen  = "kitchen"
	RoomTypeBathroom = "bathroom"
	RoomTypeOther    = "other"
)

// Room quality assessments
const (
	QualityGood      = "good"
	QualityAttention = "attention"
)

// DefaultIssueNote is synthesized on reads when a room is marked
// "attention" but carries no notes
const DefaultIssueNote = "Needs attention"

// StringList stores a JSON array of strings in a jsonb column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// Room represents a per-property room. RoomKey is the client-generated
// identifier; the composite unique index makes the bulk-save upsert safe
// under concurrent requests. Photo counts are not stored: they are
// recomputed from the photo table on the read path.
type Room struct {
	ID         uint    `json:"-" gorm:"primaryKey"`
	PropertyID uint    `json:"property_id" gorm:"uniqueIndex:idx_property_room,priority:1;not null"`
	RoomKey    string  `json:"room_id" gorm:"type:varchar(64);uniqueIndex:idx_property_room,priority:2;not null"`
	Name       string  `json:"name" gorm:"type:varchar(100)"`
	Type       string  `json:"type" gorm:"type:varchar(20);default:'other'"`
	Quality    *string `json:"quality,omitempty" gorm:"type:varchar(20)"`

	IssueNotes      StringList `json:"issue_notes" gorm:"type:jsonb"`
	MoveInCompleted bool       `json:"move_in_completed" gorm:"default:false"`

	MoveOutNotes     StringList `json:"move_out_notes" gorm:"type:jsonb"`
	MoveOutCompleted bool       `json:"move_out_completed" gorm:"default:false"`
	MoveOutDate      *time.Time `json:"move_out_date,omitempty"`

	// Recomputed per read, never persisted
	PhotoCount        int `json:"photo_count" gorm:"-"`
	MoveOutPhotoCount int `json:"move_out_photo_count" gorm:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// EffectiveIssueNotes returns the room's issue notes, injecting the default
// note when the room needs attention but none were recorded
func (r *Room) EffectiveIssueNotes() StringList {
	if r.Quality != nil && *r.Quality == QualityAttention && len(r.IssueNotes) == 0 {
		return StringList{DefaultIssueNote}
	}
	return r.IssueNotes
}
