package model

import (
	"time"

	"gorm.io/gorm"
)

// Photo represents an uploaded file row. Report association is a single
// nullable foreign key; the legacy report_photos join table survives only
// as a backfill source read once at startup.
type Photo struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	PropertyID *uint   `json:"property_id,omitempty" gorm:"index"`
	ReportID   *uint   `json:"report_id,omitempty" gorm:"index"`
	RoomKey    *string `json:"room_id,omitempty" gorm:"type:varchar(64);index"`
	UploaderID uint    `json:"uploader_id" gorm:"index"`
	MoveOut    bool    `json:"move_out" gorm:"default:false"`

	FilePath string `json:"file_path" gorm:"type:varchar(512);not null"`
	URL      string `json:"url" gorm:"-"`
	Note     string `json:"note" gorm:"type:text"`

	Tags []PhotoTag `json:"tags,omitempty" gorm:"foreignKey:PhotoID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// PhotoTag is one tag annotation on a photo, deduplicated by the composite
// unique index
type PhotoTag struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	PhotoID   uint      `json:"-" gorm:"uniqueIndex:idx_photo_tag,priority:1;not null"`
	Tag       string    `json:"tag" gorm:"type:varchar(64);uniqueIndex:idx_photo_tag,priority:2;not null"`
	CreatedAt time.Time `json:"-"`
}

// ReportPhoto is the legacy many-to-many association between photos and
// reports. It is never written anymore; database.BackfillPhotoReports folds
// its rows into photos.report_id at startup.
type ReportPhoto struct {
	ReportID uint `gorm:"primaryKey"`
	PhotoID  uint `gorm:"primaryKey"`
}
