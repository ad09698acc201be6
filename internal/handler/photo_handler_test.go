package handler

import (
	"testing"

	"inspection-service/internal/model"
)

func uintPtr(v uint) *uint { return &v }

func TestPhotoWriteAllowed(t *testing.T) {
	owner := &model.Property{ID: 5, OwnerID: 1}

	tests := []struct {
		name   string
		photo  model.Photo
		owner  *model.Property
		userID uint
		want   bool
	}{
		{"property owner", model.Photo{PropertyID: uintPtr(5)}, owner, 1, true},
		{"not the property owner", model.Photo{PropertyID: uintPtr(5)}, owner, 2, false},
		{"property row missing", model.Photo{PropertyID: uintPtr(5), UploaderID: 2}, nil, 2, false},
		{"property-less photo by its uploader", model.Photo{UploaderID: 3}, nil, 3, true},
		{"property-less photo by another user", model.Photo{UploaderID: 3}, nil, 4, false},
		{"legacy photo without uploader", model.Photo{}, nil, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := photoWriteAllowed(&tt.photo, tt.owner, tt.userID); got != tt.want {
				t.Errorf("photoWriteAllowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReportWriteAllowed(t *testing.T) {
	report := model.Report{ID: 9, CreatorID: 7}

	if !reportWriteAllowed(&report, 7) {
		t.Error("creator denied photo attachment")
	}
	if reportWriteAllowed(&report, 8) {
		t.Error("non-creator allowed to attach photos to the report")
	}
}
