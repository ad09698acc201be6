// Package assembler composes the nested report view served by the detail
// and public share endpoints: the report row, its property's live rooms,
// the photos grouped per room, and, for move-out reports, the matching
// move-in breakdown for before/after comparison.
package assembler

import (
	"errors"

	"inspection-service/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoomView is one room with its filtered, deduplicated photo set
type RoomView struct {
	model.Room
	Photos []model.Photo `json:"photos"`
}

// ReportView is the composed response for a report detail request. Lease
// fields under Property come from the live property row, not the snapshot,
// since the snapshot may be stale.
type ReportView struct {
	model.Report
	Property   *model.Property `json:"property,omitempty"`
	Rooms      []RoomView      `json:"rooms"`
	MoveInData *ReportView     `json:"move_in_data,omitempty"`
}

// Assemble builds the composed view for a report. It never fails: any error
// while gathering rooms or photos is logged and the bare report row is
// returned instead.
func Assemble(db *gorm.DB, log *zap.Logger, report *model.Report, urlPrefix string) *ReportView {
	view := &ReportView{Report: *report, Rooms: []RoomView{}}

	var property model.Property
	if err := db.First(&property, report.PropertyID).Error; err != nil {
		log.Warn("report property lookup failed",
			zap.Uint("report_id", report.ID),
			zap.Uint("property_id", report.PropertyID),
			zap.Error(err))
	} else {
		view.Property = &property
	}

	rooms, photos, err := loadRoomsAndPhotos(db, report)
	if err != nil {
		log.Warn("report assembly degraded to bare report",
			zap.Uint("report_id", report.ID),
			zap.Error(err))
		return view
	}
	decorateURLs(photos, urlPrefix)
	view.Rooms = BuildRoomViews(rooms, photos, report.Type)

	// Move-out reports carry the latest prior move-in report so clients can
	// render a before/after comparison
	if report.Type == model.ReportTypeMoveOut {
		var moveIn model.Report
		err := db.Where("property_id = ? AND type = ?", report.PropertyID, model.ReportTypeMoveIn).
			Order("created_at DESC").
			First(&moveIn).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// No prior move-in report exists; nothing to compare against
		case err != nil:
			log.Warn("move-in lookup failed", zap.Uint("report_id", report.ID), zap.Error(err))
		default:
			inRooms, inPhotos, err := loadRoomsAndPhotos(db, &moveIn)
			if err != nil {
				log.Warn("move-in assembly failed", zap.Uint("move_in_report_id", moveIn.ID), zap.Error(err))
				view.MoveInData = &ReportView{Report: moveIn, Rooms: []RoomView{}}
			} else {
				decorateURLs(inPhotos, urlPrefix)
				view.MoveInData = &ReportView{
					Report: moveIn,
					Rooms:  BuildRoomViews(inRooms, inPhotos, moveIn.Type),
				}
			}
		}
	}

	return view
}

func loadRoomsAndPhotos(db *gorm.DB, report *model.Report) ([]model.Room, []model.Photo, error) {
	var rooms []model.Room
	if err := db.Where("property_id = ?", report.PropertyID).Order("id").Find(&rooms).Error; err != nil {
		return nil, nil, err
	}

	var photos []model.Photo
	if err := db.Preload("Tags").Where("report_id = ?", report.ID).Order("id").Find(&photos).Error; err != nil {
		return nil, nil, err
	}

	return rooms, photos, nil
}

func decorateURLs(photos []model.Photo, urlPrefix string) {
	for i := range photos {
		photos[i].URL = urlPrefix + "/" + photos[i].FilePath
	}
}

// BuildRoomViews groups a report's photos under its rooms. Per room:
// photos match by room key; move-out reports keep photos of both phases
// (the move_out flag on each photo tells the client which side it belongs
// to), all other report types drop move-out photos; duplicates by file path
// collapse to the first occurrence. Photo counts are recomputed from the
// included set, and an "attention" room with no recorded issue notes gets
// one synthesized note.
func BuildRoomViews(rooms []model.Room, photos []model.Photo, reportType string) []RoomView {
	views := make([]RoomView, 0, len(rooms))
	for _, room := range rooms {
		included := make([]model.Photo, 0)
		seen := make(map[string]bool)
		moveOutCount := 0

		for _, photo := range photos {
			if photo.RoomKey == nil || *photo.RoomKey != room.RoomKey {
				continue
			}
			if reportType != model.ReportTypeMoveOut && photo.MoveOut {
				continue
			}
			if seen[photo.FilePath] {
				continue
			}
			seen[photo.FilePath] = true
			included = append(included, photo)
			if photo.MoveOut {
				moveOutCount++
			}
		}

		room.IssueNotes = room.EffectiveIssueNotes()
		room.PhotoCount = len(included) - moveOutCount
		room.MoveOutPhotoCount = moveOutCount

		views = append(views, RoomView{Room: room, Photos: included})
	}
	return views
}
