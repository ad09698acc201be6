package assembler

import (
	"testing"

	"inspection-service/internal/model"
)

func strPtr(s string) *string { return &s }

func photo(id uint, roomKey, path string, moveOut bool) model.Photo {
	return model.Photo{
		ID:       id,
		RoomKey:  &roomKey,
		FilePath: path,
		MoveOut:  moveOut,
	}
}

func TestBuildRoomViewsDeduplicatesByFilePath(t *testing.T) {
	rooms := []model.Room{{RoomKey: "kitchen-1", Name: "Kitchen"}}
	photos := []model.Photo{
		photo(1, "kitchen-1", "a.jpg", false),
		photo(2, "kitchen-1", "a.jpg", false),
		photo(3, "kitchen-1", "b.jpg", false),
	}

	views := BuildRoomViews(rooms, photos, model.ReportTypeMoveIn)
	if len(views) != 1 {
		t.Fatalf("views = %d, want 1", len(views))
	}
	got := views[0].Photos
	if len(got) != 2 {
		t.Fatalf("photos = %d, want 2 after dedupe", len(got))
	}
	// First occurrence wins
	if got[0].ID != 1 {
		t.Errorf("first photo id = %d, want 1", got[0].ID)
	}
	if views[0].PhotoCount != 2 {
		t.Errorf("photo count = %d, want 2", views[0].PhotoCount)
	}
}

func TestBuildRoomViewsFiltersMoveOutForMoveInReports(t *testing.T) {
	rooms := []model.Room{{RoomKey: "bed-1"}}
	photos := []model.Photo{
		photo(1, "bed-1", "in.jpg", false),
		photo(2, "bed-1", "out.jpg", true),
	}

	views := BuildRoomViews(rooms, photos, model.ReportTypeMoveIn)
	if len(views[0].Photos) != 1 {
		t.Fatalf("photos = %d, want 1 (move-out excluded)", len(views[0].Photos))
	}
	if views[0].Photos[0].FilePath != "in.jpg" {
		t.Errorf("kept photo = %q, want in.jpg", views[0].Photos[0].FilePath)
	}
}

func TestBuildRoomViewsKeepsBothPhasesForMoveOutReports(t *testing.T) {
	rooms := []model.Room{{RoomKey: "bed-1"}}
	photos := []model.Photo{
		photo(1, "bed-1", "in.jpg", false),
		photo(2, "bed-1", "out.jpg", true),
	}

	views := BuildRoomViews(rooms, photos, model.ReportTypeMoveOut)
	if len(views[0].Photos) != 2 {
		t.Fatalf("photos = %d, want 2 (both phases kept)", len(views[0].Photos))
	}
	if views[0].PhotoCount != 1 {
		t.Errorf("move-in count = %d, want 1", views[0].PhotoCount)
	}
	if views[0].MoveOutPhotoCount != 1 {
		t.Errorf("move-out count = %d, want 1", views[0].MoveOutPhotoCount)
	}
}

func TestBuildRoomViewsIgnoresOtherRoomsPhotos(t *testing.T) {
	rooms := []model.Room{{RoomKey: "bath-1"}, {RoomKey: "bath-2"}}
	photos := []model.Photo{
		photo(1, "bath-1", "a.jpg", false),
		photo(2, "bath-2", "b.jpg", false),
		{ID: 3, FilePath: "orphan.jpg"}, // no room association
	}

	views := BuildRoomViews(rooms, photos, model.ReportTypeGeneral)
	if len(views) != 2 {
		t.Fatalf("views = %d, want 2", len(views))
	}
	if len(views[0].Photos) != 1 || views[0].Photos[0].FilePath != "a.jpg" {
		t.Errorf("bath-1 photos wrong: %+v", views[0].Photos)
	}
	if len(views[1].Photos) != 1 || views[1].Photos[0].FilePath != "b.jpg" {
		t.Errorf("bath-2 photos wrong: %+v", views[1].Photos)
	}
}

func TestBuildRoomViewsSynthesizesAttentionNote(t *testing.T) {
	rooms := []model.Room{
		{RoomKey: "kitchen-1", Quality: strPtr(model.QualityAttention)},
		{RoomKey: "bed-1", Quality: strPtr(model.QualityGood)},
		{RoomKey: "bath-1", Quality: strPtr(model.QualityAttention), IssueNotes: model.StringList{"cracked tile"}},
	}

	views := BuildRoomViews(rooms, nil, model.ReportTypeMoveIn)

	if len(views[0].IssueNotes) != 1 || views[0].IssueNotes[0] != model.DefaultIssueNote {
		t.Errorf("attention room notes = %v, want synthesized default", views[0].IssueNotes)
	}
	if len(views[1].IssueNotes) != 0 {
		t.Errorf("good room notes = %v, want none", views[1].IssueNotes)
	}
	if len(views[2].IssueNotes) != 1 || views[2].IssueNotes[0] != "cracked tile" {
		t.Errorf("existing notes overwritten: %v", views[2].IssueNotes)
	}
}

func TestBuildRoomViewsEmptyRooms(t *testing.T) {
	views := BuildRoomViews(nil, []model.Photo{photo(1, "x", "a.jpg", false)}, model.ReportTypeMoveIn)
	if len(views) != 0 {
		t.Fatalf("views = %d, want 0", len(views))
	}
}
