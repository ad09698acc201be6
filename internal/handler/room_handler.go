package handler

import (
	"net/http"
	"time"

	"inspection-service/internal/model"
	"inspection-service/pkg/cache"
	"inspection-service/pkg/database"
	"inspection-service/pkg/logger"
	"inspection-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

// RoomRequest is one room in a bulk save payload
type RoomRequest struct {
	RoomKey          string     `json:"room_id"`
	Name             string     `json:"name"`
	Type             string     `json:"type"`
	Quality          *string    `json:"quality"`
	IssueNotes       []string   `json:"issue_notes"`
	MoveInCompleted  bool       `json:"move_in_completed"`
	MoveOutNotes     []string   `json:"move_out_notes"`
	MoveOutCompleted bool       `json:"move_out_completed"`
	MoveOutDate      *time.Time `json:"move_out_date"`
}

// RoomCounts carries the recomputed photo counts for one room
type RoomCounts struct {
	MoveIn  int `json:"move_in"`
	MoveOut int `json:"move_out"`
}

func validRoomType(t string) bool {
	switch t {
	case model.RoomTypeLiving, model.RoomTypeBedroom, model.RoomTypeKitchen,
		model.RoomTypeBathroom, model.RoomTypeOther:
		return true
	}
	return false
}

// ownedProperty loads a property and checks the caller owns it. Returns nil
// after writing the error response when the check fails.
func ownedProperty(c echo.Context, id string) *model.Property {
	userID := currentUserID(c)

	var property model.Property
	if result := database.GetDB().First(&property, id); result.Error != nil {
		c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
		return nil
	}
	if property.OwnerID != userID {
		c.JSON(http.StatusForbidden, echo.Map{"error": "not the property owner"})
		return nil
	}
	return &property
}

// SaveRooms upserts a property's room list. Each room is keyed by its
// client-generated room_id; the composite unique index turns concurrent
// saves of the same key into updates. Per-room failures are collected into
// the response instead of rolling back the batch.
func SaveRooms(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("room", "update")

	property := ownedProperty(c, c.Param("id"))
	if property == nil {
		return nil
	}

	var req struct {
		Rooms []RoomRequest `json:"rooms"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	saved := make([]string, 0, len(req.Rooms))
	failed := make([]echo.Map, 0)

	defer prometheus.TrackDBOperation("update")(time.Now())
	for _, r := range req.Rooms {
		if r.RoomKey == "" {
			failed = append(failed, echo.Map{"room_id": r.RoomKey, "reason": "room_id is required"})
			continue
		}
		if r.Type != "" && !validRoomType(r.Type) {
			failed = append(failed, echo.Map{"room_id": r.RoomKey, "reason": "unknown room type"})
			continue
		}
		if r.Quality != nil && *r.Quality != model.QualityGood && *r.Quality != model.QualityAttention {
			failed = append(failed, echo.Map{"room_id": r.RoomKey, "reason": "unknown quality value"})
			continue
		}

		roomType := r.Type
		if roomType == "" {
			roomType = model.RoomTypeOther
		}

		room := model.Room{
			PropertyID:       property.ID,
			RoomKey:          r.RoomKey,
			Name:             r.Name,
			Type:             roomType,
			Quality:          r.Quality,
			IssueNotes:       model.StringList(r.IssueNotes),
			MoveInCompleted:  r.MoveInCompleted,
			MoveOutNotes:     model.StringList(r.MoveOutNotes),
			MoveOutCompleted: r.MoveOutCompleted,
			MoveOutDate:      r.MoveOutDate,
		}

		err := database.GetDB().Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "property_id"}, {Name: "room_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "type", "quality", "issue_notes", "move_in_completed",
				"move_out_notes", "move_out_completed", "move_out_date", "updated_at",
			}),
		}).Create(&room).Error
		if err != nil {
			log.Warn("Room save failed", zap.String("room_id", r.RoomKey), zap.Error(err))
			failed = append(failed, echo.Map{"room_id": r.RoomKey, "reason": "database error"})
			continue
		}
		saved = append(saved, r.RoomKey)
	}

	result := echo.Map{"saved": saved, "failed": failed}

	// Success when at least one room saved, or the input was empty
	if len(req.Rooms) > 0 && len(saved) == 0 {
		log.Error("All room saves failed", zap.Uint("property_id", property.ID), zap.Int("count", len(req.Rooms)))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":  "no rooms could be saved",
			"result": result,
		})
	}

	log.Info("Rooms saved",
		zap.Uint("property_id", property.ID),
		zap.Int("saved", len(saved)),
		zap.Int("failed", len(failed)))
	return c.JSON(http.StatusOK, result)
}

// ListRooms returns the property's rooms with photo counts recomputed from
// the photo table, fronted by a short-TTL cache
func ListRooms(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("room", "read")

	property := ownedProperty(c, c.Param("id"))
	if property == nil {
		return nil
	}

	var rooms []model.Room
	defer prometheus.TrackDBOperation("query")(time.Now())
	if err := database.GetDB().Where("property_id = ?", property.ID).Order("id").Find(&rooms).Error; err != nil {
		log.Error("Failed to list rooms", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve rooms"})
	}

	counts := roomPhotoCounts(c, log, property.ID)
	for i := range rooms {
		rooms[i].IssueNotes = rooms[i].EffectiveIssueNotes()
		if rc, ok := counts[rooms[i].RoomKey]; ok {
			rooms[i].PhotoCount = rc.MoveIn
			rooms[i].MoveOutPhotoCount = rc.MoveOut
		}
	}

	return c.JSON(http.StatusOK, rooms)
}

// roomPhotoCounts loads per-room photo counts for a property, hitting redis
// first. A dead cache degrades to the database query.
func roomPhotoCounts(c echo.Context, log *zap.Logger, propertyID uint) map[string]RoomCounts {
	ctx := c.Request().Context()
	key := cache.RoomCountsKey(propertyID)

	counts := map[string]RoomCounts{}
	hit, err := cache.Get(ctx, key, &counts)
	if err != nil {
		log.Warn("Count cache read failed", zap.Error(err))
		prometheus.RecordCache("error")
	} else if hit {
		prometheus.RecordCache("hit")
		return counts
	} else {
		prometheus.RecordCache("miss")
	}

	var rows []struct {
		RoomKey string
		MoveOut bool
		N       int
	}
	err = database.GetDB().Model(&model.Photo{}).
		Select("room_key, move_out, count(*) as n").
		Where("property_id = ? AND room_key IS NOT NULL", propertyID).
		Group("room_key, move_out").
		Scan(&rows).Error
	if err != nil {
		log.Warn("Photo count query failed", zap.Uint("property_id", propertyID), zap.Error(err))
		return counts
	}

	counts = map[string]RoomCounts{}
	for _, row := range rows {
		rc := counts[row.RoomKey]
		if row.MoveOut {
			rc.MoveOut = row.N
		} else {
			rc.MoveIn = row.N
		}
		counts[row.RoomKey] = rc
	}

	if err := cache.Set(ctx, key, counts, cacheCountTTL); err != nil {
		log.Warn("Count cache write failed", zap.Error(err))
	}
	return counts
}

// DeleteRoom removes one room by its client-generated room id
func DeleteRoom(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("room", "delete")

	property := ownedProperty(c, c.Param("id"))
	if property == nil {
		return nil
	}

	roomKey := c.Param("roomId")
	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Where("property_id = ? AND room_key = ?", property.ID, roomKey).Delete(&model.Room{})
	if result.Error != nil {
		log.Error("Failed to delete room", zap.String("room_id", roomKey), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete room"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	}

	log.Info("Room deleted", zap.Uint("property_id", property.ID), zap.String("room_id", roomKey))
	return c.JSON(http.StatusOK, echo.Map{"message": "room deleted"})
}
