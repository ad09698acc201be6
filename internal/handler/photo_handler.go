package handler

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"inspection-service/internal/model"
	"inspection-service/pkg/cache"
	"inspection-service/pkg/database"
	"inspection-service/pkg/logger"
	"inspection-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".pdf": true, ".doc": true, ".docx": true,
}

func photoURL(p *model.Photo) {
	p.URL = uploadURLPrefix + "/" + p.FilePath
}

func decoratePhotoURLs(photos []model.Photo) {
	for i := range photos {
		photoURL(&photos[i])
	}
}

// invalidateCounts drops the cached photo counts for a property after a
// photo write. Best-effort: a dead cache only means a stale count for one TTL.
func invalidateCounts(c echo.Context, log *zap.Logger, propertyID *uint) {
	if propertyID == nil {
		return
	}
	if err := cache.Delete(c.Request().Context(), cache.RoomCountsKey(*propertyID)); err != nil {
		log.Warn("Count cache invalidation failed", zap.Uint("property_id", *propertyID), zap.Error(err))
	}
}

// UploadPhoto accepts a multipart upload and creates the photo row. The file
// is stored under a randomized name so concurrent uploads never collide.
func UploadPhoto(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	prometheus.RecordEntityOp("photo", "create")

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file field is required"})
	}
	if uploadMaxBytes > 0 && file.Size > uploadMaxBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file too large"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported file type"})
	}

	photo := model.Photo{
		UploaderID: userID,
		MoveOut:    c.FormValue("move_out") == "true",
		Note:       c.FormValue("note"),
	}

	if v := c.FormValue("property_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property_id"})
		}
		propertyID := uint(id)

		var property model.Property
		if result := database.GetDB().First(&property, propertyID); result.Error != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
		}
		if property.OwnerID != userID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not the property owner"})
		}
		photo.PropertyID = &propertyID
	}

	if v := c.FormValue("report_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid report_id"})
		}
		reportID := uint(id)

		// Only the report creator may attach photos to it, the same rule
		// LinkPhotosToReport enforces
		var report model.Report
		if result := database.GetDB().First(&report, reportID); result.Error != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
		}
		if !reportWriteAllowed(&report, userID) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not the report creator"})
		}
		photo.ReportID = &reportID
	}

	if v := c.FormValue("room_id"); v != "" {
		roomKey := v
		photo.RoomKey = &roomKey
	}

	src, err := file.Open()
	if err != nil {
		log.Error("Failed to open upload", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	defer src.Close()

	name := uuid.New().String() + ext
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Error("Failed to create upload dir", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	dst, err := os.Create(filepath.Join(uploadDir, name))
	if err != nil {
		log.Error("Failed to create upload file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		log.Error("Failed to write upload file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	photo.FilePath = name

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&photo).Error; err != nil {
		log.Error("Failed to create photo row", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	// Tags are best-effort bookkeeping: failures are reported in the
	// response but never fail the upload
	tagResult := addTags(log, photo.ID, splitTags(c.FormValue("tags")))

	invalidateCounts(c, log, photo.PropertyID)
	photoURL(&photo)

	log.Info("Photo uploaded",
		zap.Uint("photo_id", photo.ID),
		zap.String("file", name),
		zap.Bool("move_out", photo.MoveOut))
	return c.JSON(http.StatusCreated, echo.Map{"photo": photo, "tags": tagResult})
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// addTags inserts tag rows, deduplicated by the unique index. Returns the
// explicit per-tag outcome.
func addTags(log *zap.Logger, photoID uint, tags []string) echo.Map {
	saved := make([]string, 0, len(tags))
	failed := make([]string, 0)
	for _, tag := range tags {
		err := database.GetDB().Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.PhotoTag{PhotoID: photoID, Tag: tag}).Error
		if err != nil {
			log.Warn("Tag insert failed", zap.Uint("photo_id", photoID), zap.String("tag", tag), zap.Error(err))
			failed = append(failed, tag)
			continue
		}
		saved = append(saved, tag)
	}
	return echo.Map{"saved": saved, "failed": failed}
}

// ListReportPhotos returns a report's photos. Missing data is an empty
// list, never an error.
func ListReportPhotos(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("photo", "read")

	reportID := c.Param("id")
	var report model.Report
	if result := database.GetDB().First(&report, reportID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
	}
	if report.CreatorID != currentUserID(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the report creator"})
	}

	photos := reportPhotos(log, report.ID)
	return c.JSON(http.StatusOK, photos)
}

// PublicReportPhotos returns a report's photos by share token, without
// authentication, so a shared link works for recipients with no account
func PublicReportPhotos(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("photo", "read")

	token := c.Param("token")
	var report model.Report
	if result := database.GetDB().Where("share_token = ?", token).First(&report); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
	}

	photos := reportPhotos(log, report.ID)
	return c.JSON(http.StatusOK, photos)
}

func reportPhotos(log *zap.Logger, reportID uint) []model.Photo {
	var photos []model.Photo
	err := database.GetDB().Preload("Tags").
		Where("report_id = ?", reportID).
		Order("id").
		Find(&photos).Error
	if err != nil {
		log.Warn("Photo lookup failed, returning empty list", zap.Uint("report_id", reportID), zap.Error(err))
		return []model.Photo{}
	}
	decoratePhotoURLs(photos)
	return photos
}

// ListRoomPhotos returns photos for one room, scoped by property and the
// move_out flag
func ListRoomPhotos(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("photo", "read")

	property := ownedProperty(c, c.Param("id"))
	if property == nil {
		return nil
	}

	roomKey := c.Param("roomId")
	moveOut := c.QueryParam("move_out") == "true"

	var photos []model.Photo
	err := database.GetDB().Preload("Tags").
		Where("property_id = ? AND room_key = ? AND move_out = ?", property.ID, roomKey, moveOut).
		Order("id").
		Find(&photos).Error
	if err != nil {
		log.Error("Failed to list room photos", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve photos"})
	}

	decoratePhotoURLs(photos)
	return c.JSON(http.StatusOK, photos)
}

// ListPropertyPhotos returns every photo attached to a property
func ListPropertyPhotos(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("photo", "read")

	property := ownedProperty(c, c.Param("id"))
	if property == nil {
		return nil
	}

	var photos []model.Photo
	err := database.GetDB().Preload("Tags").
		Where("property_id = ?", property.ID).
		Order("id").
		Find(&photos).Error
	if err != nil {
		log.Error("Failed to list property photos", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve photos"})
	}

	decoratePhotoURLs(photos)
	return c.JSON(http.StatusOK, photos)
}

// photoWriteAllowed decides write access to a photo. Ownership comes from
// the photo's property when one is set; a photo whose property row cannot be
// loaded is not writable by anyone. Property-less photos belong to their
// uploader.
func photoWriteAllowed(photo *model.Photo, owner *model.Property, userID uint) bool {
	if photo.PropertyID != nil {
		return owner != nil && owner.OwnerID == userID
	}
	return photo.UploaderID == userID
}

// reportWriteAllowed decides whether userID may attach photos to a report
func reportWriteAllowed(report *model.Report, userID uint) bool {
	return report.CreatorID == userID
}

// photoForWrite loads a photo and verifies the caller may modify it. A photo
// whose ownership cannot be established is not writable.
func photoForWrite(c echo.Context) *model.Photo {
	userID := currentUserID(c)

	var photo model.Photo
	if result := database.GetDB().First(&photo, c.Param("id")); result.Error != nil {
		c.JSON(http.StatusNotFound, echo.Map{"error": "photo not found"})
		return nil
	}

	var owner *model.Property
	if photo.PropertyID != nil {
		var property model.Property
		if result := database.GetDB().First(&property, *photo.PropertyID); result.Error == nil {
			owner = &property
		}
	}
	if !photoWriteAllowed(&photo, owner, userID) {
		c.JSON(http.StatusForbidden, echo.Map{"error": "not the photo owner"})
		return nil
	}
	return &photo
}

// UpdatePhotoNote replaces a photo's free-text note
func UpdatePhotoNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("photo", "update")

	photo := photoForWrite(c)
	if photo == nil {
		return nil
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := database.GetDB().Model(photo).Update("note", req.Note).Error; err != nil {
		log.Error("Failed to update photo note", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update note"})
	}

	photoURL(photo)
	return c.JSON(http.StatusOK, photo)
}

// AddPhotoTag adds tags to a photo, deduplicated
func AddPhotoTag(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("photo", "update")

	photo := photoForWrite(c)
	if photo == nil {
		return nil
	}

	var req struct {
		Tags []string `json:"tags"`
	}
	if err := c.Bind(&req); err != nil || len(req.Tags) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tags are required"})
	}

	result := addTags(log, photo.ID, req.Tags)
	return c.JSON(http.StatusOK, result)
}

// RemovePhotoTag deletes one tag from a photo
func RemovePhotoTag(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("photo", "update")

	photo := photoForWrite(c)
	if photo == nil {
		return nil
	}

	tag := c.Param("tag")
	err := database.GetDB().Where("photo_id = ? AND tag = ?", photo.ID, tag).Delete(&model.PhotoTag{}).Error
	if err != nil {
		// Tag bookkeeping is best-effort; report degraded success
		log.Warn("Tag delete failed", zap.Uint("photo_id", photo.ID), zap.String("tag", tag), zap.Error(err))
		return c.JSON(http.StatusOK, echo.Map{"message": "tag removal failed", "removed": false})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "tag removed", "removed": true})
}

// DeletePhoto removes the photo row, its tags, and (best-effort) the file
func DeletePhoto(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("photo", "delete")

	photo := photoForWrite(c)
	if photo == nil {
		return nil
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", photo.ID).Delete(&model.PhotoTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(photo).Error
	})
	if err != nil {
		log.Error("Failed to delete photo", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete photo"})
	}

	if err := os.Remove(filepath.Join(uploadDir, photo.FilePath)); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Failed to remove photo file", zap.String("file", photo.FilePath), zap.Error(err))
	}

	invalidateCounts(c, log, photo.PropertyID)

	log.Info("Photo deleted", zap.Uint("photo_id", photo.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "photo deleted"})
}

// LinkPhotosToReport sets report_id on existing photos, the single
// association path for report photos
func LinkPhotosToReport(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	prometheus.RecordEntityOp("photo", "update")

	var report model.Report
	if result := database.GetDB().First(&report, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
	}
	if !reportWriteAllowed(&report, userID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the report creator"})
	}

	var req struct {
		PhotoIDs []uint `json:"photo_ids"`
	}
	if err := c.Bind(&req); err != nil || len(req.PhotoIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "photo_ids are required"})
	}

	result := database.GetDB().Model(&model.Photo{}).
		Where("id IN ?", req.PhotoIDs).
		Update("report_id", report.ID)
	if result.Error != nil {
		log.Error("Failed to link photos", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to link photos"})
	}

	log.Info("Photos linked to report",
		zap.Uint("report_id", report.ID),
		zap.Int64("linked", result.RowsAffected))
	return c.JSON(http.StatusOK, echo.Map{"linked": result.RowsAffected})
}
