package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"inspection-service/internal/assembler"
	"inspection-service/internal/model"
	"inspection-service/pkg/database"
	"inspection-service/pkg/logger"
	"inspection-service/pkg/mailer"
	"inspection-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReportHandler carries the injected mail client for approval notifications
type ReportHandler struct {
	mail *mailer.Client
}

func NewReportHandler(mail *mailer.Client) *ReportHandler {
	return &ReportHandler{mail: mail}
}

// CreateReport creates a report for the caller's property. The current room
// list is serialized into rooms_snapshot as an immutable audit record; live
// reads always use the rooms table.
func (h *ReportHandler) CreateReport(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	prometheus.RecordEntityOp("report", "create")

	var req struct {
		PropertyID  uint   `json:"property_id"`
		Type        string `json:"type"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	reportType := req.Type
	if reportType == "" {
		reportType = model.ReportTypeGeneral
	}
	if !model.ValidReportType(reportType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown report type"})
	}

	var property model.Property
	if result := database.GetDB().First(&property, req.PropertyID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
	}
	if property.OwnerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the property owner"})
	}

	// Point-in-time audit copy of the rooms as submitted
	var rooms []model.Room
	if err := database.GetDB().Where("property_id = ?", property.ID).Order("id").Find(&rooms).Error; err != nil {
		log.Warn("Room snapshot load failed", zap.Uint("property_id", property.ID), zap.Error(err))
	}
	snapshot, err := json.Marshal(rooms)
	if err != nil {
		log.Warn("Room snapshot marshal failed", zap.Error(err))
		snapshot = []byte("[]")
	}

	report := model.Report{
		PropertyID:    property.ID,
		CreatorID:     userID,
		Type:          reportType,
		ShareToken:    uuid.New().String(),
		Title:         req.Title,
		Description:   req.Description,
		RoomsSnapshot: string(snapshot),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&report).Error; err != nil {
		log.Error("Failed to create report", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create report"})
	}

	log.Info("Report created",
		zap.Uint("report_id", report.ID),
		zap.String("type", report.Type),
		zap.String("share_token", report.ShareToken))
	return c.JSON(http.StatusCreated, report)
}

// ListReports returns the reports of the caller's property
func (h *ReportHandler) ListReports(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("report", "read")

	property := ownedProperty(c, c.Param("id"))
	if property == nil {
		return nil
	}

	query := database.GetDB().Where("property_id = ?", property.ID)
	if c.QueryParam("include_archived") != "true" {
		query = query.Where("archived = ?", false)
	}

	var reports []model.Report
	if err := query.Order("created_at DESC").Find(&reports).Error; err != nil {
		log.Error("Failed to list reports", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve reports"})
	}

	return c.JSON(http.StatusOK, reports)
}

// GetReport returns the assembled view of a report for its creator
func (h *ReportHandler) GetReport(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	prometheus.RecordEntityOp("report", "read")

	var report model.Report
	if result := database.GetDB().First(&report, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
	}
	if report.CreatorID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the report creator"})
	}

	view := assembler.Assemble(database.GetDB(), log, &report, uploadURLPrefix)
	return c.JSON(http.StatusOK, view)
}

// GetPublicReport returns the assembled view by share token, without
// authentication, so reports can be shared via link
func (h *ReportHandler) GetPublicReport(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOp("report", "read")

	var report model.Report
	if result := database.GetDB().Where("share_token = ?", c.Param("token")).First(&report); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
	}

	view := assembler.Assemble(database.GetDB(), log, &report, uploadURLPrefix)
	return c.JSON(http.StatusOK, view)
}

// UpdateReport edits title/description/type. Any edit re-opens the approval
// workflow by resetting the status to pending, unless keep_status is set.
func (h *ReportHandler) UpdateReport(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	prometheus.RecordEntityOp("report", "update")

	var report model.Report
	if result := database.GetDB().First(&report, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
	}
	if report.CreatorID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the report creator"})
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Type        *string `json:"type"`
		KeepStatus  bool    `json:"keep_status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Type != nil {
		if !model.ValidReportType(*req.Type) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown report type"})
		}
		updates["type"] = *req.Type
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no updatable fields provided"})
	}

	if !req.KeepStatus {
		updates["approval_status"] = nil
		updates["approval_message"] = ""
		updates["status_changed_at"] = nil
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&report).Updates(updates).Error; err != nil {
		log.Error("Failed to update report", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update report"})
	}

	log.Info("Report updated", zap.Uint("report_id", report.ID), zap.Bool("status_kept", req.KeepStatus))
	return c.JSON(http.StatusOK, report)
}

// ArchiveReport flags a report as archived with an optional reason
func (h *ReportHandler) ArchiveReport(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	prometheus.RecordEntityOp("report", "update")

	var report model.Report
	if result := database.GetDB().First(&report, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
	}
	if report.CreatorID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the report creator"})
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := database.GetDB().Model(&report).Updates(map[string]interface{}{
		"archived":       true,
		"archive_reason": req.Reason,
	}).Error; err != nil {
		log.Error("Failed to archive report", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to archive report"})
	}

	log.Info("Report archived", zap.Uint("report_id", report.ID))
	return c.JSON(http.StatusOK, report)
}

// DeleteReport removes a report and unlinks its photos
func (h *ReportHandler) DeleteReport(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	prometheus.RecordEntityOp("report", "delete")

	var report model.Report
	if result := database.GetDB().First(&report, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
	}
	if report.CreatorID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the report creator"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Model(&model.Photo{}).
		Where("report_id = ?", report.ID).
		Update("report_id", nil).Error; err != nil {
		log.Warn("Failed to unlink report photos", zap.Uint("report_id", report.ID), zap.Error(err))
	}
	if err := database.GetDB().Delete(&report).Error; err != nil {
		log.Error("Failed to delete report", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete report"})
	}

	log.Info("Report deleted", zap.Uint("report_id", report.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "report deleted"})
}

// ApproveReport transitions a report to approved (authenticated path)
func (h *ReportHandler) ApproveReport(c echo.Context) error {
	return h.transition(c, model.ApprovalApproved, false)
}

// RejectReport transitions a report to rejected (authenticated path)
func (h *ReportHandler) RejectReport(c echo.Context) error {
	return h.transition(c, model.ApprovalRejected, false)
}

// PublicApproveReport approves a report by share token. Token holders are
// the counterparty (e.g. the landlord reviewing a tenant's report), so the
// token is the only credential required.
func (h *ReportHandler) PublicApproveReport(c echo.Context) error {
	return h.transition(c, model.ApprovalApproved, true)
}

// PublicRejectReport rejects a report by share token
func (h *ReportHandler) PublicRejectReport(c echo.Context) error {
	return h.transition(c, model.ApprovalRejected, true)
}

// transition performs the approval state change. Both terminal states are
// reachable from pending and the write is idempotent: repeating a decision
// just re-stamps the timestamp and message.
func (h *ReportHandler) transition(c echo.Context, status string, viaToken bool) error {
	log := logger.FromContext(c)

	var report model.Report
	if viaToken {
		if result := database.GetDB().Where("share_token = ?", c.Param("token")).First(&report); result.Error != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
		}
	} else {
		if result := database.GetDB().First(&report, c.Param("id")); result.Error != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
		}
		if report.CreatorID != currentUserID(c) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not the report creator"})
		}
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	now := time.Now()
	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&report).Updates(map[string]interface{}{
		"approval_status":   status,
		"approval_message":  req.Message,
		"status_changed_at": now,
	}).Error; err != nil {
		log.Error("Failed to update approval status", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update status"})
	}
	prometheus.RecordApproval(status)

	// Notify the creator; a failed email downgrades to email_sent=false
	// rather than failing the transition
	sent := false
	var creator model.User
	if result := database.GetDB().First(&creator, report.CreatorID); result.Error != nil {
		log.Warn("Report creator lookup failed", zap.Uint("creator_id", report.CreatorID), zap.Error(result.Error))
	} else {
		sent = sendMail(log, "report_status", func() error {
			return h.mail.SendReportStatus(creator.Email, creator.Name, report.Title, status, req.Message, report.ShareToken)
		})
	}

	log.Info("Report status changed",
		zap.Uint("report_id", report.ID),
		zap.String("status", status),
		zap.Bool("via_token", viaToken),
		zap.Bool("email_sent", sent))
	return c.JSON(http.StatusOK, echo.Map{
		"message":    "report " + status,
		"status":     status,
		"email_sent": sent,
	})
}
