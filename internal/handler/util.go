package handler

import (
	"errors"

	"inspection-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// isDuplicate reports whether err is a unique-constraint violation. With
// TranslateError enabled the driver surfaces those as gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// currentUserID returns the authenticated user's id set by the auth middleware
func currentUserID(c echo.Context) uint {
	if id, ok := c.Get("user_id").(uint); ok {
		return id
	}
	return 0
}

// sendMail runs a best-effort email send and reports whether it succeeded.
// Email failures never fail the triggering request.
func sendMail(log *zap.Logger, template string, send func() error) bool {
	if err := send(); err != nil {
		log.Warn("email send failed", zap.String("template", template), zap.Error(err))
		prometheus.RecordEmailSend(template, false)
		return false
	}
	prometheus.RecordEmailSend(template, true)
	return true
}
