package handler

import (
	"net/http"
	"time"

	"inspection-service/internal/model"
	"inspection-service/pkg/database"
	"inspection-service/pkg/logger"
	"inspection-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PropertyRequest defines the structure for property creation/update requests
type PropertyRequest struct {
	Address        string     `json:"address"`
	UnitNumber     string     `json:"unit_number"`
	Description    string     `json:"description"`
	RoleAtProperty string     `json:"role_at_property"`
	Deposit        *float64   `json:"deposit"`
	LeaseStart     *time.Time `json:"lease_start"`
	LeaseEnd       *time.Time `json:"lease_end"`
	LeaseMonths    *int       `json:"lease_months"`
	LandlordName   string     `json:"landlord_name"`
	LandlordEmail  string     `json:"landlord_email"`
	LandlordPhone  string     `json:"landlord_phone"`
}

// CreateProperty creates the caller's property. The unique index on
// owner_id enforces one property per user; a duplicate attempt returns 409
// with the existing property's id.
func CreateProperty(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	prometheus.RecordEntityOp("property", "create")

	var req PropertyRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "address is required"})
	}

	role := req.RoleAtProperty
	if role == "" {
		role = model.PropertyRoleRenter
	}

	property := model.Property{
		OwnerID:        userID,
		Address:        req.Address,
		UnitNumber:     req.UnitNumber,
		Description:    req.Description,
		RoleAtProperty: role,
		Deposit:        req.Deposit,
		LeaseStart:     req.LeaseStart,
		LeaseEnd:       req.LeaseEnd,
		LeaseMonths:    req.LeaseMonths,
		LandlordName:   req.LandlordName,
		LandlordEmail:  req.LandlordEmail,
		LandlordPhone:  req.LandlordPhone,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&property).Error; err != nil {
		if isDuplicate(err) {
			var existing model.Property
			if lookupErr := database.GetDB().Where("owner_id = ?", userID).First(&existing).Error; lookupErr == nil {
				log.Warn("Duplicate property creation", zap.Uint("user_id", userID), zap.Uint("existing_id", existing.ID))
				return c.JSON(http.StatusConflict, echo.Map{
					"error":                "user already has a property",
					"existing_property_id": existing.ID,
				})
			}
			return c.JSON(http.StatusConflict, echo.Map{"error": "user already has a property"})
		}
		log.Error("Failed to create property", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create property"})
	}

	log.Info("Property created", zap.Uint("property_id", property.ID), zap.Uint("user_id", userID))
	return c.JSON(http.StatusCreated, property)
}

// GetMyProperty returns the caller's property
func GetMyProperty(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	prometheus.RecordEntityOp("property", "read")

	var property model.Property
	result := database.GetDB().Where("owner_id = ?", userID).First(&property)
	if result.Error != nil {
		log.Info("No property for user", zap.Uint("user_id", userID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
	}

	return c.JSON(http.StatusOK, property)
}

// GetProperty returns a property by id, owner only
func GetProperty(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	id := c.Param("id")
	prometheus.RecordEntityOp("property", "read")

	var property model.Property
	result := database.GetDB().First(&property, id)
	if result.Error != nil {
		log.Error("Property not found", zap.String("property_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
	}

	if property.OwnerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the property owner"})
	}

	return c.JSON(http.StatusOK, property)
}

// UpdateProperty applies a partial update to the caller's property
func UpdateProperty(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	id := c.Param("id")
	prometheus.RecordEntityOp("property", "update")

	var property model.Property
	if result := database.GetDB().First(&property, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
	}

	if property.OwnerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the property owner"})
	}

	// Partial update: only fields present in the body are applied
	var req struct {
		Address        *string    `json:"address"`
		UnitNumber     *string    `json:"unit_number"`
		Description    *string    `json:"description"`
		RoleAtProperty *string    `json:"role_at_property"`
		Deposit        *float64   `json:"deposit"`
		LeaseStart     *time.Time `json:"lease_start"`
		LeaseEnd       *time.Time `json:"lease_end"`
		LeaseMonths    *int       `json:"lease_months"`
		LandlordName   *string    `json:"landlord_name"`
		LandlordEmail  *string    `json:"landlord_email"`
		LandlordPhone  *string    `json:"landlord_phone"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	updates := map[string]interface{}{}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.UnitNumber != nil {
		updates["unit_number"] = *req.UnitNumber
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.RoleAtProperty != nil {
		updates["role_at_property"] = *req.RoleAtProperty
	}
	if req.Deposit != nil {
		updates["deposit"] = *req.Deposit
	}
	if req.LeaseStart != nil {
		updates["lease_start"] = *req.LeaseStart
	}
	if req.LeaseEnd != nil {
		updates["lease_end"] = *req.LeaseEnd
	}
	if req.LeaseMonths != nil {
		updates["lease_months"] = *req.LeaseMonths
	}
	if req.LandlordName != nil {
		updates["landlord_name"] = *req.LandlordName
	}
	if req.LandlordEmail != nil {
		updates["landlord_email"] = *req.LandlordEmail
	}
	if req.LandlordPhone != nil {
		updates["landlord_phone"] = *req.LandlordPhone
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no updatable fields provided"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&property).Updates(updates).Error; err != nil {
		log.Error("Failed to update property", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update property"})
	}

	log.Info("Property updated", zap.Uint("property_id", property.ID))
	return c.JSON(http.StatusOK, property)
}

// DeleteProperty removes the caller's property and everything under it
func DeleteProperty(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)
	id := c.Param("id")
	prometheus.RecordEntityOp("property", "delete")

	var property model.Property
	if result := database.GetDB().First(&property, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
	}

	if property.OwnerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the property owner"})
	}

	// Cascade: rooms, reports and photos all hang off the property
	defer prometheus.TrackDBOperation("delete")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", property.ID).Delete(&model.Room{}).Error; err != nil {
			return err
		}
		if err := tx.Where("property_id = ?", property.ID).Delete(&model.Report{}).Error; err != nil {
			return err
		}
		var photoIDs []uint
		if err := tx.Model(&model.Photo{}).Where("property_id = ?", property.ID).Pluck("id", &photoIDs).Error; err != nil {
			return err
		}
		if len(photoIDs) > 0 {
			if err := tx.Where("photo_id IN ?", photoIDs).Delete(&model.PhotoTag{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", photoIDs).Delete(&model.Photo{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&property).Error
	})
	if err != nil {
		log.Error("Failed to delete property", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete property"})
	}

	log.Info("Property deleted", zap.Uint("property_id", property.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "property deleted"})
}
