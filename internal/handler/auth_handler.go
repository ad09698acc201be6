package handler

import (
	"net/http"
	"time"

	"inspection-service/internal/model"
	"inspection-service/pkg/database"
	"inspection-service/pkg/jwtutil"
	"inspection-service/pkg/logger"
	"inspection-service/pkg/mailer"
	"inspection-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler carries the injected mail client for flows that email codes
type AuthHandler struct {
	mail *mailer.Client
}

func NewAuthHandler(mail *mailer.Client) *AuthHandler {
	return &AuthHandler{mail: mail}
}

// Register creates a user and emails a 4-digit verification code
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password are required"})
	}

	// Check if user already exists
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&existingUser)
	if result.Error == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	code := model.GenerateCode()
	expiry := time.Now().Add(model.CodeTTL)
	user := model.User{
		Name:                req.Name,
		Email:               req.Email,
		Password:            string(hashedPassword),
		Role:                "user",
		VerifyCode:          code,
		VerifyCodeExpiresAt: &expiry,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		// The pre-check races with concurrent registrations; the unique
		// index on email is the authoritative duplicate signal
		if isDuplicate(result.Error) {
			log.Error("User already exists", zap.String("email", req.Email))
			prometheus.RecordAuthError("email_already_exists")
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	sent := sendMail(log, "verification", func() error {
		return h.mail.SendVerificationCode(user.Email, user.Name, code)
	})

	log.Info("User registered", zap.String("email", user.Email), zap.Bool("email_sent", sent))
	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "User registered successfully, verification code sent",
		"email_sent": sent,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// VerifyEmail checks the submitted 4-digit code and marks the user verified
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.VerificationCounter.Inc()

	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found for verification", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if user.Verified {
		return c.JSON(http.StatusOK, echo.Map{"message": "email already verified"})
	}

	switch model.CheckCode(user.VerifyCode, user.VerifyCodeExpiresAt, req.Code, time.Now()) {
	case model.CodeExpired:
		prometheus.RecordAuthError("code_expired")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification code expired"})
	case model.CodeInvalid:
		prometheus.RecordAuthError("code_invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid verification code"})
	}

	updates := map[string]interface{}{
		"verified":               true,
		"verify_code":            "",
		"verify_code_expires_at": nil,
	}
	if err := database.GetDB().Model(&user).Updates(updates).Error; err != nil {
		log.Error("Failed to mark user verified", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}

	log.Info("User verified", zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

// ResendCode issues a fresh verification code
func (h *AuthHandler) ResendCode(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email string `json:"email"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var user model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&user); result.Error != nil {
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if user.Verified {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already verified"})
	}

	code := model.GenerateCode()
	expiry := time.Now().Add(model.CodeTTL)
	if err := database.GetDB().Model(&user).Updates(map[string]interface{}{
		"verify_code":            code,
		"verify_code_expires_at": expiry,
	}).Error; err != nil {
		log.Error("Failed to store verification code", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue code"})
	}

	sent := sendMail(log, "verification", func() error {
		return h.mail.SendVerificationCode(user.Email, user.Name, code)
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "verification code sent", "email_sent": sent})
}

// Login authenticates a verified user and returns a JWT
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if !user.Verified {
		prometheus.RecordAuthError("email_not_verified")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email not verified"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.IncreaseActiveTokens()
	log.Info("User logged in", zap.String("email", user.Email))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// RequestPasswordReset emails a reset code to an existing account
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email string `json:"email"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var user model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&user); result.Error != nil {
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	code := model.GenerateCode()
	expiry := time.Now().Add(model.CodeTTL)
	if err := database.GetDB().Model(&user).Updates(map[string]interface{}{
		"reset_code":            code,
		"reset_code_expires_at": expiry,
	}).Error; err != nil {
		log.Error("Failed to store reset code", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue code"})
	}

	sent := sendMail(log, "password_reset", func() error {
		return h.mail.SendPasswordResetCode(user.Email, user.Name, code)
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "password reset code sent", "email_sent": sent})
}

// ConfirmPasswordReset checks the reset code and stores the new password
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_password is required"})
	}

	var user model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&user); result.Error != nil {
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	switch model.CheckCode(user.ResetCode, user.ResetCodeExpiresAt, req.Code, time.Now()) {
	case model.CodeExpired:
		prometheus.RecordAuthError("code_expired")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reset code expired"})
	case model.CodeInvalid:
		prometheus.RecordAuthError("code_invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reset code"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	if err := database.GetDB().Model(&user).Updates(map[string]interface{}{
		"password":              string(hashedPassword),
		"reset_code":            "",
		"reset_code_expires_at": nil,
	}).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	log.Info("Password reset", zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// RequestEmailChange stores a pending email and sends a code to it
func (h *AuthHandler) RequestEmailChange(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)

	var req struct {
		NewEmail string `json:"new_email"`
	}

	if err := c.Bind(&req); err != nil || req.NewEmail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_email is required"})
	}

	var taken model.User
	if result := database.GetDB().Where("email = ?", req.NewEmail).First(&taken); result.Error == nil {
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	code := model.GenerateCode()
	expiry := time.Now().Add(model.CodeTTL)
	if err := database.GetDB().Model(&user).Updates(map[string]interface{}{
		"pending_email":                req.NewEmail,
		"email_change_code":            code,
		"email_change_code_expires_at": expiry,
	}).Error; err != nil {
		log.Error("Failed to store email change request", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue code"})
	}

	sent := sendMail(log, "email_change", func() error {
		return h.mail.SendEmailChangeCode(req.NewEmail, user.Name, code)
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "confirmation code sent to new address", "email_sent": sent})
}

// ConfirmEmailChange swaps the account email after code confirmation
func (h *AuthHandler) ConfirmEmailChange(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)

	var req struct {
		Code string `json:"code"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if user.PendingEmail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no email change pending"})
	}

	switch model.CheckCode(user.EmailChangeCode, user.EmailChangeCodeExpiresAt, req.Code, time.Now()) {
	case model.CodeExpired:
		prometheus.RecordAuthError("code_expired")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email change code expired"})
	case model.CodeInvalid:
		prometheus.RecordAuthError("code_invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email change code"})
	}

	if err := database.GetDB().Model(&user).Updates(map[string]interface{}{
		"email":                        user.PendingEmail,
		"pending_email":                "",
		"email_change_code":            "",
		"email_change_code_expires_at": nil,
	}).Error; err != nil {
		log.Error("Failed to change email", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "email change failed"})
	}

	log.Info("Email changed", zap.Uint("user_id", user.ID), zap.String("new_email", user.PendingEmail))
	return c.JSON(http.StatusOK, echo.Map{"message": "email updated"})
}
