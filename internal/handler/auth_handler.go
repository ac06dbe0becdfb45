package handler

import (
	"errors"
	"net/http"
	"time"

	"jewelry-service/internal/model"
	"jewelry-service/pkg/database"
	"jewelry-service/pkg/jwtutil"
	"jewelry-service/pkg/logger"
	"jewelry-service/pkg/password"
	"jewelry-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthHandler serves the admin and client login flows plus the one-time
// admin bootstrap.
type AuthHandler struct {
	registry *database.Registry
}

func NewAuthHandler(registry *database.Registry) *AuthHandler {
	return &AuthHandler{registry: registry}
}

// AdminLogin exchanges admin credentials for a signed token.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLogin(jwtutil.RoleAdmin)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse admin login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Email and password are required")
	}

	admin, err := h.registry.Admin()
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := admin.Where("email = ? AND role = ?", req.Email, jwtutil.RoleAdmin).First(&user)
	if result.Error != nil {
		log.Error("Admin not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	if !password.Compare(req.Password, user.PasswordHash) {
		log.Error("Invalid admin password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := jwtutil.GenerateAdminToken(&user)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return fail(c, http.StatusInternalServerError, "Token error")
	}

	log.Info("Admin logged in", zap.String("email", user.Email))
	return ok(c, http.StatusOK, echo.Map{"token": token})
}

// ClientLogin exchanges client credentials for a signed token carrying the
// tenant database identifier. Inactive clients cannot log in.
func (h *AuthHandler) ClientLogin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLogin(jwtutil.RoleClient)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse client login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Email and password are required")
	}

	admin, err := h.registry.Admin()
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var client model.Client
	result := admin.Where("email = ? AND active = ?", req.Email, true).First(&client)
	if result.Error != nil {
		log.Error("Client not found or inactive", zap.String("email", req.Email))
		prometheus.RecordAuthError("client_not_found")
		return fail(c, http.StatusUnauthorized, "Invalid credentials or inactive account")
	}

	if !password.Compare(req.Password, client.PasswordHash) {
		log.Error("Invalid client password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := jwtutil.GenerateClientToken(&client)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return fail(c, http.StatusInternalServerError, "Token error")
	}

	log.Info("Client logged in",
		zap.String("email", client.Email),
		zap.String("db_name", client.DBName))
	return ok(c, http.StatusOK, echo.Map{
		"token": token,
		"client": echo.Map{
			"id":           client.ID,
			"businessName": client.BusinessName,
			"email":        client.Email,
		},
	})
}

// Seed creates the initial admin account with default credentials. It
// refuses to run once an admin exists.
func (h *AuthHandler) Seed(c echo.Context) error {
	log := logger.FromContext(c)

	admin, err := h.registry.Admin()
	if err != nil {
		return failErr(c, err)
	}

	var existing model.User
	result := admin.Where("role = ?", jwtutil.RoleAdmin).First(&existing)
	if result.Error == nil {
		return fail(c, http.StatusBadRequest, "Admin user already exists. Please use the existing account.")
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return failErr(c, result.Error)
	}

	const (
		seedEmail    = "admin@example.com"
		seedPassword = "Admin@123"
	)
	hash, err := password.Hash(seedPassword)
	if err != nil {
		log.Error("Failed to hash seed password", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Seeding failed")
	}

	user := model.User{
		Email:        seedEmail,
		PasswordHash: hash,
		Role:         jwtutil.RoleAdmin,
	}
	if err := admin.Create(&user).Error; err != nil {
		log.Error("Failed to create admin user", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Seeding failed")
	}

	log.Info("Admin user seeded", zap.String("email", seedEmail))
	return ok(c, http.StatusOK, echo.Map{
		"email":    seedEmail,
		"password": seedPassword,
	})
}
