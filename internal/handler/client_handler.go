package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"jewelry-service/internal/model"
	"jewelry-service/internal/provision"
	"jewelry-service/pkg/database"
	"jewelry-service/pkg/logger"
	"jewelry-service/pkg/password"
	"jewelry-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClientHandler serves admin management of client businesses.
type ClientHandler struct {
	registry    *database.Registry
	provisioner *provision.Service
}

func NewClientHandler(registry *database.Registry, provisioner *provision.Service) *ClientHandler {
	return &ClientHandler{registry: registry, provisioner: provisioner}
}

// List returns all clients, newest first. Password hashes never serialize.
func (h *ClientHandler) List(c echo.Context) error {
	admin, err := h.registry.Admin()
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var clients []model.Client
	if err := admin.Order("created_at DESC").Find(&clients).Error; err != nil {
		logger.FromContext(c).Error("Failed to fetch clients", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Error fetching clients")
	}
	return ok(c, http.StatusOK, clients)
}

type createClientRequest struct {
	BusinessName string `json:"businessName" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
}

// Create provisions a new client business with its own database.
func (h *ClientHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse create client request", zap.Error(err))
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return failErr(c, err)
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Error creating client")
	}

	client, err := h.provisioner.Provision(req.BusinessName, req.Email, hash)
	if err != nil {
		return failErr(c, err)
	}

	return ok(c, http.StatusCreated, client)
}

// Get returns one client by id.
func (h *ClientHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid client id")
	}

	admin, err := h.registry.Admin()
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var client model.Client
	if err := admin.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "Client not found")
		}
		return fail(c, http.StatusInternalServerError, "Error fetching client")
	}
	return ok(c, http.StatusOK, client)
}

type updateClientRequest struct {
	BusinessName *string `json:"businessName"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Password     *string `json:"password" validate:"omitempty,min=8"`
	Active       *bool   `json:"active"`
}

// Update applies a partial update to a client record. A new password is
// re-hashed before storage.
func (h *ClientHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid client id")
	}

	var req updateClientRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse update client request", zap.Error(err))
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return failErr(c, err)
	}

	updates := map[string]interface{}{}
	if req.BusinessName != nil {
		updates["business_name"] = *req.BusinessName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Password != nil {
		hash, err := password.Hash(*req.Password)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			return fail(c, http.StatusInternalServerError, "Error updating client")
		}
		updates["password_hash"] = hash
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		return fail(c, http.StatusBadRequest, "Nothing to update")
	}

	admin, err := h.registry.Admin()
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var client model.Client
	if err := admin.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "Client not found")
		}
		return fail(c, http.StatusInternalServerError, "Error updating client")
	}
	if err := admin.Model(&client).Updates(updates).Error; err != nil {
		log.Error("Failed to update client", zap.Uint("client_id", client.ID), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Error updating client")
	}

	log.Info("Client updated", zap.Uint("client_id", client.ID))
	return ok(c, http.StatusOK, client)
}

// Delete soft-deletes a client record. The isolated tenant database is left
// in place for reconciliation.
func (h *ClientHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid client id")
	}

	admin, err := h.registry.Admin()
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := admin.Delete(&model.Client{}, id)
	if result.Error != nil {
		return fail(c, http.StatusInternalServerError, "Error deleting client")
	}
	if result.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "Client not found")
	}

	logger.FromContext(c).Info("Client deleted", zap.Uint64("client_id", uint64(id)))
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Client deleted successfully"})
}

type resetPasswordRequest struct {
	ClientID    uint   `json:"clientId" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ResetPassword replaces a client's password hash.
func (h *ClientHandler) ResetPassword(c echo.Context) error {
	log := logger.FromContext(c)

	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse reset password request", zap.Error(err))
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return failErr(c, err)
	}

	admin, err := h.registry.Admin()
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var client model.Client
	if err := admin.First(&client, req.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "Client not found")
		}
		return fail(c, http.StatusInternalServerError, "Error resetting password")
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Error resetting password")
	}

	if err := admin.Model(&client).Update("password_hash", hash).Error; err != nil {
		log.Error("Failed to reset password", zap.Uint("client_id", client.ID), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Error resetting password")
	}

	log.Info("Client password reset", zap.Uint("client_id", client.ID))
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Password reset successfully"})
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
