package handler

import (
	"net/http"
	"time"

	"jewelry-service/internal/apperr"
	"jewelry-service/internal/middleware"
	"jewelry-service/internal/model"
	"jewelry-service/pkg/database"
	"jewelry-service/pkg/logger"
	"jewelry-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OrderHandler serves the order CRUD for the authenticated tenant. Every
// operation routes through the connection registry using the database
// identifier from the tenant's token.
type OrderHandler struct {
	registry *database.Registry
}

func NewOrderHandler(registry *database.Registry) *OrderHandler {
	return &OrderHandler{registry: registry}
}

// models resolves the tenant connection and its model handles for the
// current request.
func (h *OrderHandler) models(c echo.Context) (*database.TenantModels, error) {
	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		// RequireClient always sets the identity; reaching here means the
		// route was wired without it.
		return nil, apperr.Authorization()
	}
	conn, err := h.registry.Tenant(tenant.DBName)
	if err != nil {
		return nil, err
	}
	return database.ModelsFor(conn)
}

// List returns the tenant's orders, newest first.
func (h *OrderHandler) List(c echo.Context) error {
	prometheus.RecordOrderOperation("list")

	models, err := h.models(c)
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	orders, err := models.Orders.List()
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, orders)
}

type createOrderRequest struct {
	CustomerName    string            `json:"customerName" validate:"required"`
	OrderType       model.OrderType   `json:"orderType" validate:"required,oneof=new repair"`
	ItemType        string            `json:"itemType" validate:"required"`
	QuotedPrice     float64           `json:"quotedPrice" validate:"required,gt=0"`
	GoldWeightGrams *float64          `json:"goldWeightGrams"`
	OrderDate       *time.Time        `json:"orderDate"`
	DeliveryDate    time.Time         `json:"deliveryDate" validate:"required"`
	Notes           string            `json:"notes"`
	Status          model.OrderStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed delivered cancelled"`
}

// Create records a new order. Status defaults to pending, order date to now.
func (h *OrderHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("create")

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse create order request", zap.Error(err))
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return failErr(c, err)
	}

	orderDate := time.Now()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}
	status := req.Status
	if status == "" {
		status = model.OrderStatusPending
	}

	order := model.Order{
		CustomerName:    req.CustomerName,
		OrderType:       req.OrderType,
		ItemType:        req.ItemType,
		QuotedPrice:     req.QuotedPrice,
		GoldWeightGrams: req.GoldWeightGrams,
		OrderDate:       orderDate,
		DeliveryDate:    req.DeliveryDate,
		Notes:           req.Notes,
		Status:          status,
	}

	models, err := h.models(c)
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := models.Orders.Create(&order); err != nil {
		log.Error("Failed to create order", zap.Error(err))
		return failErr(c, err)
	}

	log.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.String("customer", order.CustomerName))
	return ok(c, http.StatusCreated, order)
}

// Get returns one order by id.
func (h *OrderHandler) Get(c echo.Context) error {
	prometheus.RecordOrderOperation("get")

	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid order id")
	}

	models, err := h.models(c)
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	order, err := models.Orders.ByID(id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, order)
}

type updateOrderRequest struct {
	CustomerName    *string            `json:"customerName"`
	OrderType       *model.OrderType   `json:"orderType"`
	ItemType        *string            `json:"itemType"`
	QuotedPrice     *float64           `json:"quotedPrice" validate:"omitempty,gt=0"`
	GoldWeightGrams *float64           `json:"goldWeightGrams"`
	OrderDate       *time.Time         `json:"orderDate"`
	DeliveryDate    *time.Time         `json:"deliveryDate"`
	Notes           *string            `json:"notes"`
	Status          *model.OrderStatus `json:"status"`
}

// Update applies a partial update to an order, validating enum fields.
func (h *OrderHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("update")

	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid order id")
	}

	var req updateOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse update order request", zap.Error(err))
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return failErr(c, err)
	}

	updates := map[string]interface{}{}
	if req.CustomerName != nil {
		updates["customer_name"] = *req.CustomerName
	}
	if req.OrderType != nil {
		if !req.OrderType.Valid() {
			return fail(c, http.StatusBadRequest, "orderType must be one of: new repair")
		}
		updates["order_type"] = *req.OrderType
	}
	if req.ItemType != nil {
		updates["item_type"] = *req.ItemType
	}
	if req.QuotedPrice != nil {
		updates["quoted_price"] = *req.QuotedPrice
	}
	if req.GoldWeightGrams != nil {
		updates["gold_weight_grams"] = *req.GoldWeightGrams
	}
	if req.OrderDate != nil {
		updates["order_date"] = *req.OrderDate
	}
	if req.DeliveryDate != nil {
		updates["delivery_date"] = *req.DeliveryDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return fail(c, http.StatusBadRequest, "status must be one of: pending in_progress completed delivered cancelled")
		}
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return fail(c, http.StatusBadRequest, "Nothing to update")
	}

	models, err := h.models(c)
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	order, err := models.Orders.Update(id, updates)
	if err != nil {
		return failErr(c, err)
	}

	log.Info("Order updated", zap.Uint("order_id", order.ID))
	return ok(c, http.StatusOK, order)
}

// Delete removes an order.
func (h *OrderHandler) Delete(c echo.Context) error {
	prometheus.RecordOrderOperation("delete")

	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid order id")
	}

	models, err := h.models(c)
	if err != nil {
		return failErr(c, err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := models.Orders.Delete(id); err != nil {
		return failErr(c, err)
	}

	logger.FromContext(c).Info("Order deleted", zap.Uint64("order_id", uint64(id)))
	return ok(c, http.StatusOK, echo.Map{})
}
