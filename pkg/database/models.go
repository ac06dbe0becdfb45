package database

import (
	"errors"

	"jewelry-service/internal/apperr"
	"jewelry-service/internal/model"

	"gorm.io/gorm"
)

// Schema keys tracked per connection.
const (
	adminSchema = "admin"
	orderSchema = "orders"
)

// EnsureAdminSchema registers the admin-database models (clients, admin
// users) on conn. Safe to call repeatedly.
func EnsureAdminSchema(conn *Conn) error {
	return conn.EnsureRegistered(adminSchema, &model.User{}, &model.Client{})
}

// TenantModels holds the model handles for one tenant connection. A handle
// is bound to the connection it was created from and cannot be pointed at
// another tenant's data.
type TenantModels struct {
	Orders *OrderModel
}

// ModelsFor registers the tenant schema on conn exactly once and returns
// handles bound to it. Invoking it repeatedly for the same tenant during the
// process lifetime is expected and cheap.
func ModelsFor(conn *Conn) (*TenantModels, error) {
	if err := conn.EnsureRegistered(orderSchema, &model.Order{}); err != nil {
		return nil, apperr.Connection(err, "Failed to prepare tenant database")
	}
	return &TenantModels{
		Orders: &OrderModel{db: conn.DB},
	}, nil
}

// OrderModel is the query handle for a tenant's orders.
type OrderModel struct {
	db *gorm.DB
}

// List returns all orders, newest first.
func (m *OrderModel) List() ([]model.Order, error) {
	var orders []model.Order
	if err := m.db.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, apperr.Connection(err, "Error fetching orders")
	}
	return orders, nil
}

// ByID returns one order or a not-found error.
func (m *OrderModel) ByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := m.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, apperr.Connection(err, "Error fetching order")
	}
	return &order, nil
}

// Create persists a new order.
func (m *OrderModel) Create(order *model.Order) error {
	if err := m.db.Create(order).Error; err != nil {
		return apperr.Connection(err, "Error creating order")
	}
	return nil
}

// Update applies the given column updates and returns the refreshed order.
func (m *OrderModel) Update(id uint, updates map[string]interface{}) (*model.Order, error) {
	order, err := m.ByID(id)
	if err != nil {
		return nil, err
	}
	if err := m.db.Model(order).Updates(updates).Error; err != nil {
		return nil, apperr.Connection(err, "Error updating order")
	}
	return order, nil
}

// Delete removes an order, reporting not-found for unknown ids.
func (m *OrderModel) Delete(id uint) error {
	result := m.db.Delete(&model.Order{}, id)
	if result.Error != nil {
		return apperr.Connection(result.Error, "Error deleting order")
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("Order not found")
	}
	return nil
}
