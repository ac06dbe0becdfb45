package model

import (
	"time"

	"gorm.io/gorm"
)

// OrderType distinguishes new jewelry orders from repair jobs.
type OrderType string

const (
	OrderTypeNew    OrderType = "new"
	OrderTypeRepair OrderType = "repair"
)

// Valid reports whether t is one of the known order types.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeNew, OrderTypeRepair:
		return true
	}
	return false
}

// OrderStatus is the lifecycle status of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order represents a jewelry order or repair stored in a client's isolated
// database. Orders never reference anything outside their own database.
type Order struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	CustomerName    string         `json:"customerName" gorm:"type:varchar(255);not null"`
	OrderType       OrderType      `json:"orderType" gorm:"type:varchar(20);not null"`
	ItemType        string         `json:"itemType" gorm:"type:varchar(255);not null"`
	QuotedPrice     float64        `json:"quotedPrice" gorm:"not null"`
	GoldWeightGrams *float64       `json:"goldWeightGrams,omitempty"`
	OrderDate       time.Time      `json:"orderDate" gorm:"not null"`
	DeliveryDate    time.Time      `json:"deliveryDate" gorm:"not null"`
	Notes           string         `json:"notes" gorm:"type:text"`
	Status          OrderStatus    `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
