package model

import (
	"time"

	"gorm.io/gorm"
)

// Client represents a jewelry business provisioned with its own isolated
// order database. The record itself lives in the shared admin database.
type Client struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	BusinessName string         `json:"businessName" gorm:"type:varchar(255);not null"`
	Email        string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"`
	DBName       string         `json:"dbName" gorm:"type:varchar(100);uniqueIndex;not null"`
	Active       bool           `json:"active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
