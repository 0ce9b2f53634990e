// Package model defines the data models for DocBrain.
package model

import "time"

// User represents a registered account.
type User struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;type:varchar(32)"`
	Username  string    `json:"username" gorm:"size:64;not null;uniqueIndex:uk_username"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	APIKey    string    `json:"api_key" gorm:"size:64;not null;uniqueIndex:uk_api_key"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (User) TableName() string {
	return "users"
}
