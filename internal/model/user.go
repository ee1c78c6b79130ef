package model

import "time"

// User — учётная запись сервиса.
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;default:user"`
	IsActive     bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastLogin *time.Time
}
