package model

import "time"

// AuditEntry — неизменяемая запись журнала доступа. Ссылки на пользователя и
// секрет хранятся по значению и переживают их удаление.
type AuditEntry struct {
	ID string `gorm:"primaryKey;type:uuid"` // UUIDv7, упорядочен по времени

	UserID   *int64  `gorm:"index"`
	UserName *string `gorm:"column:user_name"`
	KeyName  *string `gorm:"column:key_name"`

	Action    string    `gorm:"not null;index"`
	Timestamp time.Time `gorm:"not null;index"`
	IPAddress string    `gorm:"column:ip_address"`
	UserAgent string
	Success   bool `gorm:"not null"`
}

// TableName — журнал хранится в таблице access_log.
func (AuditEntry) TableName() string { return "access_log" }
