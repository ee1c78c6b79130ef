package model

import "time"

// Secret — именованное значение, хранимое только в зашифрованном виде.
type Secret struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex;not null"` // уникально во всём хранилище, не по владельцу

	EncryptedValue []byte `gorm:"not null"` // nonce || ciphertext || tag
	Description    string

	OwnerID int64 `gorm:"not null;index"` // ссылка на users.id
	Owner   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedBy string // логин создателя на момент создания

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
