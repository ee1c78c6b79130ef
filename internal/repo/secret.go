package repo

import (
	"KeyVault/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// SecretMeta — метаданные секрета без шифртекста.
type SecretMeta struct {
	ID            int64
	Name          string
	Description   string
	OwnerID       int64
	CreatedBy     string
	OwnerUsername *string // текущий логин владельца, если он ещё существует
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SecretUpdate — частичное изменение секрета. nil-поле не трогается.
type SecretUpdate struct {
	EncryptedValue []byte
	Description    *string
}

func (u SecretUpdate) columns() map[string]any {
	cols := map[string]any{}
	if u.EncryptedValue != nil {
		cols["encrypted_value"] = u.EncryptedValue
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	return cols
}

// SecretRepository — доступ к секретам.
type SecretRepository interface {
	// Create вставляет секрет; занятое имя — ErrDuplicate. Проверки «до вставки»
	// нет: из двух одновременных вставок побеждает ровно одна.
	Create(ctx context.Context, s *model.Secret) error
	// GetByName возвращает gorm.ErrRecordNotFound, если секрета нет.
	GetByName(ctx context.Context, name string) (*model.Secret, error)
	// ListMeta — метаданные, новые первыми; ownerID == nil — все секреты.
	ListMeta(ctx context.Context, ownerID *int64) ([]SecretMeta, error)
	// Update применяет изменение и обновляет updated_at. Пустое изменение — no-op.
	Update(ctx context.Context, id int64, upd SecretUpdate) error
	Delete(ctx context.Context, id int64) error
}

type secretRepo struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSecretRepository создаёт реализацию репозитория секретов.
func NewSecretRepository(db *gorm.DB) SecretRepository {
	return &secretRepo{db: db, now: time.Now}
}

func (r *secretRepo) Create(ctx context.Context, s *model.Secret) error {
	if err := r.db.WithContext(ctx).Omit("Owner").Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *secretRepo) GetByName(ctx context.Context, name string) (*model.Secret, error) {
	var s model.Secret
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *secretRepo) ListMeta(ctx context.Context, ownerID *int64) ([]SecretMeta, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Secret{}).
		Select("secrets.id, secrets.name, secrets.description, secrets.owner_id, secrets.created_by, " +
			"users.username AS owner_username, secrets.created_at, secrets.updated_at").
		Joins("LEFT JOIN users ON users.id = secrets.owner_id")
	if ownerID != nil {
		q = q.Where("secrets.owner_id = ?", *ownerID)
	}
	var rows []SecretMeta
	err := q.Order("secrets.created_at DESC").Order("secrets.id DESC").Scan(&rows).Error
	return rows, err
}

func (r *secretRepo) Update(ctx context.Context, id int64, upd SecretUpdate) error {
	cols := upd.columns()
	if len(cols) == 0 {
		return nil
	}
	cols["updated_at"] = r.now().UTC()
	tx := r.db.WithContext(ctx).Model(&model.Secret{}).Where("id = ?", id).Updates(cols)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *secretRepo) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Secret{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
