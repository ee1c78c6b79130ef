package repo

import (
	"KeyVault/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// UserUpdate — частичное изменение пользователя. nil-поле не трогается.
type UserUpdate struct {
	PasswordHash *string
	Role         *string
	IsActive     *bool
}

// columns — фиксированное соответствие поле → колонка.
func (u UserUpdate) columns() map[string]any {
	cols := map[string]any{}
	if u.PasswordHash != nil {
		cols["password_hash"] = *u.PasswordHash
	}
	if u.Role != nil {
		cols["role"] = *u.Role
	}
	if u.IsActive != nil {
		cols["is_active"] = *u.IsActive
	}
	return cols
}

// Empty — в изменении нет ни одного поля.
func (u UserUpdate) Empty() bool { return len(u.columns()) == 0 }

// UserRepository — доступ к справочнику пользователей.
type UserRepository interface {
	// CreateUser вставляет пользователя; занятый логин — ErrDuplicate.
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	// GetUserByID возвращает gorm.ErrRecordNotFound, если пользователя нет.
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	// GetActiveUserByUsername ищет только активные учётные записи.
	GetActiveUserByUsername(ctx context.Context, username string) (*model.User, error)
	// ListUsers — новые первыми.
	ListUsers(ctx context.Context) ([]model.User, error)
	CountUsers(ctx context.Context) (int64, error)
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	// DeleteUserCascade удаляет секреты пользователя и его самого в одной транзакции.
	DeleteUserCascade(ctx context.Context, id int64) error
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository создаёт реализацию репозитория пользователей.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetActiveUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", username, true).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&users).Error
	return users, err
}

func (r *userRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}

func (r *userRepo) UpdateUser(ctx context.Context, id int64, upd UserUpdate) error {
	cols := upd.columns()
	if len(cols) == 0 {
		return nil
	}
	tx := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(cols)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login", at).Error
}

func (r *userRepo) DeleteUserCascade(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", id).Delete(&model.Secret{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// IsNotFound — запись не найдена.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
