package service

import (
	"KeyVault/internal/access"
	"KeyVault/internal/model"
	"KeyVault/internal/repo"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cipher — шифр значений секретов.
type Cipher interface {
	Encrypt(plain []byte) ([]byte, error)
	Decrypt(blob []byte) ([]byte, error)
}

// SecretValue — расшифрованный секрет с метаданными.
type SecretValue struct {
	Name        string
	Value       string
	Description string
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SecretInfo — метаданные без значения.
type SecretInfo struct {
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SecretPatch — частичное изменение: nil-поле отсутствует в запросе.
type SecretPatch struct {
	Value       *string
	Description *string
}

// Empty — в запросе нет ни одного распознанного поля.
func (p SecretPatch) Empty() bool { return p.Value == nil && p.Description == nil }

// SecretStore — операции над секретами от имени явно переданного вызывающего.
type SecretStore interface {
	Create(ctx context.Context, caller access.Identity, name, value, description string) error
	Get(ctx context.Context, caller access.Identity, name string) (*SecretValue, error)
	List(ctx context.Context, caller access.Identity) ([]SecretInfo, error)
	Update(ctx context.Context, caller access.Identity, name string, patch SecretPatch) error
	Delete(ctx context.Context, caller access.Identity, name string) error
}

// SecretService инкапсулирует бизнес-логику работы с секретами.
type SecretService struct {
	repo   repo.SecretRepository
	cipher Cipher
}

var _ SecretStore = (*SecretService)(nil)

func NewSecretService(r repo.SecretRepository, c Cipher) *SecretService {
	return &SecretService{repo: r, cipher: c}
}

// Create шифрует и сохраняет секрет; вызывающий становится владельцем.
func (s *SecretService) Create(ctx context.Context, caller access.Identity, name, value, description string) error {
	if !access.CanCreateSecret(caller) {
		return ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return validationf("key name cannot be empty")
	}
	blob, err := s.cipher.Encrypt([]byte(value))
	if err != nil {
		return fmt.Errorf("%w: encrypt: %w", ErrCrypto, err)
	}
	err = s.repo.Create(ctx, &model.Secret{
		Name:           name,
		EncryptedValue: blob,
		Description:    strings.TrimSpace(description),
		OwnerID:        caller.UserID,
		CreatedBy:      caller.Username,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return ErrDuplicateName
	}
	if err != nil {
		return internal("create secret", err)
	}
	return nil
}

// Get возвращает расшифрованное значение. Отсутствующий и чужой секрет
// неразличимы: оба — ErrNotFound.
func (s *SecretService) Get(ctx context.Context, caller access.Identity, name string) (*SecretValue, error) {
	sec, err := s.lookup(ctx, caller, name)
	if err != nil {
		return nil, err
	}
	plain, err := s.cipher.Decrypt(sec.EncryptedValue)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt: %w", ErrCrypto, err)
	}
	return &SecretValue{
		Name:        sec.Name,
		Value:       string(plain),
		Description: sec.Description,
		OwnerID:     sec.OwnerID,
		CreatedAt:   sec.CreatedAt,
		UpdatedAt:   sec.UpdatedAt,
	}, nil
}

// List — метаданные видимых вызывающему секретов, новые первыми.
func (s *SecretService) List(ctx context.Context, caller access.Identity) ([]SecretInfo, error) {
	if !caller.Authenticated() {
		return nil, ErrForbidden
	}
	var owner *int64
	if !caller.IsAdmin() {
		uid := caller.UserID
		owner = &uid
	}
	rows, err := s.repo.ListMeta(ctx, owner)
	if err != nil {
		return nil, internal("list secrets", err)
	}
	out := make([]SecretInfo, 0, len(rows))
	for _, r := range rows {
		createdBy := r.CreatedBy
		if r.OwnerUsername != nil && *r.OwnerUsername != "" {
			createdBy = *r.OwnerUsername
		}
		out = append(out, SecretInfo{
			Name:        r.Name,
			Description: r.Description,
			CreatedBy:   createdBy,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return out, nil
}

// Update применяет частичное изменение. Пустой patch — успешный no-op.
func (s *SecretService) Update(ctx context.Context, caller access.Identity, name string, patch SecretPatch) error {
	sec, err := s.lookup(ctx, caller, name)
	if err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}
	var upd repo.SecretUpdate
	if patch.Value != nil {
		blob, err := s.cipher.Encrypt([]byte(*patch.Value))
		if err != nil {
			return fmt.Errorf("%w: encrypt: %w", ErrCrypto, err)
		}
		upd.EncryptedValue = blob
	}
	if patch.Description != nil {
		d := strings.TrimSpace(*patch.Description)
		upd.Description = &d
	}
	if err := s.repo.Update(ctx, sec.ID, upd); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return internal("update secret", err)
	}
	return nil
}

// Delete удаляет секрет безвозвратно.
func (s *SecretService) Delete(ctx context.Context, caller access.Identity, name string) error {
	sec, err := s.lookup(ctx, caller, name)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sec.ID); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return internal("delete secret", err)
	}
	return nil
}

// lookup находит секрет и применяет политику доступа.
func (s *SecretService) lookup(ctx context.Context, caller access.Identity, name string) (*model.Secret, error) {
	sec, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, internal("get secret", err)
	}
	if !access.CanAccessSecret(caller, sec.OwnerID) {
		return nil, ErrNotFound
	}
	return sec, nil
}
