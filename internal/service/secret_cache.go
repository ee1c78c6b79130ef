package service

import (
	"KeyVault/internal/access"
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedSecretStore — необязательный кэш расшифрованных секретов поверх SecretStore.
// Кэш не авторитетен: политика доступа проверяется на каждом попадании, а изменение
// и удаление явно инвалидируют запись.
type CachedSecretStore struct {
	next  SecretStore
	cache *expirable.LRU[string, SecretValue]
}

var _ SecretStore = (*CachedSecretStore)(nil)

func NewCachedSecretStore(next SecretStore, size int, ttl time.Duration) *CachedSecretStore {
	return &CachedSecretStore{
		next:  next,
		cache: expirable.NewLRU[string, SecretValue](size, nil, ttl),
	}
}

func (c *CachedSecretStore) Create(ctx context.Context, caller access.Identity, name, value, description string) error {
	return c.next.Create(ctx, caller, name, value, description)
}

func (c *CachedSecretStore) Get(ctx context.Context, caller access.Identity, name string) (*SecretValue, error) {
	if v, ok := c.cache.Get(name); ok {
		if !access.CanAccessSecret(caller, v.OwnerID) {
			return nil, ErrNotFound
		}
		return &v, nil
	}
	v, err := c.next.Get(ctx, caller, name)
	if err != nil {
		return nil, err
	}
	c.cache.Add(name, *v)
	return v, nil
}

func (c *CachedSecretStore) List(ctx context.Context, caller access.Identity) ([]SecretInfo, error) {
	return c.next.List(ctx, caller)
}

func (c *CachedSecretStore) Update(ctx context.Context, caller access.Identity, name string, patch SecretPatch) error {
	err := c.next.Update(ctx, caller, name, patch)
	if err == nil {
		c.cache.Remove(name)
	}
	return err
}

func (c *CachedSecretStore) Delete(ctx context.Context, caller access.Identity, name string) error {
	err := c.next.Delete(ctx, caller, name)
	if err == nil {
		c.cache.Remove(name)
	}
	return err
}

// Invalidate удаляет запись по имени.
func (c *CachedSecretStore) Invalidate(name string) { c.cache.Remove(name) }

// InvalidateAll очищает кэш, например после каскадного удаления пользователя.
func (c *CachedSecretStore) InvalidateAll() { c.cache.Purge() }

// Len — число записей в кэше.
func (c *CachedSecretStore) Len() int { return c.cache.Len() }
