package service

import (
	"KeyVault/internal/cli/api"
	"KeyVault/internal/cli/repo"
	"context"
	"errors"
	"fmt"
)

// ErrNotLoggedIn — локального токена нет.
var ErrNotLoggedIn = errors.New("not logged in: run login first")

// KeyService описывает юзкейс-уровень чтения ключей для CLI.
type KeyService interface {
	// List возвращает метаданные видимых ключей.
	List(ctx context.Context) ([]api.KeyInfo, error)
	// Get возвращает расшифрованное значение ключа.
	Get(ctx context.Context, name string) (*api.KeyValue, error)
}

type keyServiceHTTP struct {
	client *api.Client
}

// NewKeyService создаёт сервис с сохранённым токеном.
func NewKeyService(baseURL string, tokens repo.TokenStore, opts ...api.Option) (KeyService, error) {
	tok, err := tokens.Load()
	if err != nil {
		return nil, ErrNotLoggedIn
	}
	return &keyServiceHTTP{client: api.NewClient(baseURL, tok, opts...)}, nil
}

func (s *keyServiceHTTP) List(ctx context.Context) ([]api.KeyInfo, error) {
	keys, err := s.client.ListKeys(ctx)
	return keys, sessionHint(err)
}

func (s *keyServiceHTTP) Get(ctx context.Context, name string) (*api.KeyValue, error) {
	v, err := s.client.GetKey(ctx, name)
	if errors.Is(err, api.ErrNotFound) {
		return nil, fmt.Errorf("key %q not found", name)
	}
	return v, sessionHint(err)
}

func sessionHint(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("session expired or invalid, run login again: %w", err)
	}
	return err
}
