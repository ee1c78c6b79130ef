package service

import (
	"KeyVault/internal/cli/api"
	"KeyVault/internal/cli/repo"
	"context"
	"errors"
	"fmt"
)

// AuthService описывает юзкейс-уровень аутентификации для CLI.
type AuthService interface {
	// Login получает токен сервера и сохраняет его локально.
	Login(ctx context.Context, login, password string) (*api.LoginResult, error)

	// Logout фиксирует выход на сервере и очищает локальный контекст аутентификации.
	Logout(ctx context.Context) error

	// CurrentUser возвращает логин и роль текущего пользователя, если он установлен.
	CurrentUser() (login, role string, err error)
}

// authServiceHTTP — реализация AuthService поверх HTTP API и файлового хранилища.
type authServiceHTTP struct {
	baseURL string
	tokens  repo.TokenStore
	users   repo.UserContextStore
	opts    []api.Option
}

// NewAuthService конструктор сервиса аутентификации.
func NewAuthService(baseURL string, tokens repo.TokenStore, users repo.UserContextStore, opts ...api.Option) AuthService {
	return &authServiceHTTP{baseURL: baseURL, tokens: tokens, users: users, opts: opts}
}

func (s *authServiceHTTP) Login(ctx context.Context, login, password string) (*api.LoginResult, error) {
	res, err := api.NewClient(s.baseURL, "", s.opts...).Login(ctx, login, password)
	if errors.Is(err, api.ErrUnauthorized) {
		return nil, errors.New("invalid login or password")
	}
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(res.Token); err != nil {
		return nil, fmt.Errorf("saving auth: %w", err)
	}
	if err := s.users.SaveLogin(res.User, res.Role); err != nil {
		return nil, fmt.Errorf("saving login: %w", err)
	}
	return res, nil
}

// Logout удаляет локальный токен даже если сервер недоступен или токен уже истёк.
func (s *authServiceHTTP) Logout(ctx context.Context) error {
	tok, err := s.tokens.Load()
	if err != nil {
		return s.tokens.Clear()
	}
	serverErr := api.NewClient(s.baseURL, tok, s.opts...).Logout(ctx)
	if err := s.tokens.Clear(); err != nil {
		return err
	}
	if serverErr != nil && !errors.Is(serverErr, api.ErrUnauthorized) {
		return fmt.Errorf("local session cleared, server logout failed: %w", serverErr)
	}
	return nil
}

func (s *authServiceHTTP) CurrentUser() (string, string, error) {
	return s.users.LoadLogin()
}
