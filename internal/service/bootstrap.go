package service

import (
	"KeyVault/internal/access"
	"context"
	"errors"

	"go.uber.org/zap"
)

// EnsureAdmin создаёт первую учётную запись администратора, если справочник пуст.
// Без пароля в конфигурации ничего не делает: встроенных учётных данных нет.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string, logger *zap.SugaredLogger) error {
	n, err := s.repo.CountUsers(ctx)
	if err != nil {
		return internal("count users", err)
	}
	if n > 0 {
		return nil
	}
	if password == "" {
		logger.Warnw("No users exist and ADMIN_PASSWORD is not set; the directory stays empty")
		return nil
	}
	_, err = s.create(ctx, username, password, string(access.RoleAdmin))
	if errors.Is(err, ErrDuplicateUsername) {
		// параллельный старт другого экземпляра успел раньше
		return nil
	}
	if err != nil {
		return err
	}
	logger.Infow("Bootstrap admin account created", "username", username)
	return nil
}
