package commands

import (
	"KeyVault/internal/cli/api"
	fsrepo "KeyVault/internal/cli/repo/fs"
	"KeyVault/internal/cli/service"
	"KeyVault/internal/config"
)

// authStore — файловое хранилище токена и логина по пути из конфигурации.
func authStore(cfg *config.Config) fsrepo.AuthFSStore {
	return fsrepo.AuthFSStore{TokenPath: cfg.TokenFile}
}

func newAuthService(cfg *config.Config) service.AuthService {
	st := authStore(cfg)
	return service.NewAuthService(cfg.ServerURL, st, st)
}

func newKeyService(cfg *config.Config) (service.KeyService, error) {
	var opts []api.Option
	if cfg.CacheSize > 0 {
		opts = append(opts, api.WithKeyCache(cfg.CacheSize, cfg.CacheTTL))
	}
	return service.NewKeyService(cfg.ServerURL, authStore(cfg), opts...)
}
