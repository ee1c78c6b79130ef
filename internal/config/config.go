package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// ErrMissingAuthSecret и ErrMissingEncryptionKey — ключи обязаны быть заданы извне
// и не меняться между перезапусками.
var (
	ErrMissingAuthSecret    = errors.New("AUTH_SECRET is required")
	ErrMissingEncryptionKey = errors.New("ENCRYPTION_KEY is required")
	ErrMissingTLSFiles      = errors.New("TLS_CERT_FILE and TLS_KEY_FILE are required when ENABLE_HTTPS is set")
)

type Config struct {
	// Server-side settings
	DatabaseDSN   string        `env:"DATABASE_URI"`
	AuthSecret    string        `env:"AUTH_SECRET"`
	EncryptionKey string        `env:"ENCRYPTION_KEY"`
	TokenTTL      time.Duration `env:"TOKEN_TTL"`
	CacheSize     int           `env:"CACHE_SIZE"`
	CacheTTL      time.Duration `env:"CACHE_TTL"`
	AdminUsername string        `env:"ADMIN_USERNAME"`
	AdminPassword string        `env:"ADMIN_PASSWORD"`
	LogLevel      string        `env:"LOG_LEVEL"`
	TrustProxy    bool          `env:"TRUST_PROXY_HEADERS"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// Client-side settings
	ServerURL string `env:"-"`
	TokenFile string `env:"TOKEN_FILE"`
	Version   bool   `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// флаги перекрывают значения из env
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres://... или путь к файлу SQLite)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.EncryptionKey, "encryption-key", cfg.EncryptionKey, "ключ AES-256 для шифрования секретов (hex/base64/32 байта)")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "время жизни токена")
	flag.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "размер кэша расшифрованных секретов (0 — выключен)")
	flag.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "время жизни записи в кэше секретов")
	flag.StringVar(&cfg.AdminUsername, "admin-username", cfg.AdminUsername, "логин администратора при первичной инициализации")
	flag.StringVar(&cfg.AdminPassword, "admin-password", cfg.AdminPassword, "пароль администратора при первичной инициализации")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "уровень логирования: debug|info|warn|error")
	flag.BoolVar(&cfg.TrustProxy, "trust-proxy", cfg.TrustProxy, "брать адрес клиента из X-Forwarded-For/X-Real-IP (только за доверенным прокси)")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the KeyVault server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	flag.StringVar(&cfg.TLSCertFile, "tls-cert", cfg.TLSCertFile, "путь к сертификату TLS (сервер, при -https)")
	flag.StringVar(&cfg.TLSKeyFile, "tls-key", cfg.TLSKeyFile, "путь к ключу TLS (сервер, при -https)")
	// Client flags
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	cfg.applyDefaults()

	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "keystore.db"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.CacheSize < 0 {
		cfg.CacheSize = 0
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:5000"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	if cfg.TokenFile == "" {
		home, _ := os.UserHomeDir()
		cfg.TokenFile = filepath.Join(home, ".keyvault_token")
	}
}

// ValidateServer проверяет, что серверу переданы оба ключа. Ключи не генерируются
// на лету: новый ключ при каждом старте делает старые шифртексты и токены бесполезными.
func (cfg *Config) ValidateServer() error {
	var errs []error
	if cfg.AuthSecret == "" {
		errs = append(errs, ErrMissingAuthSecret)
	}
	if cfg.EncryptionKey == "" {
		errs = append(errs, ErrMissingEncryptionKey)
	}
	if cfg.EnableHTTPS && (cfg.TLSCertFile == "" || cfg.TLSKeyFile == "") {
		errs = append(errs, ErrMissingTLSFiles)
	}
	return errors.Join(errs...)
}
