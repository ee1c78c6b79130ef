package service

import (
	"KeyVault/internal/access"
	"KeyVault/internal/crypto"
	"KeyVault/internal/model"
	"KeyVault/internal/repo"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// лёгкие параметры Argon2id для тестов
var testArgon = crypto.ArgonParams{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.Migrate(db))
	return db
}

func newTestCipher(t *testing.T) *crypto.EnvelopeCipher {
	t.Helper()
	c, err := crypto.NewEnvelopeCipher(testEncryptionKey)
	require.NoError(t, err)
	return c
}

// seedUser создаёт пользователя и возвращает его идентичность.
func seedUser(t *testing.T, db *gorm.DB, username string, role access.Role) access.Identity {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x", Role: string(role), IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return access.Identity{UserID: u.ID, Username: u.Username, Role: role}
}

func ptrStr(s string) *string { return &s }
func ptrBool(v bool) *bool    { return &v }
