package repo

import (
	"KeyVault/internal/model"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicate — нарушение ограничения уникальности (имя секрета, логин).
var ErrDuplicate = errors.New("duplicate key")

// InitDB открывает БД по DSN и применяет миграции.
// postgres://… и postgresql://… — PostgreSQL, всё остальное — файл SQLite (modernc.org/sqlite).
func InitDB(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(log.New(os.Stderr, "\r\n", log.LstdFlags), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	var (
		db  *gorm.DB
		err error
	)
	if isPostgresDSN(dsn) {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		db, err = gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(dsn)}, cfg)
	}
	if err != nil {
		return nil, err
	}

	if !isPostgresDSN(dsn) {
		// SQLite допускает одного писателя; одно соединение сериализует запросы
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate создаёт таблицы users, secrets и access_log.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.Secret{}, &model.AuditEntry{})
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// sqliteDSN включает проверку внешних ключей, если DSN её не задаёт.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(dsn, "file:") && sep == "?" {
		dsn = "file:" + dsn
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// isUniqueViolation распознаёт нарушение уникальности для обоих драйверов:
// postgres переводится gorm в ErrDuplicatedKey, modernc.org/sqlite — по коду ошибки.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
