package repository

import (
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	customerrors "github.com/axellelanca/pitico/internal/errors"
	"github.com/axellelanca/pitico/internal/models"
)

// OpenSQLite opens (creating if absent) the SQLite database at path, ensures the
// urls schema and returns the store. Safe to call on an existing database.
func OpenSQLite(path string, logger *logrus.Logger) (*GormURLRepository, error) {
	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{
		Logger: gormlogger.New(logger.WithField("module", "gorm"), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrapf(customerrors.ErrStorageUnavailable, "open sqlite database %s: %v", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrapf(customerrors.ErrStorageUnavailable, "get underlying sql database: %v", err)
	}
	// Register depends on a single connection serializing its transactions.
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return NewURLRepository(db, logger), nil
}

// Migrate creates the urls table and its unique indexes if they do not exist.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.URL{}); err != nil {
		return errors.Wrapf(customerrors.ErrStorageUnavailable, "migrate schema: %v", err)
	}
	return nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)"
}
