package repository

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/axellelanca/pitico/internal/config"
)

// Open initializes the store selected by cfg.Storage.Driver.
// Failures wrap customerrors.ErrStorageUnavailable.
func Open(cfg *config.Config, logger *logrus.Logger) (URLRepository, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		repo, err := OpenSQLite(cfg.Database.Name, logger)
		if err != nil {
			return nil, err
		}
		logger.WithField("module", "repository").Infof("SQLite store ready at %s", cfg.Database.Name)
		return repo, nil
	case config.DriverRedis:
		repo, err := OpenRedis(RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.WithField("module", "repository").Infof("Redis store ready at %s (prefix %s)", cfg.Redis.Addr, cfg.Redis.KeyPrefix)
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
