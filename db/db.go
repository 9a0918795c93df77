package db

import (
	"time"

	"gamelog/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to postgres and routes gorm's logging through log.
func Open(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), Config(log))
}

// Config is the gorm configuration shared by every dialect the service runs on.
func Config(log *logrus.Logger) *gorm.Config {
	cfg := &gorm.Config{TranslateError: true}
	if log != nil {
		cfg.Logger = logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	} else {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	return cfg
}

// Migrate creates or updates the tables for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Game{}, &models.Review{}, &models.List{})
}
