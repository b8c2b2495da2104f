package pkg

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/EduCore-2026/quiz-platform/internal/config"
	"github.com/EduCore-2026/quiz-platform/internal/models"
	pgrepo "github.com/EduCore-2026/quiz-platform/internal/repositories/postgres"
)

// InitDatabase opens the PostgreSQL connection, runs migrations and creates
// the indexes AutoMigrate cannot express.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Environment == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&models.Institution{},
		&models.Grade{},
		&models.Subject{},
		&models.User{},
		&models.Quiz{},
		&models.QuizSettings{},
		&models.Question{},
		&models.QuizAttempt{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := pgrepo.EnsureAttemptIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to create attempt indexes: %w", err)
	}

	return db, nil
}
