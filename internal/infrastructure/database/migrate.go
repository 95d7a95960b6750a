package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jsiptv/mobipay/internal/domain/entity"
)

// Migrate runs schema migrations for the durable ledger
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(&entity.Transaction{}); err != nil {
		return fmt.Errorf("failed to migrate transactions table: %w", err)
	}

	log.Info("Database migrations completed")
	return nil
}
