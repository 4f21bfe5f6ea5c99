package database

import (
	"solardash/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Client{},
		&model.ClientAddress{},
		&model.Product{},
		&model.Quotation{},
		&model.QuotationProductLine{},
		&model.QuotationItemLine{},
		&model.Project{},
		&model.ProjectExpense{},
		&model.Invoice{},
	)
	if err != nil {
		zap.L().Warn("failed to auto-migrate models", zap.Error(err))
	}

	return db, nil
}
