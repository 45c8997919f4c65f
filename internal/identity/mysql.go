package identity

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NumberBinding is the database row binding a destination number to an
// account. Number-pool allocation is managed elsewhere; this resolver only
// reads the bindings it produces.
type NumberBinding struct {
	gorm.Model
	DestinationNumber string `gorm:"size:32;uniqueIndex;not null"`
	OriginNumber      string `gorm:"size:32;not null"`
	AccountID         string `gorm:"size:64;not null;index"`
	Active            bool   `gorm:"not null;default:true"`
}

// MySqlResolver resolves caller identity against the number-binding table
type MySqlResolver struct {
	db *gorm.DB
}

// NewMySqlResolver creates a resolver with a GORM connection
func NewMySqlResolver(databaseURL string) (*MySqlResolver, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	resolver := &MySqlResolver{db: db}

	// Auto-migrate tables
	if err := db.AutoMigrate(&NumberBinding{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return resolver, nil
}

// NewMySqlResolverWithDB creates a resolver over an existing connection
func NewMySqlResolverWithDB(db *gorm.DB) (*MySqlResolver, error) {
	if err := db.AutoMigrate(&NumberBinding{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}
	return &MySqlResolver{db: db}, nil
}

// Resolve looks up the destination number's bindings and matches the origin
// number against them. A database failure is returned as an error so the
// caller can map it to a verification failure.
func (r *MySqlResolver) Resolve(ctx context.Context, destinationNumber, originNumber string) (Result, error) {
	var bindings []NumberBinding
	result := r.db.WithContext(ctx).
		Where("destination_number = ? AND active = ?", destinationNumber, true).
		Find(&bindings)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Invalid(ReasonNotAssigned), nil
		}
		return Result{}, fmt.Errorf("failed to query number bindings: %w", result.Error)
	}

	if len(bindings) == 0 {
		return Invalid(ReasonNotAssigned), nil
	}

	for _, binding := range bindings {
		if binding.OriginNumber == "" || binding.OriginNumber == originNumber {
			return Valid(binding.AccountID), nil
		}
	}

	return Invalid(ReasonPhoneMismatch), nil
}

// Close closes the database connection
func (r *MySqlResolver) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}
