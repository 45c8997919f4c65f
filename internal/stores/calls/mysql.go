package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/callvia/callvia/internal/analysis"
	"github.com/callvia/callvia/pkg/call"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Store interface defines the persistence collaborator for finalized calls
// and their analysis results
type Store interface {
	SaveFinalizedCall(ctx context.Context, session *call.Session) error
	SaveAnalysisResult(ctx context.Context, result *analysis.Result) error
	ContactEmail(ctx context.Context, accountID string) (string, error)
}

// MySqlStore handles call persistence using GORM
type MySqlStore struct {
	db *gorm.DB
}

// NewMySqlStore creates a new call store with GORM connection
func NewMySqlStore(databaseURL string) (*MySqlStore, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &MySqlStore{db: db}

	// Auto-migrate tables
	if err := db.AutoMigrate(&Account{}, &CallRecord{}, &TurnRecord{}, &AnalysisRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// GetDB returns the underlying GORM database connection
func (s *MySqlStore) GetDB() *gorm.DB {
	return s.db
}

// SaveFinalizedCall persists a finalized session and its transcript in a
// single transaction
func (s *MySqlStore) SaveFinalizedCall(ctx context.Context, session *call.Session) error {
	record := &CallRecord{
		ID:                session.ID,
		AccountID:         session.AccountID,
		OriginNumber:      session.OriginNumber,
		DestinationNumber: session.DestinationNumber,
		StartedAt:         session.StartedAt,
		EndedAt:           session.EndedAt(),
		EndReason:         string(session.EndReason()),
		DurationSeconds:   int(session.Duration().Seconds()),
	}

	transcript := session.Transcript()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create call record: %w", err)
		}

		for i, turn := range transcript {
			turnRecord := &TurnRecord{
				CallID:   session.ID,
				Position: i,
				Speaker:  string(turn.Speaker),
				Text:     turn.Text,
				SpokenAt: turn.Timestamp,
			}
			if err := tx.Create(turnRecord).Error; err != nil {
				return fmt.Errorf("failed to create turn record: %w", err)
			}
		}

		return nil
	})
}

// SaveAnalysisResult persists an analysis result
func (s *MySqlStore) SaveAnalysisResult(ctx context.Context, result *analysis.Result) error {
	recommendations, err := json.Marshal(result.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	artifacts, err := json.Marshal(result.GeneratedArtifacts)
	if err != nil {
		return fmt.Errorf("failed to marshal artifacts: %w", err)
	}

	record := &AnalysisRecord{
		CallID:          result.SessionID,
		AccountID:       result.AccountID,
		ExtractedNeeds:  result.ExtractedNeeds,
		Recommendations: string(recommendations),
		Artifacts:       string(artifacts),
		HoursPerWeek:    result.Savings.HoursPerWeek,
		DollarsPerMonth: result.Savings.DollarsPerMonth,
		ConfidenceTier:  result.Savings.ConfidenceTier,
		RawModelOutput:  result.RawModelOutput,
		GeneratedAt:     result.GeneratedAt,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create analysis record: %w", err)
	}

	return nil
}

// ContactEmail returns the contact address for an account
func (s *MySqlStore) ContactEmail(ctx context.Context, accountID string) (string, error) {
	var account Account
	result := s.db.WithContext(ctx).First(&account, "account_id = ?", accountID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("account not found")
		}
		return "", fmt.Errorf("failed to get account: %w", result.Error)
	}

	if account.ContactEmail == "" {
		return "", fmt.Errorf("account has no contact email")
	}

	return account.ContactEmail, nil
}

// Close closes the database connection
func (s *MySqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}
