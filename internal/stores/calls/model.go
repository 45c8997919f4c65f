package calls

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is the owning tenant for calls and analysis results
type Account struct {
	gorm.Model
	AccountID    string `gorm:"size:64;uniqueIndex;not null"`
	Name         string `gorm:"size:255"`
	ContactEmail string `gorm:"size:255"`
}

// CallRecord is the durable record of a finalized session
type CallRecord struct {
	gorm.Model
	ID                uuid.UUID `gorm:"type:char(36);primaryKey"`
	AccountID         string    `gorm:"size:64;not null;index"`
	OriginNumber      string    `gorm:"size:32"`
	DestinationNumber string    `gorm:"size:32"`
	StartedAt         time.Time
	EndedAt           time.Time
	EndReason         string `gorm:"size:16"`
	DurationSeconds   int
}

// TurnRecord is one transcript turn of a finalized call, ordered by Position
type TurnRecord struct {
	gorm.Model
	CallID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Position int       `gorm:"not null"`
	Speaker  string    `gorm:"size:16;not null"`
	Text     string    `gorm:"type:text"`
	SpokenAt time.Time
}

// AnalysisRecord is the durable form of an analysis result. Recommendations
// and artifacts are stored as JSON text alongside the raw model output.
type AnalysisRecord struct {
	gorm.Model
	CallID          uuid.UUID `gorm:"type:char(36);not null;index"`
	AccountID       string    `gorm:"size:64;not null;index"`
	ExtractedNeeds  string    `gorm:"type:text"`
	Recommendations string    `gorm:"type:json"`
	Artifacts       string    `gorm:"type:json"`
	HoursPerWeek    float64
	DollarsPerMonth float64
	ConfidenceTier  string `gorm:"size:16"`
	RawModelOutput  string `gorm:"type:text"`
	GeneratedAt     time.Time
}
