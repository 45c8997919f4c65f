// Package analysis turns finalized call transcripts into structured
// recommendations, out of band from the live call path.
package analysis

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is one suggested feature for the account
type Recommendation struct {
	Feature     string `json:"feature"`
	Description string `json:"description"`
	Benefit     string `json:"benefit"`
}

// EstimatedSavings quantifies the projected value of the recommendations
type EstimatedSavings struct {
	HoursPerWeek    float64 `json:"hours_per_week"`
	DollarsPerMonth float64 `json:"dollars_per_month"`
	ConfidenceTier  string  `json:"confidence_tier"`
}

// Result is the structured outcome of analyzing one finalized call. It is
// created exactly once per finalized session and never mutated afterward.
type Result struct {
	SessionID uuid.UUID `json:"session_id"`
	AccountID string    `json:"account_id"`

	ExtractedNeeds     string           `json:"extracted_needs"`
	Recommendations    []Recommendation `json:"recommendations"`
	GeneratedArtifacts []string         `json:"generated_artifacts"`
	Savings            EstimatedSavings `json:"estimated_savings"`

	// RawModelOutput keeps the unparsed model response for audit and for
	// a later re-run when decoding fell back
	RawModelOutput string    `json:"raw_model_output"`
	GeneratedAt    time.Time `json:"generated_at"`
}
