package analysis

import (
	"encoding/json"
	"strings"
)

// extraction mirrors the JSON schema the model is asked to produce
type extraction struct {
	ExtractedNeeds     string           `json:"extracted_needs"`
	Recommendations    []Recommendation `json:"recommendations"`
	GeneratedArtifacts []string         `json:"generated_artifacts"`
	EstimatedSavings   EstimatedSavings `json:"estimated_savings"`
}

// Decoded is a tagged decode result. Parsed reports whether the model output
// matched the schema; when false the extraction fields hold the documented
// fallback (empty lists, zero savings) and only Raw is meaningful.
type Decoded struct {
	Parsed bool
	Raw    string

	ExtractedNeeds     string
	Recommendations    []Recommendation
	GeneratedArtifacts []string
	Savings            EstimatedSavings
}

// Decode parses a model response into the extraction schema. Malformed
// output never produces an error, only a fallback Decoded, so callers cannot
// forget to handle it.
func Decode(raw string) Decoded {
	fallback := Decoded{
		Parsed:             false,
		Raw:                raw,
		Recommendations:    []Recommendation{},
		GeneratedArtifacts: []string{},
	}

	body := stripCodeFence(raw)
	if body == "" {
		return fallback
	}

	var parsed extraction
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return fallback
	}

	decoded := Decoded{
		Parsed:             true,
		Raw:                raw,
		ExtractedNeeds:     parsed.ExtractedNeeds,
		Recommendations:    parsed.Recommendations,
		GeneratedArtifacts: parsed.GeneratedArtifacts,
		Savings:            parsed.EstimatedSavings,
	}
	if decoded.Recommendations == nil {
		decoded.Recommendations = []Recommendation{}
	}
	if decoded.GeneratedArtifacts == nil {
		decoded.GeneratedArtifacts = []string{}
	}

	return decoded
}

// stripCodeFence removes a surrounding markdown code fence, which models
// commonly wrap JSON responses in despite instructions
func stripCodeFence(raw string) string {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "```") {
		return body
	}

	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
