package analysis

import (
	"fmt"
	"strings"

	"github.com/callvia/callvia/pkg/call"
)

// extractionFraming instructs the model to return the structured schema.
// The schema field names must stay in sync with the extraction struct in
// decode.go.
const extractionFraming = `You are an analyst reviewing the transcript of a completed customer call.
Identify the customer's business needs and recommend product features that address them.
Respond with a single JSON object and nothing else, using this exact schema:
{
  "extracted_needs": "<one paragraph summarizing the customer's needs>",
  "recommendations": [{"feature": "...", "description": "...", "benefit": "..."}],
  "generated_artifacts": ["<reusable text template the customer could use>"],
  "estimated_savings": {"hours_per_week": 0, "dollars_per_month": 0, "confidence_tier": "low|medium|high"}
}`

// buildExtractionInput renders the full transcript as the user message for
// the extraction request
func buildExtractionInput(transcript []call.Turn) string {
	var b strings.Builder
	b.WriteString("Call transcript:\n\n")

	for _, turn := range transcript {
		b.WriteString(fmt.Sprintf("%s: %s\n", turn.Speaker, turn.Text))
	}

	return b.String()
}
