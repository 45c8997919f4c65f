// Package notify delivers analysis results to account contacts. Delivery is
// best-effort by contract; callers log failures and move on.
package notify

import (
	"context"
	"log"

	"github.com/callvia/callvia/internal/analysis"
)

// LogNotifier writes notifications to the process log. Used in development
// and as the fallback when no webhook is configured.
type LogNotifier struct{}

// SendAnalysisNotification logs the notification instead of delivering it
func (n *LogNotifier) SendAnalysisNotification(ctx context.Context, contact string, result *analysis.Result) error {
	log.Printf("[NOTIFY]: Analysis for session %s ready for %s (%d recommendations)",
		result.SessionID, contact, len(result.Recommendations))
	return nil
}
