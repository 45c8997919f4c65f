package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/callvia/callvia/internal/analysis"
	"github.com/callvia/callvia/internal/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func testResult() *analysis.Result {
	return &analysis.Result{
		SessionID:          uuid.New(),
		AccountID:          "A1",
		ExtractedNeeds:     "Needs order automation",
		Recommendations:    []analysis.Recommendation{{Feature: "Online ordering"}},
		GeneratedArtifacts: []string{},
		GeneratedAt:        time.Now().UTC(),
	}
}

func TestWebhookNotifierDelivers(t *testing.T) {
	assert := assert.New(t)

	var received struct {
		Contact string           `json:"contact"`
		Result  *analysis.Result `json:"result"`
	}
	var gotSecret string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-CLIENT-SECRET")
		assert.Nil(json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := notify.NewWebhookNotifier(server.URL, "s3cret")
	result := testResult()

	err := notifier.SendAnalysisNotification(context.Background(), "owner@bakery.test", result)
	assert.Nil(err)
	assert.Equal("owner@bakery.test", received.Contact)
	assert.Equal(result.SessionID, received.Result.SessionID)
	assert.Equal("s3cret", gotSecret)
}

func TestWebhookNotifierErrorStatus(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := notify.NewWebhookNotifier(server.URL, "")
	err := notifier.SendAnalysisNotification(context.Background(), "owner@bakery.test", testResult())
	assert.NotNil(err)
	assert.Contains(err.Error(), "502")
}

func TestWebhookNotifierUnreachable(t *testing.T) {
	assert := assert.New(t)

	notifier := notify.NewWebhookNotifier("http://127.0.0.1:1/callback", "")
	err := notifier.SendAnalysisNotification(context.Background(), "owner@bakery.test", testResult())
	assert.NotNil(err)
}
