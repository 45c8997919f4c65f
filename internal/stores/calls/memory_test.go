package calls_test

import (
	"context"
	"testing"
	"time"

	"github.com/callvia/callvia/internal/analysis"
	"github.com/callvia/callvia/internal/stores/calls"
	"github.com/callvia/callvia/pkg/call"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreSaveFinalizedCall(t *testing.T) {
	assert := assert.New(t)

	store := calls.NewMemoryStore()
	ctx := context.Background()

	session := call.NewSession(uuid.New(), "A1", "+1-555-0000", "+1-800-1000", 30*time.Minute)
	session.Append(call.Turn{Speaker: call.SpeakerSystem, Text: "Hello!"})
	session.End(call.EndReasonManual)

	assert.Nil(store.SaveFinalizedCall(ctx, session))

	finalized, exists := store.GetFinalizedCall(session.ID)
	assert.True(exists)
	assert.Len(finalized.Transcript, 1)

	// Double persistence of the same session is an error
	assert.NotNil(store.SaveFinalizedCall(ctx, session))
}

func TestMemoryStoreAnalysisResults(t *testing.T) {
	assert := assert.New(t)

	store := calls.NewMemoryStore()
	ctx := context.Background()
	sessionID := uuid.New()

	assert.Empty(store.GetAnalysisResults(sessionID))

	result := &analysis.Result{SessionID: sessionID, AccountID: "A1"}
	assert.Nil(store.SaveAnalysisResult(ctx, result))

	results := store.GetAnalysisResults(sessionID)
	assert.Len(results, 1)
	assert.Equal("A1", results[0].AccountID)
}

func TestMemoryStoreContactEmail(t *testing.T) {
	assert := assert.New(t)

	store := calls.NewMemoryStore()
	ctx := context.Background()

	_, err := store.ContactEmail(ctx, "A1")
	assert.NotNil(err)

	store.SetContact("A1", "owner@bakery.test")
	email, err := store.ContactEmail(ctx, "A1")
	assert.Nil(err)
	assert.Equal("owner@bakery.test", email)
}
