package call

import (
	"errors"
	"net/http"

	"github.com/callvia/callvia/internal/orchestrator"
	callpkg "github.com/callvia/callvia/pkg/call"
	"github.com/callvia/callvia/pkg/sdk"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Controller handles the call session endpoints
type Controller struct {
	orch *orchestrator.Orchestrator
}

// StartCall handles POST requests to start a new call session
func (ctl *Controller) StartCall(c *gin.Context) {
	// Parse request body
	var req sdk.StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	result, err := ctl.orch.StartSession(c.Request.Context(), req.DestinationNumber, req.OriginNumber)
	if err != nil {
		// A rejection carries a caller-facing message; everything else is internal
		var rejection *orchestrator.RejectionError
		if errors.As(err, &rejection) {
			c.JSON(sdk.NewErrorResponse(http.StatusForbidden, rejection.Message, string(rejection.Reason)).AsGinResponse())
			return
		}
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to start call", err.Error()).AsGinResponse())
		return
	}

	resp := sdk.StartCallResponse{
		SessionID: result.SessionID.String(),
		Greeting:  result.Greeting,
	}
	c.JSON(sdk.NewSuccessResponse("Call started successfully", resp).AsGinResponse())
}

// PostTurn handles POST requests to submit a caller turn to an active session
func (ctl *Controller) PostTurn(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	// Parse request body
	var req sdk.PostTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	result, err := ctl.orch.SubmitTurn(c.Request.Context(), id, req.Text)
	if err != nil {
		if errors.Is(err, callpkg.ErrSessionNotFound) {
			c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Call session not found", nil).AsGinResponse())
			return
		}
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to process turn", err.Error()).AsGinResponse())
		return
	}

	resp := sdk.PostTurnResponse{
		Reply:            result.Reply,
		RemainingSeconds: result.RemainingSeconds,
	}
	c.JSON(sdk.NewSuccessResponse("Turn processed successfully", resp).AsGinResponse())
}

// EndCall handles POST requests to end an active session
func (ctl *Controller) EndCall(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	// The reason is optional free text
	var req sdk.EndCallRequest
	_ = c.ShouldBindJSON(&req)

	result, err := ctl.orch.EndSession(c.Request.Context(), id, req.Reason)
	if err != nil {
		if errors.Is(err, callpkg.ErrSessionNotFound) {
			c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Call session not found", nil).AsGinResponse())
			return
		}
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to end call", err.Error()).AsGinResponse())
		return
	}

	resp := sdk.EndCallResponse{
		FinalMessage:    result.FinalMessage,
		DurationSeconds: result.DurationSeconds,
	}
	c.JSON(sdk.NewSuccessResponse("Call ended successfully", resp).AsGinResponse())
}

// ListActiveCalls handles GET requests for a snapshot of active sessions
func (ctl *Controller) ListActiveCalls(c *gin.Context) {
	summaries := ctl.orch.ListActiveSessions()

	calls := make([]sdk.ActiveCall, 0, len(summaries))
	for _, summary := range summaries {
		calls = append(calls, sdk.ActiveCall{
			SessionID:        summary.SessionID.String(),
			AccountID:        summary.AccountID,
			ElapsedSeconds:   summary.ElapsedSeconds,
			RemainingSeconds: summary.RemainingSeconds,
		})
	}

	c.JSON(sdk.NewSuccessResponse("Active calls retrieved successfully", calls).AsGinResponse())
}

// parseSessionID parses the uuid path parameter, writing the error response
// itself on failure
func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid session id", err.Error()).AsGinResponse())
		return uuid.Nil, false
	}
	return id, true
}
