package sdk

import (
	"context"
	"fmt"
	"net/http"
)

// StartCall starts a new call session for a destination/origin number pair
func (c *Client) StartCall(ctx context.Context, destinationNumber, originNumber string) (*StartCallResponse, error) {
	req := StartCallRequest{
		DestinationNumber: destinationNumber,
		OriginNumber:      originNumber,
	}

	var resp ApiResponse[StartCallResponse]
	if err := c.doJSON(ctx, http.MethodPost, "/api/calls/sessions", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to start call: %w", err)
	}

	return &resp.Data, nil
}

// PostTurn submits one caller utterance to an active session
func (c *Client) PostTurn(ctx context.Context, sessionID, text string) (*PostTurnResponse, error) {
	req := PostTurnRequest{Text: text}

	var resp ApiResponse[PostTurnResponse]
	path := fmt.Sprintf("/api/calls/sessions/%s/turn", sessionID)
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to post turn: %w", err)
	}

	return &resp.Data, nil
}

// EndCall ends an active session
func (c *Client) EndCall(ctx context.Context, sessionID, reason string) (*EndCallResponse, error) {
	req := EndCallRequest{Reason: reason}

	var resp ApiResponse[EndCallResponse]
	path := fmt.Sprintf("/api/calls/sessions/%s/end", sessionID)
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to end call: %w", err)
	}

	return &resp.Data, nil
}

// ListActiveCalls returns a snapshot of the currently active sessions
func (c *Client) ListActiveCalls(ctx context.Context) ([]ActiveCall, error) {
	var resp ApiResponse[[]ActiveCall]
	if err := c.doJSON(ctx, http.MethodGet, "/api/calls/sessions", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list active calls: %w", err)
	}

	return resp.Data, nil
}
