package sdk

import (
	"encoding/json"

	"github.com/ethanbaker/api/pkg/api_types"
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status  api_types.StatusType `json:"status"`          // Status message
	Code    int                  `json:"code"`            // Status code
	Message string               `json:"message"`         // Human-readable message
	Data    T                    `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any                  `json:"error,omitempty"` // Optional errors field for error responses
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a format suitable for JSON responses
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NewSuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  api_types.StatusSuccess,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  api_types.StatusError,
		Code:    code,
		Message: message,
		Error:   err,
	}
}

/** Requests */

// StartCallRequest represents the request body for starting a call session
type StartCallRequest struct {
	DestinationNumber string `json:"destination_number" binding:"required"`
	OriginNumber      string `json:"origin_number" binding:"required"`
}

// PostTurnRequest represents the request body for submitting a caller turn
type PostTurnRequest struct {
	Text string `json:"text" binding:"required"`
}

// EndCallRequest represents the request body for ending a call session
type EndCallRequest struct {
	Reason string `json:"reason"`
}

/** Responses */

// StartCallResponse is returned when a call session is created
type StartCallResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

// PostTurnResponse is returned for each processed caller turn
type PostTurnResponse struct {
	Reply            string `json:"reply"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// EndCallResponse is returned when a call session is ended
type EndCallResponse struct {
	FinalMessage    string `json:"final_message"`
	DurationSeconds int    `json:"duration_seconds"`
}

// ActiveCall is one row of the active-session listing
type ActiveCall struct {
	SessionID        string `json:"session_id"`
	AccountID        string `json:"account_id"`
	ElapsedSeconds   int    `json:"elapsed_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
}
