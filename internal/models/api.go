// Package models defines API response types for consistent JSON responses.
package models

// APIStatus enumerates the status values used in API responses.
type APIStatus string

const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	// NotifySMS optionally names an E.164 phone number that receives the
	// finished itinerary by SMS once planning completes.
	NotifySMS string `json:"notify_sms,omitempty"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Response           string        `json:"response"`
	SessionID          string        `json:"session_id"`
	CurrentStep        Step          `json:"current_step"`
	AwaitingUserChoice bool          `json:"awaiting_user_choice"`
	TripProgress       *TripProgress `json:"trip_progress,omitempty"`
	// Persisted is false when the turn was computed but could not be saved;
	// the caller may retry or warn that the session will not resume.
	Persisted bool `json:"persisted"`
}
