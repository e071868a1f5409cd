package model

import "time"

// APIResponse is the envelope returned by every endpoint except the
// authenticate/refresh pair, which use AuthenticationResponse.
type APIResponse struct {
	Code      int       `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Response  any       `json:"response"`
}

func NewAPIResponse(code int, message string, response any) APIResponse {
	return APIResponse{
		Code:      code,
		Timestamp: time.Now().UTC(),
		Message:   message,
		Response:  response,
	}
}

// AuthenticationResponse is the body for authenticate and refresh-token.
// Tokens are omitted on the register acknowledgment.
type AuthenticationResponse struct {
	Status       int       `json:"status"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	AccessToken  string    `json:"accessToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
}

func NewAuthenticationResponse(status int, message string, accessToken string, refreshToken string) AuthenticationResponse {
	return AuthenticationResponse{
		Status:       status,
		Message:      message,
		Timestamp:    time.Now().UTC(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

type TaskResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     *Date  `json:"dueDate"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

func TaskToResponse(t Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
		Status:      t.Status,
	}
}
