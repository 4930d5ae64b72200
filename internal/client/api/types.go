package api

import (
	"time"

	"github.com/olegsv/lumacli/internal/client/models"
)

// LoginResult is what a successful credential exchange yields. ExpiresAt is
// zero when the backend supplied no expiry and the token carries none.
type LoginResult struct {
	Token     string
	User      *models.User
	ExpiresAt time.Time
}

// RegisterRequest carries the sign-up fields. The backend returns a profile
// only, never a token, for this call.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Location  string `json:"location,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *models.User `json:"user"`
}

type verifyResponse struct {
	Valid bool         `json:"valid"`
	User  *models.User `json:"user"`
}

// errorBody is the backend's error envelope. Either detail or message holds
// the human-readable text; field-level validation errors arrive in errors or
// as a bare field.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Field   string `json:"field"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (b *errorBody) text() string {
	if b.Detail != "" {
		return b.Detail
	}
	return b.Message
}

func (b *errorBody) field() string {
	if b.Field != "" {
		return b.Field
	}
	if len(b.Errors) > 0 {
		return b.Errors[0].Field
	}
	return ""
}
