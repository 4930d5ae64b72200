package cli

import (
	"errors"
	"fmt"

	"github.com/olegsv/lumacli/internal/common"
)

// friendlyMessage turns a taxonomy error into the line shown to the user.
func friendlyMessage(err error) string {
	var (
		ve *common.ValidationError
		ae *common.AuthError
		se *common.ServerError
	)

	switch {
	case errors.Is(err, common.ErrAccountCreatedLoginFailed):
		return "Your account was created, but signing in failed. Please sign in manually."
	case errors.As(err, &ve):
		if ve.Field != "" {
			return fmt.Sprintf("Please check the %s field: %s", ve.Field, ve.Message)
		}
		return "Please check your input: " + ve.Message
	case errors.As(err, &ae):
		return ae.Error()
	case errors.Is(err, common.ErrUnavailable):
		return "Could not reach the server. Check your connection and try again."
	case errors.As(err, &se):
		return "The server had a problem. Please try again later."
	default:
		return "Something went wrong: " + err.Error()
	}
}
