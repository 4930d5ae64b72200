package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/olegsv/lumacli/internal/common"
)

// responseError classifies an unsuccessful HTTP response into the shared
// error taxonomy. The body is consumed; its detail/message text and any
// field attribution are passed through unchanged.
func responseError(resp *http.Response) error {
	var body errorBody
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil {
		_ = json.Unmarshal(data, &body)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &common.AuthError{Message: body.text()}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return &common.ValidationError{Field: body.field(), Message: body.text()}
	case resp.StatusCode >= 500:
		return &common.ServerError{Status: resp.StatusCode, Message: body.text()}
	default:
		return &common.ServerError{Status: resp.StatusCode, Message: body.text()}
	}
}
