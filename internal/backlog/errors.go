package backlog

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorDetail is one entry of a Backlog error response.
type ErrorDetail struct {
	Message  string `json:"message"`
	Code     int    `json:"code"`
	MoreInfo string `json:"moreInfo"`
}

// APIError is returned for any non-2xx response from Backlog.
type APIError struct {
	StatusCode int
	Errors     []ErrorDetail `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("backlog API error: HTTP %d", e.StatusCode)
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		msgs = append(msgs, d.Message)
	}
	return fmt.Sprintf("backlog API error: HTTP %d: %s", e.StatusCode, strings.Join(msgs, "; "))
}

// IsNotFound reports whether err is a Backlog 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
