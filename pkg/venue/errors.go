package venue

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError carries the HTTP status and venue error body for a failed call.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("venue %s %s status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// IsAuthError reports whether err is a venue rejection of the bearer token.
// This is the trigger for the session manager's single transparent re-auth.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return false
}
