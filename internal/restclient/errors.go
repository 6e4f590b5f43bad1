package restclient

import "fmt"

// APIError is a non-2xx response from the REST collaborator. The backend
// reports failures as {"message": "..."} with a meaningful status code.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: request failed with status %d", e.StatusCode)
}
