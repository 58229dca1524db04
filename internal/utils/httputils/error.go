package httputils

import (
	"errors"
	"net/http"
)

// HTTPError carries the status code a handler should answer with.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func BadRequest(message string) *HTTPError {
	return &HTTPError{Code: http.StatusBadRequest, Message: message}
}

// HandleError writes err as a JSON error body. Errors that are not an
// *HTTPError become a 500 without leaking their text.
func HandleError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		JSONError(w, httpErr.Code, httpErr.Message)
		return
	}
	JSONError(w, http.StatusInternalServerError, "Internal server error")
}
