package httputils

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/wgomg/vocabula/internal/utils"
)

// MaxBodyBytes bounds request bodies read by DecodeJSON.
const MaxBodyBytes = 32 << 20

func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return &HTTPError{
			Code:    http.StatusUnsupportedMediaType,
			Message: "Content-Type must be application/json",
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if tooLarge(err) {
			return errBodyTooLarge
		}
		return &HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid JSON payload: " + err.Error(),
		}
	}
	return nil
}

// LogRequestBody logs the request body when raw body logging is on and
// leaves r.Body readable. The body is read under the same MaxBodyBytes
// bound as DecodeJSON.
func LogRequestBody(w http.ResponseWriter, r *http.Request, logger *utils.Logger, reqID *string) error {
	if !logger.RawBodyLog {
		return nil
	}

	bodyBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		if tooLarge(err) {
			return errBodyTooLarge
		}
		return err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	logger.Debug(reqID, "Raw request body: %s", utils.Truncate(string(bodyBytes), 2000))
	return nil
}

var errBodyTooLarge = &HTTPError{
	Code:    http.StatusRequestEntityTooLarge,
	Message: "Request body too large",
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
