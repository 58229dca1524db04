package httputils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wgomg/vocabula/internal/utils"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"http error", BadRequest("missing text"), http.StatusBadRequest, "missing text"},
		{"wrapped http error", fmt.Errorf("decode: %w", &HTTPError{Code: http.StatusUnsupportedMediaType, Message: "bad type"}), http.StatusUnsupportedMediaType, "bad type"},
		{"plain error", errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["error"] != tt.wantMsg {
				t.Errorf("error = %q, want %q", body["error"], tt.wantMsg)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Text string `json:"text"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"rosa"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if err := DecodeJSON(httptest.NewRecorder(), req, &v); err != nil || v.Text != "rosa" {
		t.Fatalf("DecodeJSON = %v, text %q", err, v.Text)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"rosa"}`))
	req.Header.Set("Content-Type", "text/plain")
	var httpErr *HTTPError
	if err := DecodeJSON(httptest.NewRecorder(), req, &v); !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("wrong content type err = %v", err)
	}

	big := `{"text":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	if err := DecodeJSON(httptest.NewRecorder(), req, &v); !errors.As(err, &httpErr) || httpErr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body err = %v", err)
	}
}

func TestLogRequestBodyBounded(t *testing.T) {
	logger := utils.NewDiscardLogger()
	logger.RawBodyLog = true

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"rosa"}`))
	if err := LogRequestBody(httptest.NewRecorder(), req, logger, nil); err != nil {
		t.Fatalf("LogRequestBody: %v", err)
	}
	rest, err := io.ReadAll(req.Body)
	if err != nil || string(rest) != `{"text":"rosa"}` {
		t.Errorf("body after logging = %q (%v), want it intact", rest, err)
	}

	big := strings.Repeat("a", MaxBodyBytes+1)
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	var httpErr *HTTPError
	if err := LogRequestBody(httptest.NewRecorder(), req, logger, nil); !errors.As(err, &httpErr) || httpErr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body err = %v, want 413", err)
	}
}
