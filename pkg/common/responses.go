package common

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	pkgerrors "priorify/pkg/errors"

	"github.com/go-chi/chi/v5/middleware"
)

// APIResponse is the envelope of every successful API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// MetaInfo contains metadata about the response
type MetaInfo struct {
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
}

// APIVersion is reported in response metadata
const APIVersion = "v2"

// RespondJSON sends data wrapped in the response envelope
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta: &MetaInfo{
			RequestID: ExtractRequestID(r),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   APIVersion,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// ExtractRequestID returns the request id assigned by the router, falling
// back to the incoming headers.
func ExtractRequestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return r.Header.Get("X-Amzn-Trace-Id")
}

// ParseJSONBody decodes a JSON body of at most maxBytes into v. Unknown
// fields are rejected.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if err == io.EOF {
			return pkgerrors.NewValidationError("request body is required")
		}
		return pkgerrors.NewValidationError("invalid request body").WithCause(err)
	}
	return nil
}
