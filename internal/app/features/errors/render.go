package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dalemusser/tripjournal/internal/app/system/limits"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// RenderError writes the standard error body.
func RenderError(w http.ResponseWriter, status int, code, msg string) {
	JSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

// RenderBadRequest writes a 400 INVALID_ARGUMENT.
func RenderBadRequest(w http.ResponseWriter, msg string) {
	RenderError(w, http.StatusBadRequest, "INVALID_ARGUMENT", msg)
}

// Decode reads a JSON request body into v. Unknown fields are rejected.
func Decode(r *http.Request, v any) error {
	return DecodeLimit(r, v, limits.MaxJSONBody)
}

// DecodeLimit is Decode with an explicit body size bound. A body over max is
// reported as too large rather than as malformed JSON.
func DecodeLimit(r *http.Request, v any, max int64) error {
	if r.Body == nil {
		return fmt.Errorf("request body is required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, max))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return fmt.Errorf("request body too large (limit %d bytes)", tooLarge.Limit)
		case err == io.EOF:
			return fmt.Errorf("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}
