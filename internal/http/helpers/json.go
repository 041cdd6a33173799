// Package helpers has small request/response utilities shared by the
// controllers.
package helpers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/gussmann/loyalty-auth/internal/http/errors"
)

// maxBodyBytes caps request bodies. The API only ever receives small JSON
// documents.
const maxBodyBytes = 1 << 20

// ReadJSON decodes the request body into dst. Unknown fields are rejected.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.ErrInvalidJSON.WithCause(err)
	}
	return nil
}

// WriteJSON serializes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
