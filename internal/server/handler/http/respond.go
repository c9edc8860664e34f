package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/reanahub/reana-relay/internal/apperrors"
)

// writeJSON writes v as a JSON response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates err into its HTTP status and a JSON body of the
// form {"message": <detail>}. Upstream messages are preserved verbatim so
// the caller can decide whether to resubmit.
func writeError(w http.ResponseWriter, err error) {
	msg := err.Error()
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	writeJSON(w, apperrors.HTTPStatus(err), map[string]string{"message": msg})
}
