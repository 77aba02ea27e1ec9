package server

import (
	"encoding/json"
	"net/http"

	"github.com/iyulab/shell-tunnel/internal/apierr"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message, Details: details})
}

// writeAPIErr maps an *apierr.Error (or any error) onto an HTTP response
// per spec §7's propagation policy: errors bubble up to the handler
// verbatim, which maps them onto the table in C12.
func writeAPIErr(w http.ResponseWriter, err error) {
	var apiErr *apierr.Error
	if apierr.As(err, &apiErr) {
		writeError(w, apiErr.Status(), apiErr.Code(), apiErr.Message, apiErr.Details)
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", err.Error())
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apierr.BadRequest("missing request body")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apierr.BadRequest("malformed request body: " + err.Error())
	}
	return nil
}
