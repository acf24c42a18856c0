package sim

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/indcloud/console/data"
)

func decode(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

func encode(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = encode(w, v)
}

// writeOK writes the success envelope used by mutations
func writeOK(w http.ResponseWriter, msg string, v interface{}) {
	writeJSON(w, http.StatusOK, data.APIResponse[interface{}]{Success: true, Message: msg, Data: v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, data.ErrorResponse{
		Status:  status,
		Error:   http.StatusText(status),
		Message: msg,
	})
}

// writeStoreError maps store errors to statuses
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, data.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrExpired):
		writeError(w, http.StatusGone, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
