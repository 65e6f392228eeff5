package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/KaramelBytes/tdprofiler/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes the {"detail": msg} error body.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// writeError maps an application error to its status and public message.
func writeError(w http.ResponseWriter, err error) {
	writeDetail(w, apperrors.HTTPStatus(err), apperrors.Message(err))
}
