package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/citeshield/internal/chunker"
	"github.com/dgallion1/citeshield/internal/pipeline"
	"github.com/dgallion1/citeshield/internal/sections"
	"github.com/dgallion1/citeshield/internal/tools"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, chunker.ErrInvalidParameter), errors.Is(err, tools.ErrBadArguments):
		return http.StatusBadRequest
	case errors.Is(err, sections.ErrOutOfRange),
		errors.Is(err, pipeline.ErrSessionNotFound),
		errors.Is(err, tools.ErrUnknownTool):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	jsonError(w, err.Error(), statusFor(err))
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
