package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the shape of every API error response.
type ErrorBody struct {
	Category  string `json:"category"`
	Error     string `json:"error"`
	Label     string `json:"label,omitempty"`
	Details   any    `json:"details,omitempty"`
	Candidate any    `json:"candidate,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error writes a plain categorized error.
func Error(w http.ResponseWriter, status int, category, message string) {
	JSON(w, status, ErrorBody{Category: category, Error: message})
}

// File writes a download with the given name.
func File(w http.ResponseWriter, fileName, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
