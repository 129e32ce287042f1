package http

import "net/http"

// Hue API error types.
const (
	hueErrInvalidJSON        = 2
	hueErrResourceNotFound   = 3
	hueErrMethodNotAvailable = 4
	hueErrInvalidValue       = 7
	hueErrInternal           = 901
)

type hueError struct {
	Type        int    `json:"type"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func writeError(w http.ResponseWriter, status, errType int, address, description string) {
	writeJSON(w, status, []map[string]hueError{
		{"error": {Type: errType, Address: address, Description: description}},
	})
}

func notFound(w http.ResponseWriter, address string) {
	writeError(w, http.StatusNotFound, hueErrResourceNotFound, address,
		"resource, "+address+", not available")
}

func methodNotAllowed(w http.ResponseWriter, address string) {
	writeError(w, http.StatusMethodNotAllowed, hueErrMethodNotAvailable, address,
		"method not available for resource, "+address)
}
