package api

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as the response body. Bodies are not enveloped: clients
// receive exactly the value passed in.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// JSONError writes {"detail": detail}.
func JSONError(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, AppError{Code: status, Detail: detail})
}
