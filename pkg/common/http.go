package common

import (
	"encoding/json"
	"log"
	"net/http"
)

// JsonHandler wraps an endpoint that writes a JSON response. Errors
// are logged, the handler decides what (if anything) was written.
func JsonHandler(fn func(w http.ResponseWriter, r *http.Request, enc *json.Encoder) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			RespondToOptions(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := fn(w, r, json.NewEncoder(w)); err != nil {
			log.Printf("Error handling request: %v", err)
		}
	}
}

func RespondToOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
	}
	w.WriteHeader(http.StatusAccepted)
}
