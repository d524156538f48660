package printslip

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the shared key of internal callers.
const APIKeyHeader = "x-api-key"

// checkAPIKey passes when no key is configured or the request carries the same key.
func checkAPIKey(configured string, r *http.Request) error {
	if configured == "" {
		return nil
	}
	got := r.Header.Get(APIKeyHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(configured)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// RequireAPIKey guards the auxiliary endpoints with the same key as the print endpoint.
func RequireAPIKey(key string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checkAPIKey(key, r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
