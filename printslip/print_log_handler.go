package printslip

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"pxk/model"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// JournalReader lists recent prints.
type JournalReader interface {
	Recent(limit int) ([]model.PrintLogEntry, error)
}

// PrintLogHandler serves GET /api/print-log?limit=N.
func PrintLogHandler(journal JournalReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		if journal == nil {
			http.Error(w, "Print log is disabled", http.StatusNotFound)
			return
		}

		limit := atoiOr(r.URL.Query().Get("limit"), defaultLogLimit)
		if limit <= 0 {
			limit = defaultLogLimit
		}
		if limit > maxLogLimit {
			limit = maxLogLimit
		}

		entries, err := journal.Recent(limit)
		if err != nil {
			log.Printf("Error listing print log: %v", err)
			http.Error(w, "Failed to list print log", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []model.PrintLogEntry{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			log.Printf("Error encoding print log: %v", err)
		}
	}
}

// atoiOr parses s, falling back to def when empty or malformed.
func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
