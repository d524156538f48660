package main

import (
	"encoding/json"
	"log"
	"net/http"

	"pxk/config"
)

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// configStatus reports which settings are in place. Secrets are never echoed.
type configStatus struct {
	Ready              bool     `json:"ready"`
	Missing            []string `json:"missing"`
	LarkBaseURL        string   `json:"larkBaseUrl"`
	TemplateDir        string   `json:"templateDir"`
	APIKeyEnabled      bool     `json:"apiKeyEnabled"`
	PrintLogEnabled    bool     `json:"printLogEnabled"`
	StrictTicketNumber bool     `json:"strictTicketNumber"`
}

// GetConfigStatusHandler returns the loaded configuration's readiness.
func GetConfigStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg := config.GetConfig()
		missing := cfg.Missing()
		if missing == nil {
			missing = []string{}
		}
		writeJSON(w, configStatus{
			Ready:              len(missing) == 0,
			Missing:            missing,
			LarkBaseURL:        cfg.LarkBaseURL,
			TemplateDir:        cfg.TemplateDir,
			APIKeyEnabled:      cfg.PrintAPIKey != "",
			PrintLogEnabled:    cfg.PrintLogDB != "",
			StrictTicketNumber: cfg.StrictTicketNumber,
		}, http.StatusOK)
	}
}
