// Package handlers contains the HTTP handlers served by the sensor
// server.
package handlers

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the document returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health reports process liveness. There are no dependency checks to
// run: collaborators are dialed per sensor request, not held open.
func Health(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status:  "ok",
			Version: version,
		})
	}
}
