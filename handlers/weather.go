package handlers

import (
	"encoding/json"
	"net/http"

	"noteboard/weather"
)

// GetWeather serves the shared dashboard widget. Never fails: upstream
// trouble shows up as ok=false in the body.
func GetWeather(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(weather.Current())
}
