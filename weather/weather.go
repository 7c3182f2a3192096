// Package weather fetches current conditions for the dashboard from
// Open-Meteo. One process-wide cache slot, refreshed at most every five
// minutes. Failures never escape: callers always get a Report, with OK
// false when the upstream could not be reached or parsed.
package weather

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Fixed coordinate (Berlin); the dashboard widget is not per-user.
const Endpoint = "https://api.open-meteo.com/v1/forecast?latitude=52.52&longitude=13.41&current_weather=true"

const cacheTTL = 5 * time.Minute

type Report struct {
	OK           bool    `json:"ok"`
	TemperatureC float64 `json:"temperature_c"`
	WindSpeedKmh float64 `json:"wind_speed_kmh"`
	FetchedAt    string  `json:"fetched_at"`
}

var (
	// FetchURL and Client are swapped out by tests.
	FetchURL = Endpoint
	Client   = &http.Client{Timeout: 5 * time.Second}

	mu       sync.Mutex
	cached   Report
	cachedAt time.Time
)

// Current returns the cached report while it is fresh, otherwise refreshes
// it. A failed refresh yields the fallback report and leaves the cache
// untouched, so the next call tries again.
func Current() Report {
	mu.Lock()
	defer mu.Unlock()

	if !cachedAt.IsZero() && time.Since(cachedAt) < cacheTTL {
		return cached
	}
	rep, err := fetch()
	if err != nil {
		log.Warn().Err(err).Msg("weather fetch failed")
		return Report{OK: false}
	}
	cached = rep
	cachedAt = time.Now()
	return cached
}

// Reset clears the cache slot. Test hook.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cached = Report{}
	cachedAt = time.Time{}
}

func fetch() (Report, error) {
	resp, err := Client.Get(FetchURL)
	if err != nil {
		return Report{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Report{}, &statusError{code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Report{}, err
	}

	var payload struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
		} `json:"current_weather"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Report{}, err
	}

	return Report{
		OK:           true,
		TemperatureC: payload.CurrentWeather.Temperature,
		WindSpeedKmh: payload.CurrentWeather.WindSpeed,
		FetchedAt:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "weather upstream returned " + http.StatusText(e.code)
}
