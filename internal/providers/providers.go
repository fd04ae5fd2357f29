// Package providers contains the travel-data clients the flow engine
// searches with: flights, hotels and attractions. Each client sits
// behind a small interface so the engine can be tested with doubles.
package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/atlasai/tripflow/internal/models"
)

// DefaultHTTPTimeout bounds every outbound provider request.
const DefaultHTTPTimeout = 15 * time.Second

// CheckInLeadDays is how far in the future trips are assumed to start.
const CheckInLeadDays = 30

// FlightSearcher finds flight options between two cities.
type FlightSearcher interface {
	SearchFlights(ctx context.Context, origin, destination string) ([]models.FlightOption, error)
}

// HotelSearcher finds hotel options in a destination for a stay window.
type HotelSearcher interface {
	SearchHotels(ctx context.Context, destination, checkin, checkout string) ([]models.HotelOption, error)
}

// AttractionSearcher finds attractions matching the traveler's interests.
type AttractionSearcher interface {
	SearchAttractions(ctx context.Context, destination string, interests []string) ([]models.Attraction, error)
}

// Opts holds configuration options shared by the provider clients.
type Opts struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Option defines a configuration option for a provider client.
type Option func(*Opts)

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL overrides the provider endpoint, used by tests.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

func applyOpts(defaults Opts, opts []Option) Opts {
	cfg := defaults
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return cfg
}

// StayDates returns the check-in and check-out dates for a trip of the
// given length, assuming departure CheckInLeadDays from now.
func StayDates(durationDays int) (checkin, checkout string) {
	start := time.Now().AddDate(0, 0, CheckInLeadDays)
	end := start.AddDate(0, 0, durationDays)
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}
