// This file implements flight search against the AviationStack API.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/atlasai/tripflow/internal/models"
)

// DefaultAviationStackURL is the AviationStack flights endpoint.
const DefaultAviationStackURL = "http://api.aviationstack.com/v1/flights"

// airportCodes maps well-known cities to their primary IATA airport code.
var airportCodes = map[string]string{
	"boston":        "BOS",
	"new york":      "JFK",
	"los angeles":   "LAX",
	"chicago":       "ORD",
	"miami":         "MIA",
	"san francisco": "SFO",
	"paris":         "CDG",
	"london":        "LHR",
	"rome":          "FCO",
	"tokyo":         "NRT",
	"barcelona":     "BCN",
	"amsterdam":     "AMS",
}

// AirportCode converts a city name to an IATA code, falling back to the
// uppercased first three letters of the city.
func AirportCode(city string) string {
	if code, ok := airportCodes[strings.ToLower(strings.TrimSpace(city))]; ok {
		return code
	}
	trimmed := strings.TrimSpace(city)
	if len(trimmed) < 3 {
		return strings.ToUpper(trimmed)
	}
	return strings.ToUpper(trimmed[:3])
}

// AviationStackClient searches real flight schedules via AviationStack.
type AviationStackClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAviationStackClient creates a flight search client.
func NewAviationStackClient(opts ...Option) (*AviationStackClient, error) {
	cfg := applyOpts(Opts{BaseURL: DefaultAviationStackURL}, opts)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AviationStack API key not set")
	}
	return &AviationStackClient{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, httpClient: cfg.HTTPClient}, nil
}

type aviationStackResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data []struct {
		Airline struct {
			Name string `json:"name"`
		} `json:"airline"`
		Flight struct {
			Number string `json:"number"`
			IATA   string `json:"iata"`
		} `json:"flight"`
		Departure struct {
			Airport   string `json:"airport"`
			Scheduled string `json:"scheduled"`
		} `json:"departure"`
		Arrival struct {
			Airport   string `json:"airport"`
			Scheduled string `json:"scheduled"`
		} `json:"arrival"`
		Aircraft struct {
			Registration string `json:"registration"`
		} `json:"aircraft"`
	} `json:"data"`
}

// SearchFlights looks up scheduled flights between the two cities,
// returning at most models.MaxFlightOptions options.
func (c *AviationStackClient) SearchFlights(ctx context.Context, origin, destination string) ([]models.FlightOption, error) {
	depIATA := AirportCode(origin)
	arrIATA := AirportCode(destination)
	slog.Debug("AviationStackClient.SearchFlights invoked", "origin", origin, "destination", destination,
		"dep_iata", depIATA, "arr_iata", arrIATA)

	params := url.Values{}
	params.Set("access_key", c.apiKey)
	params.Set("dep_iata", depIATA)
	params.Set("arr_iata", arrIATA)
	params.Set("limit", strconv.Itoa(models.MaxFlightOptions))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build flight request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("AviationStackClient.SearchFlights request failed", "error", err)
		return nil, fmt.Errorf("AviationStack request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("AviationStack 401: invalid API key")
	case http.StatusForbidden:
		return nil, fmt.Errorf("AviationStack 403: access denied or quota exceeded")
	default:
		return nil, fmt.Errorf("AviationStack HTTP error %d", resp.StatusCode)
	}

	var body aviationStackResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("AviationStack returned invalid JSON: %w", err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("AviationStack API error %s: %s", body.Error.Code, body.Error.Message)
	}
	if len(body.Data) == 0 {
		slog.Debug("AviationStackClient.SearchFlights found no flights", "dep_iata", depIATA, "arr_iata", arrIATA)
		return nil, fmt.Errorf("no flights found for route %s to %s: %w", depIATA, arrIATA, models.ErrNoFlightOptions)
	}

	flights := make([]models.FlightOption, 0, models.MaxFlightOptions)
	for _, f := range body.Data {
		if len(flights) >= models.MaxFlightOptions {
			break
		}
		number := f.Flight.IATA
		if number == "" {
			number = f.Flight.Number
		}
		flights = append(flights, models.FlightOption{
			Airline:      orDefault(f.Airline.Name, "Unknown Airline"),
			FlightNumber: orDefault(number, "N/A"),
			Departure:    orDefault(f.Departure.Scheduled, "N/A"),
			Arrival:      orDefault(f.Arrival.Scheduled, "N/A"),
			Aircraft:     orDefault(f.Aircraft.Registration, "N/A"),
			Source:       "AviationStack",
			Note:         "Contact airline for pricing",
		})
	}
	slog.Debug("AviationStackClient.SearchFlights succeeded", "count", len(flights))
	return flights, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
