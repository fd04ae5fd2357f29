// This file implements attraction search against the Google Places API.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/atlasai/tripflow/internal/models"
)

// DefaultPlacesURL is the Google Places text-search endpoint.
const DefaultPlacesURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"

// maxInterestSearches caps how many interest terms are queried per trip.
const maxInterestSearches = 2

// placesPerInterest caps how many results each interest search keeps.
const placesPerInterest = 5

// priceLevels maps Google Places price levels to readable descriptions.
var priceLevels = map[int]string{
	0: "Free",
	1: "Budget",
	2: "Moderate",
	3: "Expensive",
	4: "Very Expensive",
}

// PriceDescription converts a Google Places price level to a description.
func PriceDescription(level *int) string {
	if level == nil {
		return "Price not available"
	}
	if desc, ok := priceLevels[*level]; ok {
		return desc
	}
	return "Unknown"
}

// PlacesClient searches attractions via the Google Places API.
type PlacesClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewPlacesClient creates an attraction search client.
func NewPlacesClient(opts ...Option) (*PlacesClient, error) {
	cfg := applyOpts(Opts{BaseURL: DefaultPlacesURL}, opts)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Google Places API key not set")
	}
	return &PlacesClient{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, httpClient: cfg.HTTPClient}, nil
}

type placesResponse struct {
	Results []struct {
		Name             string   `json:"name"`
		Rating           float64  `json:"rating"`
		FormattedAddress string   `json:"formatted_address"`
		Types            []string `json:"types"`
		PriceLevel       *int     `json:"price_level"`
	} `json:"results"`
}

// SearchAttractions queries one text search per interest term, de-dupes
// by name and returns at most models.MaxAttractions attractions. A
// failed search for one term is skipped; only a total transport failure
// surfaces as an error.
func (c *PlacesClient) SearchAttractions(ctx context.Context, destination string, interests []string) ([]models.Attraction, error) {
	slog.Debug("PlacesClient.SearchAttractions invoked", "destination", destination, "interests", interests)

	terms := interests
	if len(terms) == 0 {
		terms = []string{"tourist attraction"}
	}
	if len(terms) > maxInterestSearches {
		terms = terms[:maxInterestSearches]
	}

	var attractions []models.Attraction
	seen := make(map[string]bool)
	var lastErr error

	for _, term := range terms {
		results, err := c.searchTerm(ctx, term, destination)
		if err != nil {
			slog.Error("PlacesClient.SearchAttractions term failed", "error", err, "term", term)
			lastErr = err
			continue
		}
		for _, a := range results {
			if seen[a.Name] {
				continue
			}
			seen[a.Name] = true
			attractions = append(attractions, a)
		}
	}

	if len(attractions) == 0 && lastErr != nil {
		return nil, fmt.Errorf("Google Places failed: %w", lastErr)
	}
	if len(attractions) > models.MaxAttractions {
		attractions = attractions[:models.MaxAttractions]
	}
	slog.Debug("PlacesClient.SearchAttractions succeeded", "count", len(attractions))
	return attractions, nil
}

func (c *PlacesClient) searchTerm(ctx context.Context, term, destination string) ([]models.Attraction, error) {
	params := url.Values{}
	params.Set("query", term+" "+destination)
	params.Set("type", "tourist_attraction")
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build attraction request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Google Places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Google Places HTTP error %d", resp.StatusCode)
	}

	var body placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("Google Places returned invalid JSON: %w", err)
	}

	attractions := make([]models.Attraction, 0, placesPerInterest)
	for _, place := range body.Results {
		if len(attractions) >= placesPerInterest {
			break
		}
		rating := "N/A"
		if place.Rating > 0 {
			rating = fmt.Sprintf("%.1f", place.Rating)
		}
		attractions = append(attractions, models.Attraction{
			Name:       place.Name,
			Rating:     rating,
			Address:    place.FormattedAddress,
			Types:      place.Types,
			PriceLevel: PriceDescription(place.PriceLevel),
			Source:     "Google Places",
		})
	}
	return attractions, nil
}
