// This file implements hotel search against the Booking.com RapidAPI.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/atlasai/tripflow/internal/models"
)

// DefaultBookingURL is the Booking.com RapidAPI base endpoint.
const DefaultBookingURL = "https://booking-com.p.rapidapi.com"

const bookingHost = "booking-com.p.rapidapi.com"

// BookingClient searches hotels via the Booking.com RapidAPI.
type BookingClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewBookingClient creates a hotel search client.
func NewBookingClient(opts ...Option) (*BookingClient, error) {
	cfg := applyOpts(Opts{BaseURL: DefaultBookingURL}, opts)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("RapidAPI key not set")
	}
	return &BookingClient{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, httpClient: cfg.HTTPClient}, nil
}

type bookingLocation struct {
	DestID json.Number `json:"dest_id"`
}

type bookingSearchResponse struct {
	Result []struct {
		HotelName       string      `json:"hotel_name"`
		MinTotalPrice   float64     `json:"min_total_price"`
		District        string      `json:"district"`
		City            string      `json:"city"`
		ReviewScore     json.Number `json:"review_score"`
		HotelFacilities string      `json:"hotel_facilities"`
		URL             string      `json:"url"`
	} `json:"result"`
}

func (c *BookingClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build hotel request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", bookingHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Booking.com request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return fmt.Errorf("Booking.com authentication failed: check the RapidAPI key")
	case http.StatusForbidden:
		return fmt.Errorf("Booking.com access forbidden: check subscription status")
	default:
		return fmt.Errorf("Booking.com HTTP error %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("Booking.com returned invalid JSON: %w", err)
	}
	return nil
}

// SearchHotels finds hotels in the destination for the stay window,
// returning at most models.MaxHotelOptions options.
func (c *BookingClient) SearchHotels(ctx context.Context, destination, checkin, checkout string) ([]models.HotelOption, error) {
	slog.Debug("BookingClient.SearchHotels invoked", "destination", destination,
		"checkin", checkin, "checkout", checkout)

	locParams := url.Values{}
	locParams.Set("name", destination)
	locParams.Set("locale", "en-gb")

	var locations []bookingLocation
	if err := c.get(ctx, "/v1/hotels/locations", locParams, &locations); err != nil {
		slog.Error("BookingClient.SearchHotels location lookup failed", "error", err, "destination", destination)
		return nil, err
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("no location found for %s", destination)
	}
	destID := locations[0].DestID.String()
	if destID == "" {
		return nil, fmt.Errorf("could not extract destination ID for %s", destination)
	}

	searchParams := url.Values{}
	searchParams.Set("dest_id", destID)
	searchParams.Set("dest_type", "city")
	searchParams.Set("order_by", "popularity")
	searchParams.Set("filter_by_currency", "USD")
	searchParams.Set("adults_number", "2")
	searchParams.Set("room_number", "1")
	searchParams.Set("checkin_date", checkin)
	searchParams.Set("checkout_date", checkout)
	searchParams.Set("locale", "en-gb")
	searchParams.Set("units", "metric")
	searchParams.Set("page_number", "0")

	var body bookingSearchResponse
	if err := c.get(ctx, "/v1/hotels/search", searchParams, &body); err != nil {
		slog.Error("BookingClient.SearchHotels search failed", "error", err, "destination", destination)
		return nil, err
	}
	if len(body.Result) == 0 {
		return nil, fmt.Errorf("no hotels found for %s: %w", destination, models.ErrNoHotelOptions)
	}

	nights := calculateNights(checkin, checkout)
	hotels := make([]models.HotelOption, 0, models.MaxHotelOptions)
	for _, h := range body.Result {
		if len(hotels) >= models.MaxHotelOptions {
			break
		}
		total := h.MinTotalPrice
		if total == 0 {
			total = 150
		}
		perNight := total
		if nights > 0 {
			perNight = total / float64(nights)
		}

		rating := "No rating"
		if score := h.ReviewScore.String(); score != "" && score != "0" {
			rating = score + " / 10"
		}

		hotels = append(hotels, models.HotelOption{
			Name:          orDefault(h.HotelName, "Hotel Name Not Available"),
			PricePerNight: int(perNight),
			TotalPrice:    int(total),
			Location:      orDefault(orDefault(h.District, h.City), "City center"),
			Rating:        rating,
			Amenities:     orDefault(h.HotelFacilities, "Standard amenities"),
			Source:        "Booking.com",
			BookingURL:    h.URL,
		})
	}
	slog.Debug("BookingClient.SearchHotels succeeded", "count", len(hotels), "nights", nights)
	return hotels, nil
}

// calculateNights derives the stay length from the date pair, defaulting
// to a week when the dates do not parse.
func calculateNights(checkin, checkout string) int {
	in, err1 := time.Parse("2006-01-02", checkin)
	out, err2 := time.Parse("2006-01-02", checkout)
	if err1 != nil || err2 != nil {
		return 7
	}
	return int(out.Sub(in).Hours() / 24)
}
