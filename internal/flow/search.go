// This file holds the provider search steps. Flights and attractions
// are essential: a failure there ends the turn in a terminal error step.
// Hotels are enrichment only: a failure is noted and the pipeline keeps
// going.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atlasai/tripflow/internal/models"
	"github.com/atlasai/tripflow/internal/providers"
)

// searchFlights queries the flight provider and presents the options.
func (e *Engine) searchFlights(ctx context.Context, state *models.TripState) {
	slog.Debug("Engine.searchFlights invoked", "origin", state.Origin, "destination", state.Destination)

	options, err := e.flights.SearchFlights(ctx, state.Origin, state.Destination)
	if err != nil {
		slog.Error("Engine.searchFlights provider failed", "error", err)
		state.AddAPIError("Flight: " + err.Error())
		state.Response = fmt.Sprintf("Flight search failed: %v", err)
		state.AwaitingUserChoice = false
		state.CurrentStep = models.StepFlightError
		return
	}

	state.FlightOptions = options
	var sb strings.Builder
	sb.WriteString("Here are real flights from AviationStack:\n\n")
	for i, flight := range options {
		fmt.Fprintf(&sb, "Option %d: %s\n", i+1, flight.Airline)
		fmt.Fprintf(&sb, "Flight %s\n", flight.FlightNumber)
		fmt.Fprintf(&sb, "Departs: %s\n", clockTime(flight.Departure))
		if flight.Note != "" {
			sb.WriteString(flight.Note + "\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Which flight would you like?")

	pause(state, models.StepAwaitingFlightChoice, sb.String())
	slog.Debug("Engine.searchFlights complete", "options", len(options))
}

// searchHotels queries the hotel provider. A failure degrades instead of
// terminating: the error is recorded and the pipeline proceeds to
// attractions without hotel data.
func (e *Engine) searchHotels(ctx context.Context, state *models.TripState) {
	slog.Debug("Engine.searchHotels invoked", "destination", state.Destination, "duration_days", state.DurationDays)

	checkin, checkout := providers.StayDates(state.DurationDays)
	options, err := e.hotels.SearchHotels(ctx, state.Destination, checkin, checkout)
	if err != nil {
		slog.Error("Engine.searchHotels provider failed, degrading", "error", err)
		state.AddAPIError("Hotel: " + err.Error())
		state.Response = "Hotel search is unavailable right now, so I'll plan your trip without hotel options. You can book accommodation separately."
		state.AwaitingUserChoice = false
		return
	}

	state.HotelOptions = options
	var sb strings.Builder
	sb.WriteString("Great choice! Here are real hotels from Booking.com:\n\n")
	for i, hotel := range options {
		fmt.Fprintf(&sb, "Option %d: %s\n", i+1, hotel.Name)
		fmt.Fprintf(&sb, "$%d/night, total $%d for %d nights\n", hotel.PricePerNight, hotel.TotalPrice, state.DurationDays)
		fmt.Fprintf(&sb, "%s, %s\n\n", hotel.Location, hotel.Rating)
	}
	sb.WriteString("Which hotel would you like?")

	pause(state, models.StepAwaitingHotelChoice, sb.String())
	slog.Debug("Engine.searchHotels complete", "options", len(options))
}

// searchAttractions queries the attraction provider and then asks the
// user whether to customize the trip style. An empty result is tolerated;
// a provider error ends the turn.
func (e *Engine) searchAttractions(ctx context.Context, state *models.TripState) {
	slog.Debug("Engine.searchAttractions invoked", "destination", state.Destination, "interests", state.Interests)

	attractions, err := e.attractions.SearchAttractions(ctx, state.Destination, state.Interests)
	if err != nil {
		slog.Error("Engine.searchAttractions provider failed", "error", err)
		state.AddAPIError("Attractions: " + err.Error())
		state.Response = fmt.Sprintf("Attractions search failed: %v", err)
		state.AwaitingUserChoice = false
		state.CurrentStep = models.StepAttractionsError
		return
	}

	state.Attractions = attractions
	var sb strings.Builder
	if hotelDegraded(state) {
		sb.WriteString("Note: hotel search was unavailable, so your itinerary will not include a hotel.\n\n")
	}
	fmt.Fprintf(&sb, "Found %d real attractions:\n\n", len(attractions))
	for i, a := range attractions {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&sb, "- %s (%s)\n", a.Name, a.Rating)
	}
	sb.WriteString("\nWould you like to:\n")
	sb.WriteString("1. Choose a specific travel style (Adventure, Cultural, Leisure, etc.)\n")
	sb.WriteString("2. Create itinerary now with a balanced cultural style\n\n")
	sb.WriteString("Type '1' to customize or '2' to proceed directly to your itinerary.")

	pause(state, models.StepAwaitingStyleDecision, sb.String())
	slog.Debug("Engine.searchAttractions complete", "count", len(attractions))
}

// clockTime trims an ISO timestamp down to HH:MM for display.
func clockTime(scheduled string) string {
	if _, rest, found := strings.Cut(scheduled, "T"); found && len(rest) >= 5 {
		return rest[:5]
	}
	return scheduled
}
