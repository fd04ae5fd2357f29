// This file holds the style-selection steps and the final itinerary
// synthesis.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atlasai/tripflow/internal/models"
)

// handleStyleDecision interprets the customize-or-skip reply. Customizing
// presents the style menu; anything else takes the default style straight
// to itinerary synthesis.
func (e *Engine) handleStyleDecision(ctx context.Context, state *models.TripState) {
	if e.interp.WantsStyleCustomization(ctx, state.UserInput) {
		slog.Debug("Engine.handleStyleDecision: customizing style")
		e.presentStyleMenu(state)
		return
	}
	slog.Debug("Engine.handleStyleDecision: skipping to itinerary")
	state.SelectedTripStyle = models.DefaultTripStyle
	state.AwaitingUserChoice = false
	e.createItinerary(ctx, state)
}

// presentStyleMenu lists the five trip styles and waits for a pick.
func (e *Engine) presentStyleMenu(state *models.TripState) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Excellent! Now choose your %s travel style:\n\n", state.Destination)
	sb.WriteString("Adventure - Thrilling experiences\n\n")
	sb.WriteString("Leisure - Relaxation\n\n")
	sb.WriteString("Business - Efficient travel\n\n")
	sb.WriteString("Cultural - Museums and history\n\n")
	sb.WriteString("Outdoor - Nature activities")

	pause(state, models.StepAwaitingStyleChoice, sb.String())
}

// handleStyleChoice resolves the named style and synthesizes the itinerary.
func (e *Engine) handleStyleChoice(ctx context.Context, state *models.TripState) {
	state.SelectedTripStyle = e.interp.InterpretStyle(ctx, state.UserInput)
	state.AwaitingUserChoice = false
	slog.Debug("Engine.handleStyleChoice resolved", "style", state.SelectedTripStyle)
	e.createItinerary(ctx, state)
}

// createItinerary asks the LLM for a day-by-day plan built from the
// selections and real attraction data. On LLM failure the step is left
// unchanged so a resubmitted turn retries synthesis.
func (e *Engine) createItinerary(ctx context.Context, state *models.TripState) {
	slog.Debug("Engine.createItinerary invoked", "destination", state.Destination, "style", state.SelectedTripStyle)

	if state.SelectedTripStyle == "" {
		state.SelectedTripStyle = models.DefaultTripStyle
	}

	itinerary, err := e.llm.GeneratePrompt(ctx, "Create detailed itinerary.", itineraryPrompt(state))
	if err != nil {
		slog.Error("Engine.createItinerary LLM call failed", "error", err)
		state.AddAPIError("Itinerary: " + err.Error())
		state.Response = fmt.Sprintf("Itinerary creation failed: %v. Please try again.", err)
		state.AwaitingUserChoice = false
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Perfect! Your complete %s %s experience:\n\n", state.Destination, state.SelectedTripStyle)
	if state.SelectedFlight != nil {
		fmt.Fprintf(&sb, "Flight: %s %s\n", state.SelectedFlight.Airline, state.SelectedFlight.FlightNumber)
	}
	if state.SelectedHotel != nil {
		fmt.Fprintf(&sb, "Hotel: %s - $%d/night\n", state.SelectedHotel.Name, state.SelectedHotel.PricePerNight)
	} else {
		sb.WriteString("Hotel: not included, book accommodation separately\n")
	}
	fmt.Fprintf(&sb, "Style: %s\n\n", titleCase(string(state.SelectedTripStyle)))
	sb.WriteString("Your detailed itinerary:\n\n")
	sb.WriteString(itinerary)
	sb.WriteString("\n\nBased on real data from AviationStack, Booking.com and Google Places.")

	state.Response = sb.String()
	state.AwaitingUserChoice = false
	state.CurrentStep = models.StepComplete
	slog.Info("Engine.createItinerary complete", "destination", state.Destination, "style", state.SelectedTripStyle)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// itineraryPrompt assembles the synthesis request from the selections and
// attraction list.
func itineraryPrompt(state *models.TripState) string {
	var attractions strings.Builder
	for _, a := range state.Attractions {
		fmt.Fprintf(&attractions, "- %s (%s)\n", a.Name, a.Rating)
	}

	flight := "Selected"
	if state.SelectedFlight != nil {
		flight = state.SelectedFlight.Label()
	}
	hotel := "none selected, traveler books separately"
	if state.SelectedHotel != nil {
		hotel = fmt.Sprintf("%s in %s", state.SelectedHotel.Name, state.SelectedHotel.Location)
	}

	return fmt.Sprintf("Create a %d-day %s itinerary for %s:\n\n"+
		"Flight: %s\nHotel: %s\n\nReal attractions:\n%s\n"+
		"Create day-by-day plans using these real places.",
		state.DurationDays, state.SelectedTripStyle, state.Destination,
		flight, hotel, attractions.String())
}
