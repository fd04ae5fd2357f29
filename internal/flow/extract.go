// This file holds the info-extraction step handlers: parsing trip
// parameters out of free text and prompting for whatever is missing.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/atlasai/tripflow/internal/models"
)

// durationPattern keeps the sign so "-1 days" is rejected as out of
// range instead of parsing as 1.
var durationPattern = regexp.MustCompile(`-?\d+`)

const extractionFallbackPrompt = "I'm having trouble understanding your trip details. Could you please tell me:\n\n" +
	"1. Where are you departing from?\n" +
	"2. Where do you want to go?\n" +
	"3. How many days will your trip be?\n\n" +
	"For example: 'I want to travel from Boston to Rome for 7 days'"

// extractionPrompt is the fixed schema sent to the LLM on a fresh turn.
func extractionPrompt(userInput string) string {
	return fmt.Sprintf("Extract from: '%s'\n\nFormat:\nOrigin: [city]\nDestination: [city]\nDuration: [days]\nBudget: [amount]\nInterests: [list]", userInput)
}

// followupPrompt shows the LLM what is already known so it only returns
// new values for a follow-up message.
func followupPrompt(userInput string, state *models.TripState) string {
	origin := orMissing(state.Origin)
	destination := orMissing(state.Destination)
	duration := "missing"
	if state.DurationDays > 0 {
		duration = strconv.Itoa(state.DurationDays)
	}
	return fmt.Sprintf("User provided additional info: '%s'\n\n"+
		"Current trip details:\n- Origin: %s\n- Destination: %s\n- Duration: %s days\n- Budget: %s\n- Interests: %s\n\n"+
		"Extract any NEW information and return in format:\n"+
		"Origin: [city or 'keep current']\nDestination: [city or 'keep current']\nDuration: [days or 'keep current']\nBudget: [amount or 'keep current']\nInterests: [list or 'keep current']",
		userInput, origin, destination, duration, orMissing(state.Budget), strings.Join(state.Interests, ", "))
}

func orMissing(s string) string {
	if s == "" {
		return "missing"
	}
	return s
}

// placeholderValues are schema echoes the LLM sometimes returns verbatim;
// they never count as extracted data.
var placeholderValues = map[string]bool{
	"[city]":       true,
	"[amount]":     true,
	"[list]":       true,
	"[days]":       true,
	"keep current": true,
	"'keep current'": true,
}

func isPlaceholder(value string) bool {
	return placeholderValues[strings.ToLower(value)]
}

// applyExtraction merges the LLM's line-oriented reply into the state.
// Only plausible new values overwrite; everything else is left alone, so
// resubmitting already-known fields is a no-op.
func applyExtraction(state *models.TripState, reply string) {
	for _, line := range strings.Split(reply, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if value == "" || isPlaceholder(value) {
			continue
		}

		switch key {
		case "origin":
			if len(value) > 2 {
				state.Origin = value
			}
		case "destination":
			if len(value) > 2 {
				state.Destination = value
			}
		case "duration":
			// Over-long durations are kept so the re-prompt can name
			// them; MissingFields still flags them as invalid.
			if m := durationPattern.FindString(value); m != "" {
				if days, err := strconv.Atoi(m); err == nil && days >= models.MinTripDays {
					state.DurationDays = days
				}
			}
		case "budget":
			state.Budget = value
		case "interests":
			var interests []string
			for _, item := range strings.Split(value, ",") {
				if item = strings.TrimSpace(item); len(item) > 1 {
					interests = append(interests, item)
				}
			}
			if len(interests) > 0 {
				state.Interests = interests
			}
		}
	}
}

// extractInfo runs on a fresh session: parse the first message, then
// either prompt for missing fields or hand off to the search pipeline.
func (e *Engine) extractInfo(ctx context.Context, state *models.TripState) {
	slog.Debug("Engine.extractInfo invoked", "input_length", len(state.UserInput))

	reply, err := e.llm.GeneratePrompt(ctx, "Extract travel info.", extractionPrompt(state.UserInput))
	if err != nil {
		slog.Error("Engine.extractInfo LLM call failed", "error", err)
		pause(state, models.StepAwaitingMissingInfo, extractionFallbackPrompt)
		return
	}
	applyExtraction(state, reply)

	if state.DurationDays > models.MaxTripDays {
		pause(state, models.StepAwaitingMissingInfo, longTripPrompt(state.DurationDays))
		return
	}
	if missing := state.MissingFields(); len(missing) > 0 {
		pause(state, models.StepAwaitingMissingInfo, missingFieldsPrompt(missing))
		return
	}
	if state.SameCity() {
		pause(state, models.StepAwaitingMissingInfo,
			"It looks like your departure and destination cities are the same. Could you please specify a different destination for your trip?")
		return
	}

	state.ApplyDefaults()
	state.APIErrors = nil
	state.AwaitingUserChoice = false
	state.Response = fmt.Sprintf("Perfect! Let me find real flights from %s to %s for your %d-day trip!",
		state.Origin, state.Destination, state.DurationDays)
	slog.Debug("Engine.extractInfo complete", "origin", state.Origin,
		"destination", state.Destination, "duration_days", state.DurationDays)
}

// handleMissingInfo re-extracts against new input until the required
// fields are valid, then hands off to the search pipeline.
func (e *Engine) handleMissingInfo(ctx context.Context, state *models.TripState) {
	slog.Debug("Engine.handleMissingInfo invoked", "missing", state.MissingFields())

	reply, err := e.llm.GeneratePrompt(ctx, "Extract missing travel information.", followupPrompt(state.UserInput, state))
	if err != nil {
		slog.Error("Engine.handleMissingInfo LLM call failed", "error", err)
		pause(state, models.StepAwaitingMissingInfo,
			"I'm having trouble understanding. Could you please tell me: departure city, destination city, and number of days?")
		return
	}
	applyExtraction(state, reply)

	if state.DurationDays > models.MaxTripDays {
		pause(state, models.StepAwaitingMissingInfo, longTripPrompt(state.DurationDays))
		return
	}
	if missing := state.MissingFields(); len(missing) > 0 {
		pause(state, models.StepAwaitingMissingInfo, targetedPrompt(missing[0]))
		return
	}
	if state.SameCity() {
		pause(state, models.StepAwaitingMissingInfo,
			fmt.Sprintf("Your departure and destination cities are the same. Where would you like to travel to from %s?", state.Origin))
		return
	}

	state.ApplyDefaults()
	state.AwaitingUserChoice = false
	state.Response = fmt.Sprintf("Excellent! Now I have all the details. Let me find real flights from %s to %s for your %d-day trip!",
		state.Origin, state.Destination, state.DurationDays)
	slog.Debug("Engine.handleMissingInfo complete", "origin", state.Origin,
		"destination", state.Destination, "duration_days", state.DurationDays)
}

// longTripPrompt asks the user to confirm or shorten an over-long duration.
func longTripPrompt(days int) string {
	return fmt.Sprintf("%d days seems like a very long trip! Could you confirm the duration or specify a shorter timeframe (%d-%d days)?",
		days, models.MinTripDays, models.MaxTripDays)
}

// missingFieldsPrompt names every missing field with a proper English
// conjunction ("X, Y and Z").
func missingFieldsPrompt(missing []string) string {
	if len(missing) == 1 {
		return fmt.Sprintf("I need to know your %s to help plan your trip. Could you please provide that information?", missing[0])
	}
	list := strings.Join(missing[:len(missing)-1], ", ") + " and " + missing[len(missing)-1]
	return fmt.Sprintf("To plan your perfect trip, I need a few more details: %s. Could you please provide this information?", list)
}

// targetedPrompt asks one pointed question about the first missing field.
func targetedPrompt(field string) string {
	switch field {
	case models.FieldDepartureCity:
		return "Which city will you be departing from? (e.g., Boston, New York, Chicago)"
	case models.FieldDestination:
		return "Where would you like to travel to? (e.g., Rome, Paris, Tokyo)"
	default:
		return "How many days will your trip be? (e.g., 7 days, 2 weeks)"
	}
}
