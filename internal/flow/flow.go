// Package flow implements the conversation engine that drives multi-turn
// trip planning: info extraction, flight search, hotel search, attraction
// search, style selection and itinerary synthesis.
//
// The engine advances a TripState through a fixed step sequence. After
// every step one of three routes applies: continue (run the next step in
// the same call), wait (a choice is pending, return to the user) or stop
// (a terminal error step was reached). A single user message can
// therefore cascade through several steps, but every step that needs a
// choice yields control back to the user.
package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/atlasai/tripflow/internal/genai"
	"github.com/atlasai/tripflow/internal/models"
	"github.com/atlasai/tripflow/internal/providers"
)

// Engine is the conversation state machine. It owns no session storage:
// callers load prior state, invoke Advance and persist the result.
type Engine struct {
	llm         genai.ClientInterface
	flights     providers.FlightSearcher
	hotels      providers.HotelSearcher
	attractions providers.AttractionSearcher
	interp      Interpreter
}

// NewEngine creates a conversation engine over the given collaborators.
// A nil interpreter defaults to the LLM-backed one.
func NewEngine(llm genai.ClientInterface, flights providers.FlightSearcher,
	hotels providers.HotelSearcher, attractions providers.AttractionSearcher,
	interp Interpreter) *Engine {
	if interp == nil {
		interp = NewLLMInterpreter(llm)
	}
	return &Engine{llm: llm, flights: flights, hotels: hotels, attractions: attractions, interp: interp}
}

// stage is one step handler in an auto-advance chain.
type stage func(ctx context.Context, state *models.TripState)

// advanceThrough runs stages in order while the routing predicate says
// continue: it stops on a pending choice or a terminal error step.
func (e *Engine) advanceThrough(ctx context.Context, state *models.TripState, stages ...stage) {
	for _, st := range stages {
		if state.CurrentStep.IsTerminalError() || state.AwaitingUserChoice {
			return
		}
		st(ctx, state)
	}
}

// Advance processes one user message against the prior state (nil means a
// fresh session) and returns the resulting state. It never returns an
// error: every failure path resolves to a valid state with a
// human-readable response.
func (e *Engine) Advance(ctx context.Context, userInput string, prior *models.TripState) *models.TripState {
	state := prior
	if state == nil {
		state = models.NewTripState()
	}
	state.UserInput = userInput
	state.AppendMessage(models.RoleUser, userInput)
	slog.Debug("Engine.Advance invoked", "step", state.CurrentStep, "awaiting", state.AwaitingUserChoice)

	if strings.TrimSpace(userInput) == "" {
		state.Response = "Please tell me about your trip, for example: 'I want to travel from Boston to Rome for 7 days'."
	} else {
		e.dispatch(ctx, state)
	}

	state.AppendMessage(models.RoleAssistant, state.Response)
	slog.Debug("Engine.Advance complete", "step", state.CurrentStep,
		"awaiting", state.AwaitingUserChoice, "api_errors", len(state.APIErrors))
	return state
}

// dispatch picks the step chain for the current state. Terminal error
// steps retry their failed search on resubmission.
func (e *Engine) dispatch(ctx context.Context, state *models.TripState) {
	switch state.CurrentStep {
	case models.StepInitial:
		e.advanceThrough(ctx, state, e.extractInfo, e.searchFlights)

	case models.StepAwaitingMissingInfo:
		e.handleMissingInfo(ctx, state)
		e.advanceThrough(ctx, state, e.searchFlights)

	case models.StepAwaitingFlightChoice:
		e.handleFlightChoice(ctx, state)
		e.advanceThrough(ctx, state, e.searchHotels, e.searchAttractions)

	case models.StepAwaitingHotelChoice:
		e.handleHotelChoice(ctx, state)
		e.advanceThrough(ctx, state, e.searchAttractions)

	case models.StepAwaitingStyleDecision:
		e.handleStyleDecision(ctx, state)

	case models.StepAwaitingStyleChoice:
		e.handleStyleChoice(ctx, state)

	case models.StepComplete:
		state.Response = "Your itinerary is already complete. Start a new session to plan another trip."

	case models.StepFlightError:
		state.APIErrors = nil
		e.searchFlights(ctx, state)

	case models.StepHotelError:
		state.APIErrors = nil
		e.searchHotels(ctx, state)
		e.advanceThrough(ctx, state, e.searchAttractions)

	case models.StepAttractionsError:
		state.APIErrors = nil
		e.searchAttractions(ctx, state)

	default:
		slog.Error("Engine.dispatch: unknown step, restarting extraction", "step", state.CurrentStep)
		state.CurrentStep = models.StepInitial
		e.advanceThrough(ctx, state, e.extractInfo, e.searchFlights)
	}
}

// handleFlightChoice resolves the user's flight pick and moves on to
// hotel search. Ambiguous input defaults to the first option.
func (e *Engine) handleFlightChoice(ctx context.Context, state *models.TripState) {
	if len(state.FlightOptions) == 0 {
		slog.Error("Engine.handleFlightChoice: no flight options in state")
		e.searchFlights(ctx, state)
		return
	}
	labels := make([]string, len(state.FlightOptions))
	for i, f := range state.FlightOptions {
		labels[i] = f.Label()
	}
	idx := clampIndex(e.interp.InterpretChoice(ctx, state.UserInput, labels), len(state.FlightOptions))
	state.SelectedFlight = &state.FlightOptions[idx]
	state.AwaitingUserChoice = false
	slog.Debug("Engine.handleFlightChoice resolved", "index", idx, "airline", state.SelectedFlight.Airline)
}

// handleHotelChoice resolves the user's hotel pick and moves on to
// attraction search. Ambiguous input defaults to the first option.
func (e *Engine) handleHotelChoice(ctx context.Context, state *models.TripState) {
	if len(state.HotelOptions) == 0 {
		slog.Error("Engine.handleHotelChoice: no hotel options in state")
		state.AwaitingUserChoice = false
		return
	}
	labels := make([]string, len(state.HotelOptions))
	for i, h := range state.HotelOptions {
		labels[i] = h.Name
	}
	idx := clampIndex(e.interp.InterpretChoice(ctx, state.UserInput, labels), len(state.HotelOptions))
	state.SelectedHotel = &state.HotelOptions[idx]
	state.AwaitingUserChoice = false
	slog.Debug("Engine.handleHotelChoice resolved", "index", idx, "hotel", state.SelectedHotel.Name)
}

// pause records a question for the user and marks the state as waiting.
func pause(state *models.TripState, step models.Step, question string) {
	state.CurrentStep = step
	state.Response = question
	state.AwaitingUserChoice = true
}

// hotelDegraded reports whether hotel search failed earlier in this
// conversation and the pipeline is running without hotel data.
func hotelDegraded(state *models.TripState) bool {
	if state.SelectedHotel != nil || len(state.HotelOptions) > 0 {
		return false
	}
	for _, e := range state.APIErrors {
		if strings.HasPrefix(e, "Hotel:") {
			return true
		}
	}
	return false
}

func clampIndex(idx, n int) int {
	if idx < 0 || idx >= n {
		return 0
	}
	return idx
}
