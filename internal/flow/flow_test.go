package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/atlasai/tripflow/internal/models"
)

// stubLLM answers by matching on the system prompt.
type stubLLM struct {
	extractReply   string
	followupReply  string
	itineraryReply string
	choiceReply    string
	choiceErr      error
}

func (s *stubLLM) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	switch systemPrompt {
	case "Extract travel info.":
		return s.extractReply, nil
	case "Extract missing travel information.":
		return s.followupReply, nil
	case "Create detailed itinerary.":
		if s.itineraryReply == "" {
			return "Day 1: explore the city.", nil
		}
		return s.itineraryReply, nil
	default:
		return s.choiceReply, s.choiceErr
	}
}

type stubFlights struct {
	options []models.FlightOption
	err     error
	calls   int
}

func (s *stubFlights) SearchFlights(ctx context.Context, origin, destination string) ([]models.FlightOption, error) {
	s.calls++
	return s.options, s.err
}

type stubHotels struct {
	options []models.HotelOption
	err     error
	calls   int
}

func (s *stubHotels) SearchHotels(ctx context.Context, destination, checkin, checkout string) ([]models.HotelOption, error) {
	s.calls++
	return s.options, s.err
}

type stubAttractions struct {
	results []models.Attraction
	err     error
	calls   int
}

func (s *stubAttractions) SearchAttractions(ctx context.Context, destination string, interests []string) ([]models.Attraction, error) {
	s.calls++
	return s.results, s.err
}

func sampleFlights() []models.FlightOption {
	return []models.FlightOption{
		{Airline: "Delta", FlightNumber: "DL110", Departure: "2026-09-22T18:30:00+00:00", Note: "Contact airline for pricing"},
		{Airline: "United", FlightNumber: "UA22", Departure: "2026-09-22T09:15:00+00:00"},
		{Airline: "Alitalia", FlightNumber: "AZ615", Departure: "2026-09-22T21:00:00+00:00"},
	}
}

func sampleHotels() []models.HotelOption {
	return []models.HotelOption{
		{Name: "Hotel Artemide", PricePerNight: 300, TotalPrice: 2100, Location: "Monti"},
		{Name: "Hotel Quirinale", PricePerNight: 200, TotalPrice: 1400, Location: "Rome"},
	}
}

func sampleAttractions() []models.Attraction {
	return []models.Attraction{
		{Name: "Colosseum", Rating: "4.7"},
		{Name: "Vatican Museums", Rating: "4.6"},
	}
}

const bostonRomeExtraction = "Origin: Boston\nDestination: Rome\nDuration: 7 days\nBudget: $3500\nInterests: museums, history"

type engineFixture struct {
	engine      *Engine
	llm         *stubLLM
	flights     *stubFlights
	hotels      *stubHotels
	attractions *stubAttractions
}

func newFixture() *engineFixture {
	llm := &stubLLM{extractReply: bostonRomeExtraction, choiceErr: errors.New("no llm")}
	f := &engineFixture{
		llm:         llm,
		flights:     &stubFlights{options: sampleFlights()},
		hotels:      &stubHotels{options: sampleHotels()},
		attractions: &stubAttractions{results: sampleAttractions()},
	}
	f.engine = NewEngine(llm, f.flights, f.hotels, f.attractions, nil)
	return f
}

func TestAutoAdvanceToFlightChoice(t *testing.T) {
	f := newFixture()
	state := f.engine.Advance(context.Background(), "7 day trip from Boston to Rome, budget $3500, love museums", nil)

	if state.CurrentStep != models.StepAwaitingFlightChoice {
		t.Fatalf("expected awaiting_flight_choice, got %s", state.CurrentStep)
	}
	if !state.AwaitingUserChoice {
		t.Error("expected awaiting user choice")
	}
	if state.Origin != "Boston" || state.Destination != "Rome" || state.DurationDays != 7 {
		t.Errorf("trip fields wrong: %s, %s, %d", state.Origin, state.Destination, state.DurationDays)
	}
	if state.Budget != "$3500" {
		t.Errorf("expected budget $3500, got %s", state.Budget)
	}
	foundMuseums := false
	for _, i := range state.Interests {
		if strings.Contains(i, "museum") {
			foundMuseums = true
		}
	}
	if !foundMuseums {
		t.Errorf("expected museums interest, got %v", state.Interests)
	}
	if len(state.FlightOptions) != 3 {
		t.Errorf("expected 3 flight options, got %d", len(state.FlightOptions))
	}
	if !strings.Contains(state.Response, "Delta") {
		t.Errorf("expected flight listing in response: %q", state.Response)
	}
	if f.flights.calls != 1 {
		t.Errorf("expected exactly one flight search, got %d", f.flights.calls)
	}
}

func TestMissingDestinationNeverSearches(t *testing.T) {
	f := newFixture()
	f.llm.extractReply = "Origin: Boston\nDestination: [city]\nDuration: 7"

	state := f.engine.Advance(context.Background(), "I want a week away from Boston", nil)

	if state.CurrentStep != models.StepAwaitingMissingInfo {
		t.Fatalf("expected awaiting_missing_info, got %s", state.CurrentStep)
	}
	if !state.AwaitingUserChoice {
		t.Error("expected awaiting user choice")
	}
	if !strings.Contains(state.Response, "destination") {
		t.Errorf("expected destination named in prompt: %q", state.Response)
	}
	if f.flights.calls != 0 {
		t.Errorf("flight search must not run, got %d calls", f.flights.calls)
	}
}

func TestMissingFieldsConjunction(t *testing.T) {
	f := newFixture()
	f.llm.extractReply = "Origin: [city]\nDestination: [city]\nDuration: [days]"

	state := f.engine.Advance(context.Background(), "plan me a trip", nil)

	if !strings.Contains(state.Response, "departure city, destination and trip duration (number of days)") {
		t.Errorf("expected conjunction listing all fields: %q", state.Response)
	}
}

func TestSameCityRejection(t *testing.T) {
	f := newFixture()
	f.llm.extractReply = "Origin: Rome\nDestination: rome\nDuration: 5"

	state := f.engine.Advance(context.Background(), "from Rome to Rome for 5 days", nil)

	if state.CurrentStep != models.StepAwaitingMissingInfo {
		t.Fatalf("expected awaiting_missing_info, got %s", state.CurrentStep)
	}
	if f.flights.calls != 0 {
		t.Error("flight search must not run for same-city trip")
	}
	if !strings.Contains(state.Response, "same") {
		t.Errorf("expected same-city explanation: %q", state.Response)
	}
}

func TestDurationBounds(t *testing.T) {
	tests := []struct {
		duration string
		accepted bool
	}{
		{"0", false},
		{"-1", false},
		{"31", false},
		{"1", true},
		{"30", true},
	}
	for _, tt := range tests {
		f := newFixture()
		f.llm.extractReply = "Origin: Boston\nDestination: Rome\nDuration: " + tt.duration

		state := f.engine.Advance(context.Background(), "trip", nil)

		if tt.accepted && state.CurrentStep != models.StepAwaitingFlightChoice {
			t.Errorf("duration %s: expected flight choice, got %s", tt.duration, state.CurrentStep)
		}
		if !tt.accepted && state.CurrentStep != models.StepAwaitingMissingInfo {
			t.Errorf("duration %s: expected awaiting_missing_info, got %s", tt.duration, state.CurrentStep)
		}
	}
}

func TestVeryLongTripReprompt(t *testing.T) {
	f := newFixture()
	f.llm.extractReply = "Origin: Boston\nDestination: Rome\nDuration: 45"

	state := f.engine.Advance(context.Background(), "45 days in Rome from Boston", nil)

	if state.CurrentStep != models.StepAwaitingMissingInfo {
		t.Fatalf("expected awaiting_missing_info, got %s", state.CurrentStep)
	}
	if !strings.Contains(state.Response, "45 days seems like a very long trip") {
		t.Errorf("expected long-trip confirmation prompt: %q", state.Response)
	}
	if state.DurationDays != 45 {
		t.Errorf("expected over-long duration recorded, got %d", state.DurationDays)
	}
	if f.flights.calls != 0 {
		t.Errorf("flight search must not run, got %d calls", f.flights.calls)
	}

	// A corrected duration on the next turn resumes the pipeline.
	f.llm.followupReply = "Origin: keep current\nDestination: keep current\nDuration: 10"
	out := f.engine.Advance(context.Background(), "make it 10 days", state)

	if out.CurrentStep != models.StepAwaitingFlightChoice {
		t.Fatalf("expected flight choice after correction, got %s", out.CurrentStep)
	}
	if out.DurationDays != 10 {
		t.Errorf("expected corrected duration 10, got %d", out.DurationDays)
	}
}

func TestIdempotentReExtraction(t *testing.T) {
	f := newFixture()
	f.llm.followupReply = "Origin: keep current\nDestination: keep current\nDuration: keep current"

	state := models.NewTripState()
	state.Origin = "Boston"
	state.Destination = "Rome"
	state.DurationDays = 7
	state.CurrentStep = models.StepAwaitingMissingInfo
	state.AwaitingUserChoice = true

	out := f.engine.Advance(context.Background(), "everything I already told you", state)

	if out.Origin != "Boston" || out.Destination != "Rome" || out.DurationDays != 7 {
		t.Errorf("fields changed on re-extraction: %s, %s, %d", out.Origin, out.Destination, out.DurationDays)
	}
	if out.CurrentStep != models.StepAwaitingFlightChoice {
		t.Errorf("expected advance to flight choice, got %s", out.CurrentStep)
	}
}

func TestMissingInfoTargetedPrompt(t *testing.T) {
	f := newFixture()
	f.llm.followupReply = "Duration: 7"

	state := models.NewTripState()
	state.CurrentStep = models.StepAwaitingMissingInfo
	state.AwaitingUserChoice = true

	out := f.engine.Advance(context.Background(), "7 days", state)

	if out.CurrentStep != models.StepAwaitingMissingInfo {
		t.Fatalf("expected to stay in awaiting_missing_info, got %s", out.CurrentStep)
	}
	if !strings.Contains(out.Response, "departing from") {
		t.Errorf("expected targeted departure-city question: %q", out.Response)
	}
}

func TestFlightProviderFailureIsTerminal(t *testing.T) {
	f := newFixture()
	f.flights.err = errors.New("AviationStack HTTP error 500")

	state := f.engine.Advance(context.Background(), "7 day trip from Boston to Rome", nil)

	if state.CurrentStep != models.StepFlightError {
		t.Fatalf("expected flight_error, got %s", state.CurrentStep)
	}
	if state.AwaitingUserChoice {
		t.Error("terminal error must not await a choice")
	}
	if len(state.APIErrors) != 1 || !strings.HasPrefix(state.APIErrors[0], "Flight:") {
		t.Errorf("expected a Flight api error, got %v", state.APIErrors)
	}
	if f.hotels.calls != 0 || f.attractions.calls != 0 {
		t.Error("pipeline must stop at the flight error")
	}
}

func TestFlightErrorRetryOnResubmit(t *testing.T) {
	f := newFixture()
	f.flights.err = errors.New("quota exceeded")

	state := f.engine.Advance(context.Background(), "7 day trip from Boston to Rome", nil)
	if state.CurrentStep != models.StepFlightError {
		t.Fatalf("expected flight_error, got %s", state.CurrentStep)
	}

	f.flights.err = nil
	state = f.engine.Advance(context.Background(), "try again", state)

	if state.CurrentStep != models.StepAwaitingFlightChoice {
		t.Fatalf("expected retry to reach awaiting_flight_choice, got %s", state.CurrentStep)
	}
	if len(state.APIErrors) != 0 {
		t.Errorf("expected api errors cleared on retry, got %v", state.APIErrors)
	}
}

func TestHotelDegradeNotFail(t *testing.T) {
	f := newFixture()
	f.hotels.err = errors.New("Booking.com HTTP error 500")

	state := f.engine.Advance(context.Background(), "7 day trip from Boston to Rome", nil)
	state = f.engine.Advance(context.Background(), "option 1", state)

	if state.CurrentStep != models.StepAwaitingStyleDecision {
		t.Fatalf("expected awaiting_style_decision despite hotel failure, got %s", state.CurrentStep)
	}
	if state.SelectedHotel != nil {
		t.Error("no hotel should be selected after degrade")
	}
	if len(state.APIErrors) != 1 || !strings.HasPrefix(state.APIErrors[0], "Hotel:") {
		t.Errorf("expected a recorded Hotel api error, got %v", state.APIErrors)
	}
	if !strings.Contains(state.Response, "hotel search was unavailable") {
		t.Errorf("expected degrade note in response: %q", state.Response)
	}
	if f.attractions.calls != 1 {
		t.Errorf("attraction search must still run, got %d calls", f.attractions.calls)
	}
}

func TestAttractionsProviderFailureIsTerminal(t *testing.T) {
	f := newFixture()
	f.attractions.err = errors.New("Google Places HTTP error 500")

	state := f.engine.Advance(context.Background(), "7 day trip from Boston to Rome", nil)
	state = f.engine.Advance(context.Background(), "1", state)
	state = f.engine.Advance(context.Background(), "1", state)

	if state.CurrentStep != models.StepAttractionsError {
		t.Fatalf("expected attractions_error, got %s", state.CurrentStep)
	}
	if state.AwaitingUserChoice {
		t.Error("terminal error must not await a choice")
	}
}

func TestEmptyAttractionsTolerated(t *testing.T) {
	f := newFixture()
	f.attractions.results = nil

	state := f.engine.Advance(context.Background(), "7 day trip from Boston to Rome", nil)
	state = f.engine.Advance(context.Background(), "1", state)
	state = f.engine.Advance(context.Background(), "1", state)

	if state.CurrentStep != models.StepAwaitingStyleDecision {
		t.Fatalf("expected awaiting_style_decision with empty attractions, got %s", state.CurrentStep)
	}
}

func TestAmbiguousChoiceDefaultsToFirst(t *testing.T) {
	f := newFixture()

	state := f.engine.Advance(context.Background(), "7 day trip from Boston to Rome", nil)
	state = f.engine.Advance(context.Background(), "banana", state)

	if state.SelectedFlight == nil || state.SelectedFlight.Airline != "Delta" {
		t.Fatalf("expected default to first flight, got %+v", state.SelectedFlight)
	}
	if state.CurrentStep != models.StepAwaitingHotelChoice {
		t.Errorf("expected advance to hotel choice, got %s", state.CurrentStep)
	}
}

func TestChoiceByName(t *testing.T) {
	f := newFixture()

	state := f.engine.Advance(context.Background(), "7 day trip from Boston to Rome", nil)
	state = f.engine.Advance(context.Background(), "let's go with United", state)

	if state.SelectedFlight == nil || state.SelectedFlight.Airline != "United" {
		t.Fatalf("expected United selected, got %+v", state.SelectedFlight)
	}
}

func TestStyleCustomizationPath(t *testing.T) {
	f := newFixture()

	state := f.engine.Advance(context.Background(), "7 day trip from Boston to Rome", nil)
	state = f.engine.Advance(context.Background(), "1", state)
	state = f.engine.Advance(context.Background(), "2", state)
	if state.CurrentStep != models.StepAwaitingStyleDecision {
		t.Fatalf("expected awaiting_style_decision, got %s", state.CurrentStep)
	}

	state = f.engine.Advance(context.Background(), "1", state)
	if state.CurrentStep != models.StepAwaitingStyleChoice {
		t.Fatalf("expected style menu, got %s", state.CurrentStep)
	}
	if !strings.Contains(state.Response, "Adventure") {
		t.Errorf("expected style menu in response: %q", state.Response)
	}

	state = f.engine.Advance(context.Background(), "adventure please", state)
	if state.CurrentStep != models.StepComplete {
		t.Fatalf("expected complete, got %s", state.CurrentStep)
	}
	if state.SelectedTripStyle != models.StyleAdventure {
		t.Errorf("expected adventure style, got %s", state.SelectedTripStyle)
	}
}

func TestSkipStyleUsesCulturalDefault(t *testing.T) {
	f := newFixture()

	state := f.engine.Advance(context.Background(), "7 day trip from Boston to Rome", nil)
	state = f.engine.Advance(context.Background(), "2", state)
	state = f.engine.Advance(context.Background(), "1", state)
	state = f.engine.Advance(context.Background(), "2", state)

	if state.CurrentStep != models.StepComplete {
		t.Fatalf("expected complete, got %s", state.CurrentStep)
	}
	if state.SelectedTripStyle != models.StyleCultural {
		t.Errorf("expected cultural default, got %s", state.SelectedTripStyle)
	}
	if !strings.Contains(state.Response, "Day 1") {
		t.Errorf("expected synthesized itinerary in response: %q", state.Response)
	}
}

func TestInputAfterComplete(t *testing.T) {
	f := newFixture()

	state := models.NewTripState()
	state.CurrentStep = models.StepComplete

	out := f.engine.Advance(context.Background(), "thanks!", state)
	if out.CurrentStep != models.StepComplete {
		t.Errorf("complete is terminal, got %s", out.CurrentStep)
	}
	if !strings.Contains(out.Response, "already complete") {
		t.Errorf("expected fixed completion message: %q", out.Response)
	}
}

func TestEmptyInput(t *testing.T) {
	f := newFixture()
	state := f.engine.Advance(context.Background(), "   ", nil)

	if state.CurrentStep != models.StepInitial {
		t.Errorf("empty input must not advance, got %s", state.CurrentStep)
	}
	if state.Response == "" {
		t.Error("expected a re-prompt for empty input")
	}
}

func TestHistoryAppendOnly(t *testing.T) {
	f := newFixture()

	state := f.engine.Advance(context.Background(), "7 day trip from Boston to Rome", nil)
	firstLen := len(state.ConversationHistory)
	if firstLen != 2 {
		t.Fatalf("expected user+assistant messages, got %d", firstLen)
	}
	firstUser := state.ConversationHistory[0].Content

	state = f.engine.Advance(context.Background(), "option 2", state)
	if len(state.ConversationHistory) != firstLen+2 {
		t.Errorf("expected history to grow by 2, got %d", len(state.ConversationHistory))
	}
	if state.ConversationHistory[0].Content != firstUser {
		t.Error("prior history entry was mutated")
	}
}

func TestEndToEndBostonRome(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	state := f.engine.Advance(ctx, "7 day trip from Boston to Rome, budget $3500, love museums", nil)
	if state.CurrentStep != models.StepAwaitingFlightChoice {
		t.Fatalf("turn 1: expected awaiting_flight_choice, got %s", state.CurrentStep)
	}

	state = f.engine.Advance(ctx, "the second one", state)
	if state.CurrentStep != models.StepAwaitingHotelChoice {
		t.Fatalf("turn 2: expected awaiting_hotel_choice, got %s", state.CurrentStep)
	}
	if state.SelectedFlight.Airline != "United" {
		t.Errorf("turn 2: expected United, got %s", state.SelectedFlight.Airline)
	}

	state = f.engine.Advance(ctx, "Hotel Quirinale", state)
	if state.CurrentStep != models.StepAwaitingStyleDecision {
		t.Fatalf("turn 3: expected awaiting_style_decision, got %s", state.CurrentStep)
	}
	if state.SelectedHotel.Name != "Hotel Quirinale" {
		t.Errorf("turn 3: expected Quirinale, got %s", state.SelectedHotel.Name)
	}

	state = f.engine.Advance(ctx, "2", state)
	if state.CurrentStep != models.StepComplete {
		t.Fatalf("turn 4: expected complete, got %s", state.CurrentStep)
	}
	for _, want := range []string{"Rome", "United", "Hotel Quirinale", "Day 1"} {
		if !strings.Contains(state.Response, want) {
			t.Errorf("final itinerary missing %q", want)
		}
	}
	if len(state.APIErrors) != 0 {
		t.Errorf("unexpected api errors: %v", state.APIErrors)
	}
}

func TestItineraryFailureRetries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	state := f.engine.Advance(ctx, "7 day trip from Boston to Rome", nil)
	state = f.engine.Advance(ctx, "1", state)
	state = f.engine.Advance(ctx, "1", state)

	f.llm.itineraryReply = ""
	brokenLLM := &failingItineraryLLM{inner: f.llm}
	f.engine.llm = brokenLLM

	state = f.engine.Advance(ctx, "2", state)
	if state.CurrentStep == models.StepComplete {
		t.Fatal("itinerary failure must not mark complete")
	}
	if !strings.Contains(state.Response, "Itinerary creation failed") {
		t.Errorf("expected failure message: %q", state.Response)
	}

	f.engine.llm = f.llm
	state = f.engine.Advance(ctx, "2", state)
	if state.CurrentStep != models.StepComplete {
		t.Fatalf("expected retry to complete, got %s", state.CurrentStep)
	}
}

// failingItineraryLLM fails only itinerary synthesis.
type failingItineraryLLM struct {
	inner *stubLLM
}

func (f *failingItineraryLLM) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if systemPrompt == "Create detailed itinerary." {
		return "", fmt.Errorf("model overloaded")
	}
	return f.inner.GeneratePrompt(ctx, systemPrompt, userPrompt)
}
