// Package models defines the core data structures for TripFlow.
//
// It includes the trip-planning conversation state, the option types
// returned by travel providers, and the persisted session record
// shared across modules.
package models

import (
	"errors"
	"strings"
	"time"
)

// Step identifies where a conversation is in the planning pipeline.
type Step string

const (
	// StepInitial is the state of a brand-new session before extraction runs.
	StepInitial Step = "initial"
	// StepAwaitingMissingInfo waits for the user to supply required trip fields.
	StepAwaitingMissingInfo Step = "awaiting_missing_info"
	// StepAwaitingFlightChoice waits for the user to pick a flight option.
	StepAwaitingFlightChoice Step = "awaiting_flight_choice"
	// StepAwaitingHotelChoice waits for the user to pick a hotel option.
	StepAwaitingHotelChoice Step = "awaiting_hotel_choice"
	// StepAwaitingStyleDecision waits for the user to customize style or skip.
	StepAwaitingStyleDecision Step = "awaiting_style_decision"
	// StepAwaitingStyleChoice waits for the user to name a trip style.
	StepAwaitingStyleChoice Step = "awaiting_style_choice"
	// StepComplete is terminal: the itinerary has been produced.
	StepComplete Step = "complete"
	// StepFlightError is terminal for the turn: flight search failed.
	StepFlightError Step = "flight_error"
	// StepHotelError records a hotel search failure. The pipeline does not
	// stop here; hotels degrade rather than fail (see flow package).
	StepHotelError Step = "hotel_error"
	// StepAttractionsError is terminal for the turn: attraction search failed.
	StepAttractionsError Step = "attractions_error"
)

// IsAwaiting reports whether the step pauses the pipeline for user input.
func (s Step) IsAwaiting() bool {
	switch s {
	case StepAwaitingMissingInfo, StepAwaitingFlightChoice, StepAwaitingHotelChoice,
		StepAwaitingStyleDecision, StepAwaitingStyleChoice:
		return true
	default:
		return false
	}
}

// IsTerminalError reports whether the step ended the turn with a provider failure.
func (s Step) IsTerminalError() bool {
	switch s {
	case StepFlightError, StepAttractionsError:
		return true
	default:
		return false
	}
}

// TripStyle is the travel style applied to itinerary synthesis.
type TripStyle string

const (
	StyleAdventure TripStyle = "adventure"
	StyleLeisure   TripStyle = "leisure"
	StyleBusiness  TripStyle = "business"
	StyleCultural  TripStyle = "cultural"
	StyleOutdoor   TripStyle = "outdoor"
)

// DefaultTripStyle is applied when the user skips customization or their
// style input cannot be matched.
const DefaultTripStyle = StyleCultural

// TripStyles lists every selectable style in presentation order.
var TripStyles = []TripStyle{StyleAdventure, StyleLeisure, StyleBusiness, StyleCultural, StyleOutdoor}

// IsValidTripStyle checks if the given style is one of the five supported values.
func IsValidTripStyle(ts TripStyle) bool {
	for _, s := range TripStyles {
		if s == ts {
			return true
		}
	}
	return false
}

// Validation constants for trip parameters and provider option lists.
const (
	// MinTripDays is the shortest accepted trip duration.
	MinTripDays = 1
	// MaxTripDays is the longest accepted trip duration.
	MaxTripDays = 30
	// MaxFlightOptions caps how many flight options are offered to the user.
	MaxFlightOptions = 6
	// MaxHotelOptions caps how many hotel options are offered to the user.
	MaxHotelOptions = 4
	// MaxAttractions caps how many attractions are collected per destination.
	MaxAttractions = 8
)

// Default values applied to optional trip fields once the required fields
// are complete. Optional fields are never prompted for.
var (
	DefaultBudget    = "flexible"
	DefaultInterests = []string{"cultural", "sightseeing"}
)

// Error variables for better error handling and testability.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrEmptySessionID   = errors.New("session id cannot be empty")
	ErrEmptyUserInput   = errors.New("user input cannot be empty")
	ErrNoFlightOptions  = errors.New("no flight options available")
	ErrNoHotelOptions   = errors.New("no hotel options available")
	ErrProviderTimeout  = errors.New("provider request timed out")
	ErrProviderNotReady = errors.New("provider not configured")
)

// Message roles for conversation history entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a session's conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// FlightOption is one flight returned by the flight provider.
type FlightOption struct {
	Airline      string `json:"airline"`
	FlightNumber string `json:"flight_number"`
	Departure    string `json:"departure"`
	Arrival      string `json:"arrival"`
	Aircraft     string `json:"aircraft,omitempty"`
	Source       string `json:"source,omitempty"`
	Note         string `json:"note,omitempty"`
}

// Label returns the short identifier shown to the user and fed to the
// choice interpreter.
func (f FlightOption) Label() string {
	if f.FlightNumber != "" && f.FlightNumber != "N/A" {
		return f.Airline + " " + f.FlightNumber
	}
	return f.Airline
}

// HotelOption is one hotel returned by the hotel provider.
type HotelOption struct {
	Name          string `json:"name"`
	PricePerNight int    `json:"price_per_night"`
	TotalPrice    int    `json:"total_price"`
	Location      string `json:"location"`
	Rating        string `json:"rating,omitempty"`
	Amenities     string `json:"amenities,omitempty"`
	Source        string `json:"source,omitempty"`
	BookingURL    string `json:"booking_url,omitempty"`
}

// Attraction is one point of interest returned by the attraction provider.
type Attraction struct {
	Name       string   `json:"name"`
	Rating     string   `json:"rating,omitempty"`
	Address    string   `json:"address,omitempty"`
	Types      []string `json:"types,omitempty"`
	PriceLevel string   `json:"price_level,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// TripState is the single mutable record carried through a planning
// conversation. It is mutated in place by each step handler and persisted
// after every turn; exactly one engine invocation owns it at a time.
type TripState struct {
	UserInput           string         `json:"user_input"`
	ConversationHistory []Message      `json:"conversation_history"`
	CurrentStep         Step           `json:"current_step"`
	AwaitingUserChoice  bool           `json:"awaiting_user_choice"`
	Origin              string         `json:"origin"`
	Destination         string         `json:"destination"`
	DurationDays        int            `json:"duration_days"`
	Budget              string         `json:"budget"`
	Interests           []string       `json:"interests"`
	SelectedFlight      *FlightOption  `json:"selected_flight,omitempty"`
	SelectedHotel       *HotelOption   `json:"selected_hotel,omitempty"`
	SelectedTripStyle   TripStyle      `json:"selected_trip_style,omitempty"`
	FlightOptions       []FlightOption `json:"flight_options,omitempty"`
	HotelOptions        []HotelOption  `json:"hotel_options,omitempty"`
	Attractions         []Attraction   `json:"attractions_data,omitempty"`
	Response            string         `json:"response"`
	APIErrors           []string       `json:"api_errors,omitempty"`
}

// NewTripState creates the empty state for a fresh session.
func NewTripState() *TripState {
	return &TripState{
		ConversationHistory: []Message{},
		CurrentStep:         StepInitial,
		Interests:           []string{},
		APIErrors:           []string{},
	}
}

// User-facing names for the required trip fields, used in re-prompts.
const (
	FieldDepartureCity = "departure city"
	FieldDestination   = "destination"
	FieldTripDuration  = "trip duration (number of days)"
)

// MissingFields returns user-facing names of the required trip fields that
// are absent or invalid, in stable order.
func (s *TripState) MissingFields() []string {
	var missing []string
	if s.Origin == "" {
		missing = append(missing, FieldDepartureCity)
	}
	if s.Destination == "" {
		missing = append(missing, FieldDestination)
	}
	if s.DurationDays < MinTripDays || s.DurationDays > MaxTripDays {
		missing = append(missing, FieldTripDuration)
	}
	return missing
}

// SameCity reports whether origin and destination name the same city,
// compared case-insensitively. A same-city pair is treated as an invalid
// destination, never as complete.
func (s *TripState) SameCity() bool {
	return s.Origin != "" && strings.EqualFold(s.Origin, s.Destination)
}

// RequiredInfoComplete reports whether origin, destination and duration are
// all present and valid, and origin differs from destination.
func (s *TripState) RequiredInfoComplete() bool {
	return len(s.MissingFields()) == 0 && !s.SameCity()
}

// ApplyDefaults fills unset optional fields. Callers must only invoke this
// once the required fields are valid.
func (s *TripState) ApplyDefaults() {
	if s.Budget == "" {
		s.Budget = DefaultBudget
	}
	if len(s.Interests) == 0 {
		s.Interests = append([]string{}, DefaultInterests...)
	}
}

// AppendMessage appends one entry to the conversation history. History is
// append-only; nothing ever removes or reorders prior entries.
func (s *TripState) AppendMessage(role, content string) {
	s.ConversationHistory = append(s.ConversationHistory, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// AddAPIError records a provider failure message for the current turn.
// Error steps clear the slice before retrying the failed search.
func (s *TripState) AddAPIError(msg string) {
	s.APIErrors = append(s.APIErrors, msg)
}

// Progress summarizes the state for session listings and UI side panels.
func (s *TripState) Progress() TripProgress {
	return TripProgress{
		Origin:       s.Origin,
		Destination:  s.Destination,
		DurationDays: s.DurationDays,
		Budget:       s.Budget,
		Interests:    s.Interests,
		HasFlight:    s.SelectedFlight != nil,
		HasHotel:     s.SelectedHotel != nil,
		TripStyle:    string(s.SelectedTripStyle),
	}
}

// TripProgress is the denormalized view of a trip used in listings. It is
// derived from the state blob, never authoritative.
type TripProgress struct {
	Origin       string   `json:"origin,omitempty"`
	Destination  string   `json:"destination,omitempty"`
	DurationDays int      `json:"duration_days,omitempty"`
	Budget       string   `json:"budget,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	HasFlight    bool     `json:"has_flight"`
	HasHotel     bool     `json:"has_hotel"`
	TripStyle    string   `json:"trip_style,omitempty"`
}
