// This file maps free-text user replies onto option indexes and trip
// styles. Structured parsing runs first; the language model is only
// consulted when the text is genuinely ambiguous.
package flow

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/atlasai/tripflow/internal/genai"
	"github.com/atlasai/tripflow/internal/models"
)

// Interpreter resolves free-text user replies into engine decisions.
// Ambiguity is never an error: unresolvable choices default to the first
// option and unresolvable styles default to cultural.
type Interpreter interface {
	// InterpretChoice maps text onto an index into options, defaulting to 0.
	InterpretChoice(ctx context.Context, text string, options []string) int
	// InterpretStyle maps text onto a trip style, defaulting to cultural.
	InterpretStyle(ctx context.Context, text string) models.TripStyle
	// WantsStyleCustomization reports whether the user asked to pick a
	// style rather than proceed straight to the itinerary.
	WantsStyleCustomization(ctx context.Context, text string) bool
}

var digitsPattern = regexp.MustCompile(`\d+`)

var ordinalWords = map[string]int{
	"first":  0,
	"second": 1,
	"third":  2,
	"fourth": 3,
	"fifth":  4,
	"sixth":  5,
	"last":   -1,
}

// LLMInterpreter resolves choices with cheap text parsing and falls back
// to a language-model call.
type LLMInterpreter struct {
	llm genai.ClientInterface
}

// NewLLMInterpreter creates an interpreter backed by the given client.
func NewLLMInterpreter(llm genai.ClientInterface) *LLMInterpreter {
	return &LLMInterpreter{llm: llm}
}

// parseChoice attempts deterministic resolution: a bare number, an
// ordinal word, or a case-insensitive match against an option label.
// Returns -1 when nothing matches.
func parseChoice(text string, options []string) int {
	lowered := strings.ToLower(strings.TrimSpace(text))

	if m := digitsPattern.FindString(lowered); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= len(options) {
			return n - 1
		}
	}

	for word, idx := range ordinalWords {
		if !strings.Contains(lowered, word) {
			continue
		}
		if idx == -1 {
			return len(options) - 1
		}
		if idx < len(options) {
			return idx
		}
	}

	// Match on label words that identify exactly one option, so shared
	// words like "hotel" never decide the pick.
	tokenOwner := make(map[string]int)
	for i, opt := range options {
		for _, token := range strings.Fields(strings.ToLower(opt)) {
			if len(token) <= 2 {
				continue
			}
			if prev, ok := tokenOwner[token]; ok && prev != i {
				tokenOwner[token] = -1
			} else if !ok {
				tokenOwner[token] = i
			}
		}
	}
	for token, idx := range tokenOwner {
		if idx >= 0 && strings.Contains(lowered, token) {
			return idx
		}
	}
	return -1
}

// InterpretChoice maps text onto an index into options, defaulting to 0.
func (li *LLMInterpreter) InterpretChoice(ctx context.Context, text string, options []string) int {
	if len(options) == 0 {
		return 0
	}
	if idx := parseChoice(text, options); idx >= 0 {
		slog.Debug("LLMInterpreter.InterpretChoice parsed locally", "text", text, "index", idx)
		return idx
	}

	prompt := "User said: '" + text + "'\nOptions: " + strings.Join(options, ", ") +
		"\nWhich index (0-" + strconv.Itoa(len(options)-1) + ")? Return only the number."
	reply, err := li.llm.GeneratePrompt(ctx, "Determine choice.", prompt)
	if err != nil {
		slog.Debug("LLMInterpreter.InterpretChoice falling back to first option", "error", err)
		return 0
	}
	idx, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil || idx < 0 || idx >= len(options) {
		slog.Debug("LLMInterpreter.InterpretChoice ambiguous reply, defaulting", "reply", reply)
		return 0
	}
	return idx
}

// InterpretStyle maps text onto a trip style, defaulting to cultural.
func (li *LLMInterpreter) InterpretStyle(ctx context.Context, text string) models.TripStyle {
	lowered := strings.ToLower(text)
	for _, style := range models.TripStyles {
		if strings.Contains(lowered, string(style)) {
			return style
		}
	}

	prompt := "User said: '" + text + "'\nStyles: adventure, leisure, business, cultural, outdoor\nWhich one? Return one word."
	reply, err := li.llm.GeneratePrompt(ctx, "Determine style.", prompt)
	if err != nil {
		slog.Debug("LLMInterpreter.InterpretStyle falling back to default", "error", err)
		return models.DefaultTripStyle
	}
	style := models.TripStyle(strings.ToLower(strings.TrimSpace(reply)))
	if !models.IsValidTripStyle(style) {
		return models.DefaultTripStyle
	}
	return style
}

// WantsStyleCustomization reports whether the user asked to pick a style.
func (li *LLMInterpreter) WantsStyleCustomization(ctx context.Context, text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(lowered, "1"), strings.Contains(lowered, "customize"), strings.Contains(lowered, "style"):
		return true
	case strings.Contains(lowered, "2"), strings.Contains(lowered, "skip"), strings.Contains(lowered, "now"):
		return false
	}

	prompt := "User said: '" + text + "'\nThey can choose:\n1. Customize travel style\n2. Skip to itinerary\n\nWhat did they choose? Return only '1' or '2'."
	reply, err := li.llm.GeneratePrompt(ctx, "Determine user choice.", prompt)
	if err != nil {
		slog.Debug("LLMInterpreter.WantsStyleCustomization falling back to skip", "error", err)
		return false
	}
	return strings.Contains(reply, "1")
}
