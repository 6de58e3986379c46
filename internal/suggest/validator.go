package suggest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/geospice/internal/model"
)

// Fallback explanations.
const (
	ReasonEmptyResponse = "Model returned an empty response"
	ReasonNoJSON        = "No JSON object found in AI response"
	ReasonParseFailure  = "Failed to parse AI response"
)

// ParseSuggestion extracts a suggestion from raw model text. Every input,
// including adversarial text, yields a suggestion whose category belongs to
// the vocabulary. The outcome reports which path produced it.
func ParseSuggestion(text string) (model.Suggestion, model.Outcome) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.FallbackSuggestion(ReasonEmptyResponse), model.OutcomeParseFailure
	}

	cleaned, ok := extractObject(trimmed)
	if !ok {
		return model.FallbackSuggestion(ReasonNoJSON), model.OutcomeParseFailure
	}

	raw, err := decodeRawSuggestion(cleaned)
	if err != nil {
		return model.FallbackSuggestion(fmt.Sprintf("%s: %v", ReasonParseFailure, err)), model.OutcomeParseFailure
	}

	category, ok := model.ParseCategory(raw.category)
	if !ok {
		return model.FallbackSuggestion(fmt.Sprintf("Invalid category suggested: %s. Must be one of: %s",
			raw.category, model.JoinCategoryNames())), model.OutcomeInvalidCategory
	}

	return model.Suggestion{
		Category:   category,
		Confidence: model.ClampConfidence(raw.confidence),
		Reasoning:  raw.reasoning,
	}, model.OutcomeAccepted
}

// extractObject drops everything before the first '{' and after the last '}'.
func extractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

type rawSuggestion struct {
	category   string
	reasoning  string
	confidence float64
}

// decodeRawSuggestion parses a single JSON object and checks that the three
// required keys are present with the expected types. Extra keys are ignored.
func decodeRawSuggestion(data string) (rawSuggestion, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return rawSuggestion{}, err
	}
	if fields == nil {
		return rawSuggestion{}, fmt.Errorf("response is not a JSON object")
	}

	var out rawSuggestion
	if err := requiredString(fields, "category", &out.category); err != nil {
		return rawSuggestion{}, err
	}
	if err := requiredNumber(fields, "confidence", &out.confidence); err != nil {
		return rawSuggestion{}, err
	}
	if err := requiredString(fields, "reasoning", &out.reasoning); err != nil {
		return rawSuggestion{}, err
	}
	return out, nil
}

func requiredString(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("missing %q", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%q must be a string", key)
	}
	if strings.TrimSpace(*dst) == "" {
		return fmt.Errorf("%q must not be empty", key)
	}
	return nil
}

func requiredNumber(fields map[string]json.RawMessage, key string, dst *float64) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("missing %q", key)
	}
	if string(raw) == "null" {
		return fmt.Errorf("%q must be a number", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%q must be a number", key)
	}
	return nil
}
