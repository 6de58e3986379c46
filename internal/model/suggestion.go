// Package model defines the core domain models used throughout the application.
package model

import (
	"encoding/json"
	"math"
)

// MaxConfidence is the highest confidence a suggestion may carry.
// It stays below 100 because a suggestion is never certain.
const MaxConfidence = 95

// Suggestion is the category proposed for a new expense.
type Suggestion struct {
	Category   Category `json:"category"`
	Reasoning  string   `json:"reasoning"`
	Confidence float64  `json:"confidence"`
}

// FallbackSuggestion returns the safe default with the given explanation.
func FallbackSuggestion(reasoning string) Suggestion {
	return Suggestion{
		Category:   CategoryOther,
		Confidence: 0,
		Reasoning:  reasoning,
	}
}

// ClampConfidence bounds c to [0, MaxConfidence].
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > MaxConfidence:
		return MaxConfidence
	default:
		return c
	}
}

// Outcome records which path produced a suggestion.
type Outcome string

// Suggestion outcomes.
const (
	OutcomeAccepted        Outcome = "accepted"
	OutcomeParseFailure    Outcome = "parse_failure"
	OutcomeInvalidCategory Outcome = "invalid_category"
	OutcomeUpstreamFailure Outcome = "upstream_failure"
	OutcomeSkipped         Outcome = "skipped"
)

// IsFallback reports whether the outcome replaced the model's answer.
func (o Outcome) IsFallback() bool {
	return o != OutcomeAccepted
}

// ToolInvocation records one helper call made during a classification exchange.
type ToolInvocation struct {
	Name      string          `json:"name"`
	Error     string          `json:"error,omitempty"`
	Arguments json.RawMessage `json:"arguments"`
	Result    json.RawMessage `json:"result,omitempty"`
}
