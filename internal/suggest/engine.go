// Package suggest turns a transaction context into a category suggestion by
// prompting a tool-augmented model and validating what it returns.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/geospice/internal/geo"
	"github.com/Veraticus/geospice/internal/llm"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/Veraticus/geospice/internal/tools"
)

// Skip explanations returned without consulting the model.
const (
	ReasonNoAmount  = "Enter an amount above zero to get a suggestion"
	ReasonNoHistory = "No recorded expenses to compare against yet"
)

// Options configures an Engine.
type Options struct {
	Logger   *slog.Logger
	Registry *tools.Registry
	// Now supplies the timestamp for queries without one.
	Now          func() time.Time
	Currency     string
	MaxSteps     int
	Temperature  float64
	RadiusMeters float64
}

// DefaultOptions returns the stock engine settings.
func DefaultOptions() Options {
	return Options{
		Currency:     DefaultCurrency,
		MaxSteps:     DefaultMaxSteps,
		Temperature:  DefaultTemperature,
		RadiusMeters: geo.DefaultRadiusMeters,
	}
}

// Report is a suggestion together with how it was produced.
type Report struct {
	Suggestion  model.Suggestion       `json:"suggestion"`
	Outcome     model.Outcome          `json:"outcome"`
	Invocations []model.ToolInvocation `json:"invocations,omitempty"`
	Steps       int                    `json:"steps"`
	Nearby      int                    `json:"nearby"`
	Truncated   bool                   `json:"truncated,omitempty"`
}

// Engine composes the prompt builder, orchestrator and validator. It keeps
// no per-request state; one Engine may serve concurrent requests.
type Engine struct {
	orchestrator *Orchestrator
	prompts      *PromptBuilder
	logger       *slog.Logger
	now          func() time.Time
	radius       float64
}

// NewEngine creates an engine backed by client. Zero-valued options fall back
// to their defaults, except Temperature which is used as given.
func NewEngine(client llm.ChatClient, opts Options) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = tools.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = geo.DefaultRadiusMeters
	}

	prompts, err := NewPromptBuilder(opts.Currency, opts.Registry.Names())
	if err != nil {
		return nil, err
	}

	return &Engine{
		orchestrator: NewOrchestrator(client, opts.Registry, opts.MaxSteps, opts.Temperature, opts.Logger),
		prompts:      prompts,
		logger:       opts.Logger,
		now:          opts.Now,
		radius:       opts.RadiusMeters,
	}, nil
}

// MaxSteps returns the step bound of the underlying orchestrator.
func (e *Engine) MaxSteps() int {
	return e.orchestrator.MaxSteps()
}

// Suggest returns a category suggestion for tc. The only error it returns
// wraps model.ErrInvalidInput; model and parsing failures become fallback
// suggestions.
func (e *Engine) Suggest(ctx context.Context, tc model.TransactionContext) (model.Suggestion, error) {
	report, err := e.Evaluate(ctx, tc)
	if err != nil {
		return model.Suggestion{}, err
	}
	return report.Suggestion, nil
}

// Evaluate is Suggest with the outcome, step count and tool invocations of
// the exchange attached.
func (e *Engine) Evaluate(ctx context.Context, tc model.TransactionContext) (Report, error) {
	if err := tc.Validate(); err != nil {
		return Report{}, err
	}

	prompt, err := e.prompts.Build(tc)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}

	ex, err := e.orchestrator.Run(ctx, prompt)
	report := Report{
		Nearby:      len(tc.NearbyExpenses),
		Steps:       ex.Steps,
		Invocations: ex.Invocations,
		Truncated:   ex.Truncated,
	}
	if err != nil {
		report.Suggestion = model.FallbackSuggestion(err.Error())
		report.Outcome = model.OutcomeUpstreamFailure
		return report, nil
	}

	if ex.Truncated && strings.TrimSpace(ex.Text) == "" {
		report.Suggestion = model.FallbackSuggestion(
			fmt.Sprintf("Model did not answer within %d steps", e.orchestrator.MaxSteps()))
		report.Outcome = model.OutcomeParseFailure
	} else {
		report.Suggestion, report.Outcome = ParseSuggestion(ex.Text)
	}

	if report.Outcome.IsFallback() {
		e.logger.Warn("model output rejected",
			"outcome", report.Outcome,
			"steps", report.Steps,
			"reasoning", report.Suggestion.Reasoning)
		e.logger.Debug("raw model output", "text", ex.Text)
	}
	return report, nil
}

// SuggestForLocation filters history to expenses near q and suggests a
// category. The model is not consulted when the amount is not positive or
// there is no history at all.
func (e *Engine) SuggestForLocation(ctx context.Context, q model.Query, history []model.Expense) (Report, error) {
	if err := q.Point().Validate(); err != nil {
		return Report{}, err
	}
	if q.DateTime == "" {
		q.DateTime = model.FormatDateTime(e.now())
	}

	switch {
	case q.Amount <= 0:
		return Report{Suggestion: model.FallbackSuggestion(ReasonNoAmount), Outcome: model.OutcomeSkipped}, nil
	case len(history) == 0:
		return Report{Suggestion: model.FallbackSuggestion(ReasonNoHistory), Outcome: model.OutcomeSkipped}, nil
	}

	tc := model.TransactionContext{
		DateTime:       q.DateTime,
		NearbyExpenses: geo.FilterNearby(q.Point(), history, e.radius),
		Latitude:       q.Latitude,
		Longitude:      q.Longitude,
		Amount:         q.Amount,
	}
	return e.Evaluate(ctx, tc)
}
