package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/geospice/internal/llm"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/Veraticus/geospice/internal/tools"
)

// ErrUpstream marks a failed call to the model provider.
var ErrUpstream = errors.New("upstream model call failed")

// Orchestrator defaults.
const (
	DefaultMaxSteps    = 3
	DefaultTemperature = 0.7
)

// Exchange is the result of one bounded conversation with the model.
type Exchange struct {
	Text        string
	Invocations []model.ToolInvocation
	Steps       int
	// Truncated is set when the step bound was reached while the model
	// still wanted to call tools.
	Truncated bool
}

// Orchestrator drives the model/tool loop for a single prompt. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	client      llm.ChatClient
	registry    *tools.Registry
	logger      *slog.Logger
	maxSteps    int
	temperature float64
}

// NewOrchestrator creates an orchestrator. maxSteps counts model calls,
// including the one producing the final answer; values below 1 select
// DefaultMaxSteps.
func NewOrchestrator(client llm.ChatClient, registry *tools.Registry, maxSteps int, temperature float64, logger *slog.Logger) *Orchestrator {
	if maxSteps < 1 {
		maxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		client:      client,
		registry:    registry,
		maxSteps:    maxSteps,
		temperature: temperature,
		logger:      logger,
	}
}

// MaxSteps returns the configured step bound.
func (o *Orchestrator) MaxSteps() int {
	return o.maxSteps
}

// Run sends prompt to the model and services tool requests until the model
// answers or the step bound is hit. The text of the last model turn is
// returned. Provider failures are wrapped in ErrUpstream and are not retried.
func (o *Orchestrator) Run(ctx context.Context, prompt string) (Exchange, error) {
	var ex Exchange
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}
	defs := o.registry.Definitions()

	for ex.Steps < o.maxSteps {
		if err := ctx.Err(); err != nil {
			return ex, fmt.Errorf("%w: %w", ErrUpstream, err)
		}

		ex.Steps++
		resp, err := o.client.Chat(ctx, llm.ChatRequest{
			Messages:    messages,
			Tools:       defs,
			Temperature: o.temperature,
		})
		if err != nil {
			o.logger.Warn("model call failed", "step", ex.Steps, "error", err)
			return ex, fmt.Errorf("%w: %w", ErrUpstream, err)
		}

		ex.Text = resp.Content
		o.logger.Debug("model step completed",
			"step", ex.Steps,
			"tool_calls", len(resp.ToolCalls),
			"text_length", len(resp.Content))

		if !resp.WantsTools() {
			return ex, nil
		}

		if ex.Steps == o.maxSteps {
			ex.Truncated = true
			o.logger.Warn("step bound reached with pending tool calls",
				"max_steps", o.maxSteps,
				"pending", len(resp.ToolCalls))
			return ex, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			inv, msg := o.invoke(call)
			ex.Invocations = append(ex.Invocations, inv)
			messages = append(messages, msg)
		}
	}

	return ex, nil
}

// invoke runs one tool call. Failures are reported back to the model as an
// error result rather than aborting the exchange.
func (o *Orchestrator) invoke(call llm.ToolCall) (model.ToolInvocation, llm.Message) {
	inv, err := o.registry.Invoke(call.Name, call.Arguments)
	msg := llm.Message{Role: llm.RoleTool, ToolCallID: call.ID}

	if err != nil {
		o.logger.Debug("tool call rejected", "tool", call.Name, "error", err)
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		msg.Content = string(payload)
		msg.IsError = true
		return inv, msg
	}

	o.logger.Debug("tool call completed",
		"tool", call.Name,
		"arguments", string(inv.Arguments),
		"result", string(inv.Result))
	msg.Content = string(inv.Result)
	return inv, msg
}
