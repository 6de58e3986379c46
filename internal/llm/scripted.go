package llm

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned when a ScriptedClient has no turns left.
var ErrScriptExhausted = errors.New("scripted client has no turns left")

// ScriptedTurn is one canned model turn.
type ScriptedTurn struct {
	Err      error
	Response ChatResponse
}

// TextTurn is a turn that answers with free text.
func TextTurn(text string) ScriptedTurn {
	return ScriptedTurn{Response: ChatResponse{Content: text}}
}

// ToolTurn is a turn that requests the given tool calls.
func ToolTurn(calls ...ToolCall) ScriptedTurn {
	return ScriptedTurn{Response: ChatResponse{ToolCalls: calls}}
}

// ErrorTurn is a turn that fails as an unreachable provider would.
func ErrorTurn(err error) ScriptedTurn {
	return ScriptedTurn{Err: err}
}

// ScriptedClient replays a fixed sequence of turns and records every request.
type ScriptedClient struct {
	turns      []ScriptedTurn
	calls      []ChatRequest
	next       int
	repeatLast bool
	mu         sync.Mutex
}

// NewScriptedClient creates a client that answers with turns in order.
func NewScriptedClient(turns ...ScriptedTurn) *ScriptedClient {
	return &ScriptedClient{turns: turns}
}

// RepeatLast makes the final turn answer every request after the script ends.
func (s *ScriptedClient) RepeatLast() *ScriptedClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeatLast = true
	return s
}

// Chat returns the next scripted turn.
func (s *ScriptedClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return ChatResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := req
	snapshot.Messages = append([]Message(nil), req.Messages...)
	s.calls = append(s.calls, snapshot)

	if s.next >= len(s.turns) {
		if s.repeatLast && len(s.turns) > 0 {
			turn := s.turns[len(s.turns)-1]
			return turn.Response, turn.Err
		}
		return ChatResponse{}, ErrScriptExhausted
	}

	turn := s.turns[s.next]
	s.next++
	return turn.Response, turn.Err
}

// Calls returns the requests received so far.
func (s *ScriptedClient) Calls() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatRequest(nil), s.calls...)
}

// ChatFunc adapts a function to the ChatClient interface.
type ChatFunc func(ctx context.Context, req ChatRequest) (ChatResponse, error)

// Chat calls f.
func (f ChatFunc) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	return f(ctx, req)
}
