// Package llm provides tool-calling chat clients for expense classification.
// It supports OpenAI and Anthropic behind a single ChatClient interface, plus a
// scripted client that replays canned turns for tests and offline runs.
package llm
