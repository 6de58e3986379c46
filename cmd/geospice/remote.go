package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/geospice/internal/common"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/Veraticus/geospice/internal/suggest"
)

// remoteClient asks a running `geospice serve` for suggestions.
type remoteClient struct {
	http    *http.Client
	baseURL string
	retry   common.RetryOptions
}

func newRemoteClient(baseURL string, timeout time.Duration, attempts int) *remoteClient {
	return &remoteClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		retry: common.RetryOptions{
			MaxAttempts:  attempts,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		},
	}
}

type remoteHistoryExpense struct {
	Category  string  `json:"category"`
	DateTime  string  `json:"datetime"`
	Amount    float64 `json:"amount"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type remoteSuggestRequest struct {
	DateTime  string                 `json:"datetime,omitempty"`
	History   []remoteHistoryExpense `json:"history"`
	Latitude  float64                `json:"latitude"`
	Longitude float64                `json:"longitude"`
	Amount    float64                `json:"amount"`
}

type remoteSuggestResponse struct {
	model.Suggestion
	Outcome model.Outcome `json:"outcome"`
	Nearby  int           `json:"nearby"`
}

type remoteError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Suggest posts the query and the caller's history to /api/suggest. Whole
// requests are retried on transport errors, 429 and 5xx responses.
func (c *remoteClient) Suggest(ctx context.Context, q model.Query, history []model.Expense) (suggest.Report, error) {
	req := remoteSuggestRequest{
		DateTime:  q.DateTime,
		History:   make([]remoteHistoryExpense, 0, len(history)),
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		Amount:    q.Amount,
	}
	for _, e := range history {
		req.History = append(req.History, remoteHistoryExpense{
			Category:  e.Category.String(),
			DateTime:  e.DateTime,
			Amount:    e.Amount,
			Latitude:  e.Latitude,
			Longitude: e.Longitude,
		})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return suggest.Report{}, fmt.Errorf("failed to encode request: %w", err)
	}

	var resp remoteSuggestResponse
	err = common.WithRetry(ctx, func() error {
		return c.post(ctx, "/api/suggest", body, &resp)
	}, c.retry)
	if err != nil {
		return suggest.Report{}, err
	}

	report := suggest.Report{
		Suggestion: resp.Suggestion,
		Outcome:    resp.Outcome,
		Nearby:     resp.Nearby,
	}
	if !resp.Category.Valid() {
		report.Suggestion = model.FallbackSuggestion(fmt.Sprintf("Invalid category suggested: %s. Must be one of: %s",
			resp.Category, model.JoinCategoryNames()))
		report.Outcome = model.OutcomeInvalidCategory
	}
	report.Suggestion.Confidence = model.ClampConfidence(report.Suggestion.Confidence)
	return report, nil
}

func (c *remoteClient) post(ctx context.Context, path string, body []byte, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return common.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return common.Permanent(ctx.Err())
		}
		return fmt.Errorf("%w: %w", common.ErrServerUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", common.ErrServerUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return common.ErrRateLimit
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", common.ErrServerUnavailable, resp.StatusCode)
	default:
		var apiErr remoteError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg := apiErr.Error
			if apiErr.Details != "" {
				msg += ": " + apiErr.Details
			}
			return common.Permanent(fmt.Errorf("%w: %s", common.ErrBadRequest, msg))
		}
		return common.Permanent(fmt.Errorf("%w: status %d", common.ErrBadRequest, resp.StatusCode))
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return common.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
