package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/geospice/internal/common"
	"github.com/Veraticus/geospice/internal/llm"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/Veraticus/geospice/internal/server"
	"github.com/Veraticus/geospice/internal/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	stephansplatz = model.Query{Latitude: 48.2082, Longitude: 16.3738, Amount: 12.5, DateTime: "2024-01-15T12:00:00Z"}
	remoteHistory = []model.Expense{
		{Category: model.CategoryGroceries, Amount: 15, Latitude: 48.2085, Longitude: 16.3740, DateTime: "2024-01-14T12:00:00Z"},
		{Category: model.CategoryHousing, Amount: 900, Latitude: 48.30, Longitude: 16.50, DateTime: "2024-01-01T09:00:00Z"},
	}
)

func fastRemoteClient(url string, attempts int) *remoteClient {
	c := newRemoteClient(url, 5*time.Second, attempts)
	c.retry.InitialDelay = time.Millisecond
	c.retry.MaxDelay = 5 * time.Millisecond
	return c
}

func TestRemoteClient_AgainstServer(t *testing.T) {
	client := llm.NewScriptedClient(llm.TextTurn(`{"category":"Groceries","confidence":80,"reasoning":"nearby groceries"}`))
	engine, err := suggest.NewEngine(client, suggest.DefaultOptions())
	require.NoError(t, err)
	ts := httptest.NewServer(server.New(engine, server.Options{}).Router())
	t.Cleanup(ts.Close)

	report, err := fastRemoteClient(ts.URL+"/", 1).Suggest(context.Background(), stephansplatz, remoteHistory)
	require.NoError(t, err)

	assert.Equal(t, model.CategoryGroceries, report.Suggestion.Category)
	assert.InDelta(t, 80, report.Suggestion.Confidence, 0.001)
	assert.Equal(t, model.OutcomeAccepted, report.Outcome)
	assert.Equal(t, 1, report.Nearby, "server filters history by distance")
	require.Len(t, client.Calls(), 1)
}

func TestRemoteClient_RetriesTransientFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "server error", status: http.StatusBadGateway},
		{name: "rate limited", status: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if hits.Add(1) < 3 {
					w.WriteHeader(tt.status)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"category":"Health","confidence":40,"reasoning":"pharmacy","outcome":"accepted","nearby":2}`))
			}))
			t.Cleanup(ts.Close)

			report, err := fastRemoteClient(ts.URL, 3).Suggest(context.Background(), stephansplatz, remoteHistory)
			require.NoError(t, err)
			assert.Equal(t, model.CategoryHealth, report.Suggestion.Category)
			assert.Equal(t, 2, report.Nearby)
			assert.Equal(t, int32(3), hits.Load())
		})
	}
}

func TestRemoteClient_RejectsCategoryOutsideVocabulary(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"category":"Microspends","confidence":150,"reasoning":"tiny","outcome":"accepted","nearby":1}`))
	}))
	t.Cleanup(ts.Close)

	report, err := fastRemoteClient(ts.URL, 1).Suggest(context.Background(), stephansplatz, remoteHistory)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryOther, report.Suggestion.Category)
	assert.Zero(t, report.Suggestion.Confidence)
	assert.Contains(t, report.Suggestion.Reasoning, "Invalid category suggested: Microspends")
	assert.Equal(t, model.OutcomeInvalidCategory, report.Outcome)
	assert.Equal(t, 1, report.Nearby)
}

func TestRemoteClient_GivesUpAfterAttempts(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(ts.Close)

	_, err := fastRemoteClient(ts.URL, 2).Suggest(context.Background(), stephansplatz, remoteHistory)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMaxRetries))
	assert.True(t, errors.Is(err, common.ErrServerUnavailable))
	assert.Equal(t, int32(2), hits.Load())
}

func TestRemoteClient_BadRequestIsPermanent(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid field values","details":"latitude out of range"}`))
	}))
	t.Cleanup(ts.Close)

	_, err := fastRemoteClient(ts.URL, 3).Suggest(context.Background(), stephansplatz, remoteHistory)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrBadRequest))
	assert.Contains(t, err.Error(), "latitude out of range")
	assert.Equal(t, int32(1), hits.Load())
}

func TestRemoteClient_CanceledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fastRemoteClient(ts.URL, 3).Suggest(ctx, stephansplatz, remoteHistory)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
