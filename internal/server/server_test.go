package server

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/geospice/internal/llm"
	"github.com/Veraticus/geospice/internal/metrics"
	"github.com/Veraticus/geospice/internal/suggest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	modelAnswer = `{"category":"Groceries","confidence":80,"reasoning":"matches nearby pattern"}`
	viennaBody  = `{"latitude":48.20,"longitude":16.37,"amount":12.5,"datetime":"2024-01-15T12:00:00Z",` +
		`"nearbyExpenses":[{"category":"Groceries","amount":15,"distance":100,"datetime":"2024-01-14T12:00:00Z"}]}`
)

type testServer struct {
	*httptest.Server
	client *llm.ScriptedClient
}

func newTestServer(t *testing.T, rateLimit int, turns ...llm.ScriptedTurn) *testServer {
	t.Helper()
	client := llm.NewScriptedClient(turns...)
	engine, err := suggest.NewEngine(client, suggest.DefaultOptions())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	collector := metrics.New()
	require.NoError(t, collector.Register(reg))

	clock := &fakeClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
	srv := New(engine, Options{
		Metrics:   collector,
		Gatherer:  reg,
		Now:       clock.Now,
		Version:   "test",
		RateLimit: rateLimit,
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, client: client}
}

func (ts *testServer) post(t *testing.T, path, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func (ts *testServer) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestSuggestCategory_EndToEnd(t *testing.T) {
	ts := newTestServer(t, 0, llm.TextTurn(modelAnswer))

	status, body := ts.post(t, "/api/suggest-category", viennaBody)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, modelAnswer, body)

	calls := ts.client.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Messages[0].Content, "Current amount: €12.5")
}

func TestSuggestCategory_MalformedInput(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantError   string
		wantDetails string
	}{
		{
			name:        "missing datetime",
			body:        `{"latitude":48.2,"longitude":16.37,"amount":12.5,"nearbyExpenses":[]}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   msgMissingFields,
			wantDetails: "datetime",
		},
		{
			name:        "missing nearby list",
			body:        `{"latitude":48.2,"longitude":16.37,"amount":12.5,"datetime":"2024-01-15T12:00:00Z"}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   msgMissingFields,
			wantDetails: "nearbyExpenses",
		},
		{
			name:        "null nearby list",
			body:        `{"latitude":48.2,"longitude":16.37,"amount":12.5,"datetime":"2024-01-15T12:00:00Z","nearbyExpenses":null}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   msgMissingFields,
			wantDetails: "nearbyExpenses",
		},
		{
			name:        "nearby entry missing distance",
			body:        `{"latitude":48.2,"longitude":16.37,"amount":12.5,"datetime":"x","nearbyExpenses":[{"category":"Groceries","amount":1,"datetime":"x"}]}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   msgMissingFields,
			wantDetails: "nearbyExpenses[0].distance",
		},
		{
			name:        "latitude as string",
			body:        `{"latitude":"48.2","longitude":16.37,"amount":12.5,"datetime":"2024-01-15T12:00:00Z","nearbyExpenses":[]}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   msgMissingFields,
			wantDetails: "latitude must be of type number",
		},
		{
			name:       "array body",
			body:       `[]`,
			wantStatus: http.StatusBadRequest,
			wantError:  msgInvalidBody,
		},
		{
			name:       "broken JSON",
			body:       `{"latitude":`,
			wantStatus: http.StatusBadRequest,
			wantError:  msgInvalidBody,
		},
		{
			name:        "negative amount",
			body:        `{"latitude":48.2,"longitude":16.37,"amount":-1,"datetime":"2024-01-15T12:00:00Z","nearbyExpenses":[]}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   msgInvalidValues,
			wantDetails: "amount",
		},
		{
			name:        "latitude out of range",
			body:        `{"latitude":123,"longitude":16.37,"amount":1,"datetime":"2024-01-15T12:00:00Z","nearbyExpenses":[]}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   msgInvalidValues,
			wantDetails: "latitude",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, 0, llm.TextTurn(modelAnswer))

			status, body := ts.post(t, "/api/suggest-category", tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, body, `"error":"`+tt.wantError+`"`)
			assert.Contains(t, body, tt.wantDetails)
			assert.Empty(t, ts.client.Calls(), "model must not be called for malformed input")
		})
	}
}

func TestSuggestCategory_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t, 0)

	body := `{"datetime":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	status, resp := ts.post(t, "/api/suggest-category", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Contains(t, resp, msgBodyTooLarge)
}

func TestSuggestCategory_ModelFailuresDegrade(t *testing.T) {
	tests := []struct {
		name string
		turn llm.ScriptedTurn
	}{
		{name: "provider error", turn: llm.ErrorTurn(errors.New("503 service unavailable"))},
		{name: "garbage text", turn: llm.TextTurn("no idea")},
		{name: "unknown category", turn: llm.TextTurn(`{"category":"Foo","confidence":50,"reasoning":"x"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, 0, tt.turn)

			status, body := ts.post(t, "/api/suggest-category", viennaBody)
			assert.Equal(t, http.StatusOK, status)
			assert.Contains(t, body, `"category":"Other"`)
			assert.Contains(t, body, `"confidence":0`)
		})
	}
}

func TestSuggest_FiltersHistory(t *testing.T) {
	ts := newTestServer(t, 0, llm.TextTurn(modelAnswer))

	body := `{"latitude":48.20,"longitude":16.37,"amount":12.5,"datetime":"2024-01-15T12:00:00Z","history":[
		{"category":"Groceries","amount":15,"latitude":48.2005,"longitude":16.37,"datetime":"2024-01-14T12:00:00Z"},
		{"category":"Housing","amount":900,"latitude":48.30,"longitude":16.37,"datetime":"2024-01-01T09:00:00Z"}
	]}`
	status, resp := ts.post(t, "/api/suggest", body)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"category":"Groceries","confidence":80,"reasoning":"matches nearby pattern","outcome":"accepted","nearby":1}`, resp)

	prompt := ts.client.Calls()[0].Messages[0].Content
	assert.NotContains(t, prompt, "Housing\",")
}

func TestSuggest_SkipsWithoutHistory(t *testing.T) {
	ts := newTestServer(t, 0, llm.TextTurn(modelAnswer))

	status, resp := ts.post(t, "/api/suggest", `{"latitude":48.2,"longitude":16.37,"amount":12.5,"history":[]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, resp, `"outcome":"skipped"`)
	assert.Contains(t, resp, `"category":"Other"`)
	assert.Empty(t, ts.client.Calls())

	status, resp = ts.post(t, "/api/suggest", `{"latitude":48.2,"longitude":16.37,"amount":12.5}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp, "history")
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		status, _ := ts.get(t, "/api/categories")
		assert.Equal(t, http.StatusOK, status)
	}

	resp, err := http.Get(ts.URL + "/api/categories")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Health checks are not rate limited.
	status, _ := ts.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, status)
}

func TestCategoriesAndHealth(t *testing.T) {
	ts := newTestServer(t, 0)

	status, body := ts.get(t, "/api/categories")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"categories":["Groceries","Restaurants","Transportation","Entertainment","Shopping","Health","Education","Housing","Utilities","Other"]}`, body)

	status, body = ts.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, body)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, 0, llm.TextTurn(modelAnswer))

	status, _ := ts.post(t, "/api/suggest-category", viennaBody)
	require.Equal(t, http.StatusOK, status)
	status, _ = ts.post(t, "/api/suggest-category", `[]`)
	require.Equal(t, http.StatusBadRequest, status)

	status, body := ts.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `geospice_suggestions_total{outcome="accepted"} 1`)
	assert.Contains(t, body, `geospice_rejected_requests_total 1`)
	assert.Contains(t, body, `geospice_http_requests_total{code="200",route="/api/suggest-category"} 1`)
}
