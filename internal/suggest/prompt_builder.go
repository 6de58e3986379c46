package suggest

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/Veraticus/geospice/internal/model"
	"github.com/Veraticus/geospice/internal/tools"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultCurrency prefixes the amount in the prompt.
const DefaultCurrency = "€"

// PromptBuilder renders the classification prompt for one transaction.
type PromptBuilder struct {
	tmpl     *template.Template
	currency string
	toolSet  map[string]bool
}

// NewPromptBuilder parses the embedded prompt template. toolNames lists the
// helpers the model can call; hints for absent helpers are left out.
func NewPromptBuilder(currency string, toolNames []string) (*PromptBuilder, error) {
	if currency == "" {
		currency = DefaultCurrency
	}

	funcMap := template.FuncMap{
		"formatCoord":  formatNumber,
		"formatAmount": formatNumber,
		"join":         strings.Join,
	}

	tmpl, err := template.New("suggest_prompt.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/suggest_prompt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template suggest_prompt: %w", err)
	}

	toolSet := make(map[string]bool, len(toolNames))
	for _, name := range toolNames {
		toolSet[name] = true
	}

	return &PromptBuilder{tmpl: tmpl, currency: currency, toolSet: toolSet}, nil
}

type promptData struct {
	Categories    []string
	Currency      string
	DateTime      string
	NearbyJSON    string
	AmountTool    string
	DayTool       string
	Latitude      float64
	Longitude     float64
	Amount        float64
	MaxConfidence int
	HasAmountTool bool
	HasDayTool    bool
}

// Build renders the prompt. The nearby history is embedded as a JSON array
// in the order given.
func (pb *PromptBuilder) Build(tc model.TransactionContext) (string, error) {
	nearby, err := encodeNearby(tc.NearbyExpenses)
	if err != nil {
		return "", fmt.Errorf("failed to encode nearby expenses: %w", err)
	}

	data := promptData{
		Categories:    model.CategoryNames(),
		Currency:      pb.currency,
		DateTime:      tc.DateTime,
		NearbyJSON:    nearby,
		AmountTool:    tools.AmountRangeToolName,
		DayTool:       tools.DayOfWeekToolName,
		Latitude:      tc.Latitude,
		Longitude:     tc.Longitude,
		Amount:        tc.Amount,
		MaxConfidence: model.MaxConfidence,
		HasAmountTool: pb.toolSet[tools.AmountRangeToolName],
		HasDayTool:    pb.toolSet[tools.DayOfWeekToolName],
	}

	var buf bytes.Buffer
	if err := pb.tmpl.ExecuteTemplate(&buf, "suggest_prompt.tmpl", data); err != nil {
		return "", fmt.Errorf("failed to execute suggest_prompt template: %w", err)
	}
	return buf.String(), nil
}

func encodeNearby(nearby []model.NearbyTransaction) (string, error) {
	if nearby == nil {
		nearby = []model.NearbyTransaction{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(nearby); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// formatNumber prints the shortest decimal form, e.g. 42.5 or 48.2082.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
