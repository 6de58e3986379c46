package tools

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Veraticus/geospice/internal/llm"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// DayOfWeekToolName is the declared name of the weekday helper.
const DayOfWeekToolName = "getDayOfWeek"

// InvalidDate is reported for timestamps no layout could parse.
const InvalidDate = "Invalid Date"

// DayOfWeek is the weekday helper's result.
type DayOfWeek struct {
	DayOfWeek string `json:"dayOfWeek"`
}

// Accepted layouts, most specific first. Timestamps without an offset are
// read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// DayOfWeekFor returns the English weekday of an ISO-8601 timestamp, in the
// timestamp's own offset. Unparseable input yields InvalidDate.
func DayOfWeekFor(date string) DayOfWeek {
	date = strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return DayOfWeek{DayOfWeek: t.Weekday().String()}
		}
	}
	return DayOfWeek{DayOfWeek: InvalidDate}
}

// DayOfWeekTool exposes DayOfWeekFor to the model.
type DayOfWeekTool struct{}

// Definition implements Tool.
func (DayOfWeekTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        DayOfWeekToolName,
		Description: "Get the day of the week for a given date (ISO string).",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"date": {
					Type:        jsonschema.String,
					Description: "Date in ISO format",
				},
			},
			Required: []string{"date"},
		},
	}
}

// Call implements Tool.
func (DayOfWeekTool) Call(args json.RawMessage) (any, error) {
	var in struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}
	return DayOfWeekFor(in.Date), nil
}
