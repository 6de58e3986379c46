package tools

import (
	"encoding/json"

	"github.com/Veraticus/geospice/internal/llm"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// AmountRangeToolName is the declared name of the amount range helper.
const AmountRangeToolName = "getTypicalAmountRange"

// AmountRange is the usual spend band for a category.
type AmountRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultAmountRange is returned for names outside the table.
var DefaultAmountRange = AmountRange{Min: 0, Max: 100}

var typicalRanges = map[model.Category]AmountRange{
	model.CategoryGroceries:      {Min: 10, Max: 100},
	model.CategoryRestaurants:    {Min: 15, Max: 80},
	model.CategoryTransportation: {Min: 2, Max: 50},
	model.CategoryEntertainment:  {Min: 5, Max: 100},
	model.CategoryShopping:       {Min: 10, Max: 500},
	model.CategoryHealth:         {Min: 5, Max: 200},
	model.CategoryEducation:      {Min: 20, Max: 300},
	model.CategoryHousing:        {Min: 100, Max: 2000},
	model.CategoryUtilities:      {Min: 20, Max: 300},
	model.CategoryOther:          {Min: 0, Max: 100},
}

// TypicalAmountRange looks up the band for a category name. It never fails.
func TypicalAmountRange(category string) AmountRange {
	if r, ok := typicalRanges[model.Category(category)]; ok {
		return r
	}
	return DefaultAmountRange
}

// AmountRangeTool exposes TypicalAmountRange to the model.
type AmountRangeTool struct{}

// Definition implements Tool.
func (AmountRangeTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        AmountRangeToolName,
		Description: "Get the typical min and max amount for a given expense category.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"category": {
					Type:        jsonschema.String,
					Description: "The expense category",
				},
			},
			Required: []string{"category"},
		},
	}
}

// Call implements Tool.
func (AmountRangeTool) Call(args json.RawMessage) (any, error) {
	var in struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}
	return TypicalAmountRange(in.Category), nil
}
