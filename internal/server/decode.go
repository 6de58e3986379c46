package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Veraticus/geospice/internal/model"
)

// MaxBodyBytes bounds the size of a request body.
const MaxBodyBytes = 1 << 20

// Client-facing error messages.
const (
	msgInvalidBody    = "Invalid request body"
	msgMissingFields  = "Missing required fields"
	msgInvalidValues  = "Invalid field values"
	msgBodyTooLarge   = "Request body too large"
	msgRateLimited    = "Too many requests"
	msgProcessFailure = "Failed to process request"
)

// requestError is a malformed request, reported as {error, details}.
type requestError struct {
	Message string
	Details string
	Status  int
}

func (e *requestError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

func badRequest(message, details string) *requestError {
	return &requestError{Status: http.StatusBadRequest, Message: message, Details: details}
}

// decodeBody reads a single JSON object from the request into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &requestError{
				Status:  http.StatusRequestEntityTooLarge,
				Message: msgBodyTooLarge,
				Details: fmt.Sprintf("limit is %d bytes", tooLarge.Limit),
			}
		}
		return badRequest(msgInvalidBody, err.Error())
	}

	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return badRequest(msgInvalidBody, "expected a JSON object")
	}

	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return badRequest(msgMissingFields, fmt.Sprintf("%s must be of type %s", typeErr.Field, jsonType(typeErr.Type.Kind().String())))
		}
		return badRequest(msgInvalidBody, err.Error())
	}
	return nil
}

func jsonType(kind string) string {
	switch kind {
	case "float64", "float32", "int", "int64":
		return "number"
	case "slice":
		return "array"
	case "ptr":
		return "value"
	default:
		return kind
	}
}

// fieldSet collects the names of absent required fields.
type fieldSet []string

func (f *fieldSet) require(present bool, name string) {
	if !present {
		*f = append(*f, name)
	}
}

func (f fieldSet) err() error {
	if len(f) == 0 {
		return nil
	}
	return badRequest(msgMissingFields, strings.Join(f, ", "))
}

type nearbyExpenseRequest struct {
	Category *string  `json:"category"`
	Amount   *float64 `json:"amount"`
	Distance *float64 `json:"distance"`
	DateTime *string  `json:"datetime"`
}

type suggestCategoryRequest struct {
	Latitude       *float64                `json:"latitude"`
	Longitude      *float64                `json:"longitude"`
	Amount         *float64                `json:"amount"`
	DateTime       *string                 `json:"datetime"`
	NearbyExpenses *[]nearbyExpenseRequest `json:"nearbyExpenses"`
}

// transactionContext checks presence of every required field and builds
// the engine input.
func (req suggestCategoryRequest) transactionContext() (model.TransactionContext, error) {
	var missing fieldSet
	missing.require(req.Latitude != nil, "latitude")
	missing.require(req.Longitude != nil, "longitude")
	missing.require(req.Amount != nil, "amount")
	missing.require(req.DateTime != nil, "datetime")
	missing.require(req.NearbyExpenses != nil, "nearbyExpenses")
	if req.NearbyExpenses != nil {
		for i, n := range *req.NearbyExpenses {
			prefix := fmt.Sprintf("nearbyExpenses[%d].", i)
			missing.require(n.Category != nil, prefix+"category")
			missing.require(n.Amount != nil, prefix+"amount")
			missing.require(n.Distance != nil, prefix+"distance")
			missing.require(n.DateTime != nil, prefix+"datetime")
		}
	}
	if err := missing.err(); err != nil {
		return model.TransactionContext{}, err
	}

	nearby := make([]model.NearbyTransaction, 0, len(*req.NearbyExpenses))
	for _, n := range *req.NearbyExpenses {
		nearby = append(nearby, model.NearbyTransaction{
			Category: *n.Category,
			Amount:   *n.Amount,
			Distance: *n.Distance,
			DateTime: *n.DateTime,
		})
	}

	tc := model.TransactionContext{
		DateTime:       *req.DateTime,
		NearbyExpenses: nearby,
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		Amount:         *req.Amount,
	}
	if err := tc.Validate(); err != nil {
		return model.TransactionContext{}, badRequest(msgInvalidValues, err.Error())
	}
	return tc, nil
}

type historyExpenseRequest struct {
	Category  *string  `json:"category"`
	Amount    *float64 `json:"amount"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	DateTime  *string  `json:"datetime"`
}

type suggestRequest struct {
	Latitude  *float64                 `json:"latitude"`
	Longitude *float64                 `json:"longitude"`
	Amount    *float64                 `json:"amount"`
	DateTime  *string                  `json:"datetime"`
	History   *[]historyExpenseRequest `json:"history"`
}

// query checks presence of required fields; datetime is optional and
// defaults to the current time.
func (req suggestRequest) query() (model.Query, []model.Expense, error) {
	var missing fieldSet
	missing.require(req.Latitude != nil, "latitude")
	missing.require(req.Longitude != nil, "longitude")
	missing.require(req.Amount != nil, "amount")
	missing.require(req.History != nil, "history")
	if req.History != nil {
		for i, h := range *req.History {
			prefix := fmt.Sprintf("history[%d].", i)
			missing.require(h.Category != nil, prefix+"category")
			missing.require(h.Amount != nil, prefix+"amount")
			missing.require(h.Latitude != nil, prefix+"latitude")
			missing.require(h.Longitude != nil, prefix+"longitude")
			missing.require(h.DateTime != nil, prefix+"datetime")
		}
	}
	if err := missing.err(); err != nil {
		return model.Query{}, nil, err
	}

	q := model.Query{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Amount:    *req.Amount,
	}
	if req.DateTime != nil {
		q.DateTime = *req.DateTime
	}
	if err := q.Point().Validate(); err != nil {
		return model.Query{}, nil, badRequest(msgInvalidValues, err.Error())
	}
	if q.Amount < 0 {
		return model.Query{}, nil, badRequest(msgInvalidValues, "amount must be a non-negative number")
	}

	history := make([]model.Expense, 0, len(*req.History))
	for i, h := range *req.History {
		e := model.Expense{
			Category:  model.Category(*h.Category),
			Amount:    *h.Amount,
			Latitude:  *h.Latitude,
			Longitude: *h.Longitude,
			DateTime:  *h.DateTime,
		}
		if err := e.Point().Validate(); err != nil {
			return model.Query{}, nil, badRequest(msgInvalidValues, fmt.Sprintf("history[%d]: %v", i, err))
		}
		history = append(history, e)
	}
	return q, history, nil
}
