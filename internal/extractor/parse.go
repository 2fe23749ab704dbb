package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"kakeibo/internal/core"
)

// receiptFields is the raw shape recovered from the model's reply,
// before normalization. Amount is a pointer so "absent" and "zero"
// stay distinguishable.
type receiptFields struct {
	Date     string
	Amount   *float64
	Item     string
	Category string
}

// jsonObjectPattern grabs the first greedy {...} span. Models pad
// replies with prose and fences often enough that a full JSON scanner
// is not worth it; first-brace-to-last-brace recovers every reply seen
// in practice.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// parseModelResponse recovers the four receipt fields from the model's
// raw text reply.
func parseModelResponse(raw string) (receiptFields, error) {
	cleaned := stripFences(raw)

	span := jsonObjectPattern.FindString(cleaned)
	if span == "" {
		return receiptFields{}, fmt.Errorf("no JSON object in model response")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return receiptFields{}, fmt.Errorf("unmarshal model response: %w", err)
	}

	amount, err := amountField(obj)
	if err != nil {
		return receiptFields{}, err
	}

	return receiptFields{
		Date:     stringField(obj, "date"),
		Amount:   amount,
		Item:     stringField(obj, "item"),
		Category: stringField(obj, "category"),
	}, nil
}

// stripFences drops Markdown code fences the model adds despite being
// told not to.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}

// stringField reads a string field, tolerating absence and wrong types.
func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// amountField reads the amount as a JSON number or a numeric string.
// Absence returns nil; anything unparseable is an invalid amount.
func amountField(m map[string]interface{}) (*float64, error) {
	v, ok := m["amount"]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case float64:
		return &val, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("amount %q: %w", val, core.ErrInvalidAmount)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("amount has type %T: %w", v, core.ErrInvalidAmount)
	}
}
