// internal/recommendation/normalize.go
package recommendation

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// peoplePatterns are tried in order against the raw prompt when the
// extraction is degraded. The first match yielding N >= 1 wins.
var peoplePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*orang`),
	regexp.MustCompile(`(?i)keluarga\s*(\d+)\s*orang`),
	regexp.MustCompile(`(?i)keluarga\s*(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*people`),
	regexp.MustCompile(`(?i)(\d+)\s*penumpang`),
	regexp.MustCompile(`(?i)(\d+)\s*person`),
}

// Normalize coerces an extraction into criteria. It never fails; a nil
// result yields all-nil criteria.
func Normalize(result *ExtractionResult, prompt string) NormalizedCriteria {
	if result == nil {
		return NormalizedCriteria{}
	}

	var c NormalizedCriteria

	c.OriginCity = coerceText(result.OriginCity)
	c.LocationCity = c.OriginCity
	if c.LocationCity == nil {
		c.LocationCity = coerceText(result.City)
	}

	if result.IsDegraded() {
		c.MinSeats = peopleFromPrompt(prompt)
	}
	if c.MinSeats == nil {
		c.MinSeats = coercePeople(result.People)
	}

	minRaw, maxRaw := budgetBounds(result.BudgetPerDay)
	c.MinPrice = coerceBudget(minRaw)
	c.MaxPrice = coerceBudget(maxRaw)

	c.VehicleTypeHint = coerceText(result.Type)
	c.RentalDays = coerceDays(result.Days)

	return c
}

func peopleFromPrompt(prompt string) *int {
	for _, re := range peoplePatterns {
		m := re.FindStringSubmatch(prompt)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 {
			return &n
		}
	}
	return nil
}

// coerceNumber accepts JSON numbers and numeric strings. Booleans, nil and
// everything else are not numbers.
func coerceNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func coercePeople(v interface{}) *int {
	f, ok := coerceNumber(v)
	if !ok || !finite(f) {
		return nil
	}
	f = math.Trunc(f)
	if f < 1 || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

func coerceBudget(v interface{}) *float64 {
	f, ok := coerceNumber(v)
	if !ok || !finite(f) || f < 0 {
		return nil
	}
	return &f
}

func coerceDays(v interface{}) *int {
	f, ok := coerceNumber(v)
	if !ok || !finite(f) || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

func coerceText(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func budgetBounds(v interface{}) (interface{}, interface{}) {
	switch b := v.(type) {
	case map[string]interface{}:
		return b["min"], b["max"]
	case Budget:
		return b.Min, b.Max
	case *Budget:
		if b == nil {
			return nil, nil
		}
		return b.Min, b.Max
	default:
		return nil, nil
	}
}
