package shared

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// InvalidParamError reports a query or form value that could not be parsed.
type InvalidParamError struct {
	Field string
	Value string
}

func (e InvalidParamError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// OptionalString returns nil for a missing or blank value.
func OptionalString(values url.Values, key string) *string {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	return &raw
}

// OptionalInt parses an optional integer. A blank value is nil; anything unparseable is an error.
func OptionalInt(values url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, InvalidParamError{Field: key, Value: raw}
	}
	return &v, nil
}

// OptionalInt64 parses an optional 64-bit identifier.
func OptionalInt64(values url.Values, key string) (*int64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, InvalidParamError{Field: key, Value: raw}
	}
	return &v, nil
}

// OptionalFloat parses an optional finite decimal number.
func OptionalFloat(values url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, InvalidParamError{Field: key, Value: raw}
	}
	return &v, nil
}

// FormatOptional renders an optional value back into a form field.
func FormatOptional[T int | int64 | float64](v *T) string {
	if v == nil {
		return ""
	}
	switch n := any(*v).(type) {
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}
