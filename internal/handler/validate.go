package handler

import "strings"

// Hold duration bounds.  Out-of-range requests are clamped, not
// rejected, to stay compatible with existing clients.
const (
	defaultHoldSeconds = 60
	minHoldSeconds     = 60
	maxHoldSeconds     = 1800
)

// ValidationError describes a rejected request field.  Details carries
// structured context such as the offending array index.
type ValidationError struct {
	Message string
	Details map[string]interface{}
}

// validateSeatIDs checks the raw "seat_ids" value from a decoded JSON
// body: it must be a non-empty array of non-empty strings, trimmed of
// surrounding whitespace, with no duplicates.  Returns the normalized
// list in request order.
func validateSeatIDs(raw interface{}) ([]string, *ValidationError) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, &ValidationError{Message: "seat_ids must be provided as a non-empty JSON array"}
	}
	if len(list) == 0 {
		return nil, &ValidationError{Message: "seat_ids must contain at least one seat"}
	}
	normalized := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, &ValidationError{
				Message: "each seat_id must be a string",
				Details: map[string]interface{}{"index": i},
			}
		}
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return nil, &ValidationError{
				Message: "seat_ids must not contain empty strings",
				Details: map[string]interface{}{"index": i},
			}
		}
		if _, dup := seen[trimmed]; dup {
			return nil, &ValidationError{Message: "seat_ids must not contain duplicates"}
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized, nil
}

// parseHoldDuration interprets the raw "hold_duration_seconds" value.
// Accepted: absent (defaults to 60), JSON numbers (truncated toward
// zero), digit-only strings.  Rejected: booleans and any other string.
// The result is clamped to [60, 1800].
func parseHoldDuration(raw interface{}, present bool) (int, *ValidationError) {
	invalid := &ValidationError{Message: "hold_duration_seconds must be an integer between 60 and 1800 seconds"}
	if !present {
		return defaultHoldSeconds, nil
	}
	var seconds int
	switch v := raw.(type) {
	case bool:
		// Booleans unmarshal fine but are never a duration.
		return 0, invalid
	case float64:
		seconds = int(v)
	case string:
		n, ok := digitsToInt(v)
		if !ok {
			return 0, invalid
		}
		seconds = n
	default:
		return 0, invalid
	}
	if seconds < minHoldSeconds {
		seconds = minHoldSeconds
	}
	if seconds > maxHoldSeconds {
		seconds = maxHoldSeconds
	}
	return seconds, nil
}

// digitsToInt parses a non-empty, digit-only string.  Anything else
// (signs, spaces, decimals) is rejected.
func digitsToInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > maxHoldSeconds*1000 {
			// Far beyond the clamp ceiling already; stop before overflow.
			return maxHoldSeconds * 1000, true
		}
	}
	return n, true
}

// validateHoldID checks the raw "hold_id" value: a non-empty string
// after trimming.
func validateHoldID(raw interface{}) (string, *ValidationError) {
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", &ValidationError{Message: "hold_id must be a non-empty string"}
	}
	return strings.TrimSpace(s), nil
}
