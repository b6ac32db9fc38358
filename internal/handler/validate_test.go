package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSeatIDs(t *testing.T) {
	t.Run("valid list trims and preserves order", func(t *testing.T) {
		got, verr := validateSeatIDs([]interface{}{" A1 ", "B2", "C3"})
		require.Nil(t, verr)
		assert.Equal(t, []string{"A1", "B2", "C3"}, got)
	})

	t.Run("missing field", func(t *testing.T) {
		_, verr := validateSeatIDs(nil)
		require.NotNil(t, verr)
		assert.Contains(t, verr.Message, "non-empty JSON array")
	})

	t.Run("not an array", func(t *testing.T) {
		_, verr := validateSeatIDs("A1")
		require.NotNil(t, verr)
	})

	t.Run("empty array", func(t *testing.T) {
		_, verr := validateSeatIDs([]interface{}{})
		require.NotNil(t, verr)
		assert.Contains(t, verr.Message, "at least one seat")
	})

	t.Run("non-string element reports index", func(t *testing.T) {
		_, verr := validateSeatIDs([]interface{}{"A1", float64(7)})
		require.NotNil(t, verr)
		assert.Equal(t, 1, verr.Details["index"])
	})

	t.Run("empty string element reports index", func(t *testing.T) {
		_, verr := validateSeatIDs([]interface{}{"A1", "   "})
		require.NotNil(t, verr)
		assert.Equal(t, 1, verr.Details["index"])
	})

	t.Run("duplicates after trimming", func(t *testing.T) {
		_, verr := validateSeatIDs([]interface{}{"A1", " A1"})
		require.NotNil(t, verr)
		assert.Contains(t, verr.Message, "duplicates")
	})
}

func TestParseHoldDuration(t *testing.T) {
	cases := []struct {
		name    string
		raw     interface{}
		present bool
		want    int
		wantErr bool
	}{
		{"absent defaults", nil, false, 60, false},
		{"in range", float64(120), true, 120, false},
		{"below floor clamps", float64(0), true, 60, false},
		{"negative clamps", float64(-5), true, 60, false},
		{"above ceiling clamps", float64(10000), true, 1800, false},
		{"float truncates", float64(90.9), true, 90, false},
		{"digit string accepted", "120", true, 120, false},
		{"huge digit string clamps", "99999999999999999999", true, 1800, false},
		{"signed string rejected", "+120", true, 0, true},
		{"word string rejected", "abc", true, 0, true},
		{"empty string rejected", "", true, 0, true},
		{"bool rejected", true, true, 0, true},
		{"null rejected", nil, true, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, verr := parseHoldDuration(tc.raw, tc.present)
			if tc.wantErr {
				require.NotNil(t, verr)
				return
			}
			require.Nil(t, verr)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateHoldID(t *testing.T) {
	got, verr := validateHoldID("  abc-123  ")
	require.Nil(t, verr)
	assert.Equal(t, "abc-123", got)

	for _, raw := range []interface{}{nil, "", "   ", 42, true} {
		_, verr := validateHoldID(raw)
		assert.NotNil(t, verr, "raw=%v", raw)
	}
}
