package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{"minutes", "30 minutes", 30 * time.Minute},
		{"minutes short", "5 min", 5 * time.Minute},
		{"single hour", "1 hour", time.Hour},
		{"hours", "2 hours", 2 * time.Hour},
		{"days", "3 days", 72 * time.Hour},
		{"week", "1 week", 7 * 24 * time.Hour},
		{"case insensitive unit", "2 Hours", 2 * time.Hour},
		{"unknown unit falls back to hours", "4 fortnights", 4 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParsePermanent(t *testing.T) {
	for _, raw := range []string{"", "PERMANENT", "permanent", "  Permanent  "} {
		got, err := Parse(raw)
		require.NoError(t, err)
		assert.Nil(t, got, "raw=%q", raw)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, raw := range []string{"2", "two hours", "-1 hours", "0 hours", "1 2 hours"} {
		_, err := Parse(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}
