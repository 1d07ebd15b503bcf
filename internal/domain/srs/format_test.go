package srs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		days float64
		want string
	}{
		{"zero", 0, "< 1m"},
		{"thirty seconds", 30.0 / 86400, "< 1m"},
		{"one minute", 1.0 / 1440, "1m"},
		{"ten minutes", 10.0 / 1440, "10m"},
		{"fifty nine minutes", 59.0 / 1440, "59m"},
		{"one hour", 1.0 / 24, "1h"},
		{"twelve hours", 0.5, "12h"},
		{"one day", 1, "1d"},
		{"six days", 6, "6d"},
		{"one week", 7, "1w"},
		{"three weeks", 21, "3w"},
		{"one month", 30, "1mo"},
		{"eleven months", 330, "11mo"},
		{"one year", 365, "1y"},
		{"eighteen months", 547.5, "1.5y"},
		{"two years", 730, "2y"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, FormatInterval(tc.days))
		})
	}
}
