package postpolicy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLifetime(t *testing.T) {
	assert.Equal(t, "+2 minutes", FormatLifetime(2*time.Minute))
	assert.Equal(t, "+90 seconds", FormatLifetime(90*time.Second))
	assert.Equal(t, "+60 minutes", FormatLifetime(time.Hour))
	assert.Equal(t, "+5 minutes", FormatLifetime(-5*time.Minute))
}

func TestParseLifetime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"+2 minutes", 2 * time.Minute},
		{"+1 minute", time.Minute},
		{"+90 seconds", 90 * time.Second},
		{"+3 hours", 3 * time.Hour},
		{"+1 day", 24 * time.Hour},
		{"10 mins", 10 * time.Minute},
		{"-5 minutes", 5 * time.Minute},
		{"120", 2 * time.Minute},
		{"90s", 90 * time.Second},
		{"5m", 5 * time.Minute},
		{" +1h30m ", 90 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLifetime(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLifetimeErrors(t *testing.T) {
	for _, in := range []string{"", "+2 fortnights", "+x minutes", "soon"} {
		_, err := ParseLifetime(in)
		assert.Error(t, err, in)
	}
}

func TestLifetimeRoundTrip(t *testing.T) {
	for _, d := range []time.Duration{time.Minute, 45 * time.Second, 2 * time.Hour} {
		got, err := ParseLifetime(FormatLifetime(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}
