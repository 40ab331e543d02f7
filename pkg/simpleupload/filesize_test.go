package simpleupload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		0:           "0 B",
		5:           "5 B",
		900:         "900 B",
		1000:        "1 KB",
		1024:        "1 KB",
		1536:        "2 KB",
		2048:        "2 KB",
		2 << 20:     "2 MB",
		1 << 30:     "1 GB",
		5 * 1 << 40: "5 TB",
		3 * 1 << 50: "3 PB",
		4096 << 50:  "4096 PB",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatFileSize(in), "%d", in)
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"2048":   2048,
		"100B":   100,
		"512KB":  512 << 10,
		"512 kb": 512 << 10,
		"10MB":   10 << 20,
		"1GiB":   1 << 30,
		"2 GB":   2 << 30,
		"1TB":    1 << 40,
	}
	for in, want := range tests {
		got, err := ParseSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "MB", "ten", "-1KB", "1.5MB", "99999999PB", "9223372036854775807KB"} {
		_, err := ParseSize(in)
		assert.Error(t, err, in)
	}
}
