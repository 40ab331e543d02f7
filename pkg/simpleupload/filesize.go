package simpleupload

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var fileSizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatFileSize renders bytes with 1024-based units rounded to a whole
// number: 5 is "5 B", 1024 is "1 KB", 2<<20 is "2 MB".
func FormatFileSize(bytes int64) string {
	v := float64(bytes)
	i := 0
	for v/1024 > 0.9 && i < len(fileSizeUnits)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64) + " " + fileSizeUnits[i]
}

// ParseSize reads a human size such as "10MB", "512 KB", "1GiB" or "2048"
// (bytes). Units are 1024-based.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	multiplier := int64(1)
	for i := len(fileSizeUnits) - 1; i > 0; i-- {
		unit := fileSizeUnits[i]
		iec := unit[:1] + "IB"
		switch {
		case strings.HasSuffix(s, iec):
			s = strings.TrimSuffix(s, iec)
		case strings.HasSuffix(s, unit):
			s = strings.TrimSuffix(s, unit)
		default:
			continue
		}
		multiplier = int64(1) << (10 * i)
		break
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "B"))

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("size must not be negative")
	}
	if n > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return n * multiplier, nil
}
