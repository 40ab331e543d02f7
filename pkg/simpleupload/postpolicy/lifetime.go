package postpolicy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatLifetime renders d in the relative form POST policy tooling
// conventionally uses: "+2 minutes" for whole minutes, "+90 seconds" otherwise.
func FormatLifetime(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = -secs
	}
	if secs > 0 && secs%60 == 0 {
		return fmt.Sprintf("+%d minutes", secs/60)
	}
	return fmt.Sprintf("+%d seconds", secs)
}

// ParseLifetime accepts "+N <unit>" (seconds, minutes, hours, days; singular
// or plural), Go duration strings such as "90s" or "5m", and bare integers
// which are read as seconds.
func ParseLifetime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("postpolicy: empty lifetime")
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(abs(n)) * time.Second, nil
	}

	if fields := strings.Fields(strings.TrimPrefix(s, "+")); len(fields) == 2 {
		n, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("postpolicy: invalid lifetime %q: %w", s, err)
		}
		unit, ok := lifetimeUnits[strings.TrimSuffix(strings.ToLower(fields[1]), "s")]
		if !ok {
			return 0, fmt.Errorf("postpolicy: unknown lifetime unit in %q", s)
		}
		return time.Duration(abs(n)) * unit, nil
	}

	d, err := time.ParseDuration(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, fmt.Errorf("postpolicy: invalid lifetime %q: %w", s, err)
	}
	if d < 0 {
		d = -d
	}
	return d, nil
}

var lifetimeUnits = map[string]time.Duration{
	"sec":    time.Second,
	"second": time.Second,
	"min":    time.Minute,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
