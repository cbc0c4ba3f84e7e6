// Package formatting converts byte sizes between counts and the
// human-readable strings used in configuration and error messages.
package formatting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

const kibi = 1024

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n using base-1024 units, e.g. 52428800 -> "50 MB".
// Trailing zeros after the decimal point are dropped.
func FormatBytes(n int64, precision int) string {
	if n < kibi {
		return strconv.FormatInt(n, 10) + " B"
	}
	if precision < 0 {
		precision = 0
	}

	size, i := float64(n), 0
	for size >= kibi && i < len(units)-1 {
		size /= kibi
		i++
	}

	s := strconv.FormatFloat(size, 'f', precision, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s + " " + units[i]
}

// ParseBytes parses sizes such as "50MB", "1.5 gb", "512KiB", or "1024".
// Units are base-1024 and case-insensitive; a bare number is bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	exp, err := unitExponent(unit)
	if err != nil {
		return 0, err
	}

	bytes := value * math.Pow(kibi, float64(exp))
	if bytes > math.MaxInt64 {
		return 0, fmt.Errorf("byte size overflows: %q", s)
	}
	return int64(bytes), nil
}

func unitExponent(unit string) (int, error) {
	u := strings.ToUpper(unit)
	if u == "" || u == "B" {
		return 0, nil
	}
	u = strings.TrimSuffix(strings.Replace(u, "IB", "B", 1), "B")
	for i, candidate := range units[1:] {
		if u == candidate[:1] {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unknown byte size unit: %q", unit)
}
