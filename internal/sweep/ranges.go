package sweep

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ParseCSVFloat64s parses a comma-separated list of float64 values.
// Returns nil, nil for empty input strings.
func ParseCSVFloat64s(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// GenerateLogRange generates n logarithmically spaced values from min to
// max inclusive. This is the natural spacing for discretisation-control
// sweeps, which span several decades (e.g. 1e-3 to 1e1).
func GenerateLogRange(min, max float64, n int) ([]float64, error) {
	if min <= 0 || max <= 0 {
		return nil, fmt.Errorf("log range bounds must be positive, got [%g, %g]", min, max)
	}
	if min >= max {
		return nil, fmt.Errorf("log range min (%g) must be below max (%g)", min, max)
	}
	if n < 2 {
		return nil, fmt.Errorf("log range needs at least 2 samples, got %d", n)
	}
	return floats.LogSpan(make([]float64, n), min, max), nil
}

// ParseLogRangeSpec parses a "min:max:count" string into a log-spaced
// slice of control values. Returns an error if the format is invalid or
// values cannot be parsed.
func ParseLogRangeSpec(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid range format %q: expected min:max:count", s)
	}

	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid min value %q: %w", parts[0], err)
	}

	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid max value %q: %w", parts[1], err)
	}

	count, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return nil, fmt.Errorf("invalid count value %q: %w", parts[2], err)
	}

	return GenerateLogRange(min, max, count)
}

// ParseDeltaList parses either a comma-separated list of control values or
// a "min:max:count" log-range specification.
func ParseDeltaList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		return ParseLogRangeSpec(s)
	}
	return ParseCSVFloat64s(s)
}
