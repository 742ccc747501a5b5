package sqlite

import (
	"encoding/json"
	"fmt"
	"math"
)

// encodeFloats serialises a float slice to JSON, mapping NaN to null.
// Plain encoding/json rejects NaN, but NaN is a meaningful sentinel in
// error curves (integrator instability) and must round-trip.
func encodeFloats(values []float64) (string, error) {
	out := make([]*float64, len(values))
	for i := range values {
		if math.IsNaN(values[i]) {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeFloats parses a JSON float array, mapping null back to NaN.
func decodeFloats(s string) ([]float64, error) {
	var raw []*float64
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("expected JSON array, got %q", s)
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out, nil
}
