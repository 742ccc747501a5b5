package units

import (
	"math"
	"strings"
	"testing"
)

func TestScale(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    float64
		expected float64
	}{
		{"potential passes through", Potential, 123.456, 123.456},
		{"gz to mGal", Gz, 9.81, 981000.0},
		{"gx to mGal", Gx, 1e-5, 1.0},
		{"gzz to Eotvos", Gzz, 1e-9, 1.0},
		{"gxx to Eotvos", Gxx, 3.1e-9, 3.1},
		{"unknown field passes through", "unknown", 42.0, 42.0},
		{"zero value", Gz, 0.0, 0.0},
		{"negative acceleration", Gz, -1e-5, -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Scale(tt.field, tt.value)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("Scale(%s, %g) = %g, want %g", tt.field, tt.value, result, tt.expected)
			}
		})
	}
}

func TestIsValidField(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		expected bool
	}{
		{"valid potential", Potential, true},
		{"valid gz", Gz, true},
		{"valid gzz", Gzz, true},
		{"valid gxy", Gxy, true},
		{"invalid field", "gravity", false},
		{"empty string", "", false},
		{"case sensitive", "GZ", false},
		{"case sensitive", "Potential", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidField(tt.field)
			if result != tt.expected {
				t.Errorf("IsValidField(%s) = %v, want %v", tt.field, result, tt.expected)
			}
		})
	}
}

func TestValidFieldsMatchesString(t *testing.T) {
	// The error-message string must list every valid field exactly once.
	if len(ValidFields) != 10 {
		t.Fatalf("expected 10 valid fields, got %d", len(ValidFields))
	}
	parts := strings.Split(GetValidFieldsString(), ", ")
	for _, f := range ValidFields {
		found := false
		for _, part := range parts {
			if part == f {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("field %q missing from GetValidFieldsString()", f)
		}
	}
}
