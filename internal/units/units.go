// Package units provides shared physical constants, gravity field names and
// unit conversion for forward-modelled gravitational fields.
package units

// Physical constants in SI units.
const (
	// G is the gravitational constant in m^3 kg^-1 s^-2.
	G = 6.673e-11

	// MeanEarthRadius is the mean Earth radius in metres, used as the
	// reference sphere for shell boundary and observation heights.
	MeanEarthRadius = 6378137.0

	// SI2MGal converts accelerations from m/s^2 to milligal.
	SI2MGal = 1e5

	// SI2Eotvos converts gradient tensor components from 1/s^2 to Eötvös.
	SI2Eotvos = 1e9
)

// Gravity field component names
const (
	Potential = "potential"
	Gx        = "gx"
	Gy        = "gy"
	Gz        = "gz"
	Gxx       = "gxx"
	Gxy       = "gxy"
	Gxz       = "gxz"
	Gyy       = "gyy"
	Gyz       = "gyz"
	Gzz       = "gzz"
)

// ValidFields contains all valid field names
var ValidFields = []string{Potential, Gx, Gy, Gz, Gxx, Gxy, Gxz, Gyy, Gyz, Gzz}

// IsValidField checks if the given field name is in the list of valid fields
func IsValidField(field string) bool {
	for _, validField := range ValidFields {
		if field == validField {
			return true
		}
	}
	return false
}

// GetValidFieldsString returns a comma-separated string of valid field names for error messages
func GetValidFieldsString() string {
	return "potential, gx, gy, gz, gxx, gxy, gxz, gyy, gyz, gzz"
}

// Scale converts a field value from SI units to its reporting unit:
// accelerations to mGal, tensor components to Eötvös. The potential is
// reported in SI units and passes through unchanged.
func Scale(field string, value float64) float64 {
	switch field {
	case Gx, Gy, Gz:
		return value * SI2MGal
	case Gxx, Gxy, Gxz, Gyy, Gyz, Gzz:
		return value * SI2Eotvos
	default:
		return value
	}
}
