package sweep

import (
	"fmt"
	"math"
)

// Record is the immutable result of one (field, grid, thickness, b-factor)
// convergence sweep: the worst-case relative error over the grid, in
// percent, per discretisation-control value. DeltaValues and Errors are
// positionally paired and never mutated after the record is written.
type Record struct {
	Field       string    `json:"field"`
	GridName    string    `json:"grid_name"`
	Thickness   float64   `json:"thickness"`
	BFactor     float64   `json:"b_factor"`
	DeltaValues []float64 `json:"delta_values"`
	Errors      []float64 `json:"errors"`
}

// RecordKey builds the canonical store key for a sweep tuple.
func RecordKey(field, gridName string, thickness, bFactor float64) string {
	return fmt.Sprintf("%s-%s-%d-%d", field, gridName, int(thickness), int(bFactor))
}

// Key returns the record's canonical store key.
func (r Record) Key() string {
	return RecordKey(r.Field, r.GridName, r.Thickness, r.BFactor)
}

// Validate checks the paired-sequence invariant.
func (r Record) Validate() error {
	if r.Field == "" || r.GridName == "" {
		return fmt.Errorf("record %s: field and grid name must be set", r.Key())
	}
	if len(r.DeltaValues) != len(r.Errors) {
		return fmt.Errorf("record %s: %d delta values but %d errors", r.Key(), len(r.DeltaValues), len(r.Errors))
	}
	for i := 1; i < len(r.DeltaValues); i++ {
		if r.DeltaValues[i] < r.DeltaValues[i-1] {
			return fmt.Errorf("record %s: delta values not monotone at index %d", r.Key(), i)
		}
	}
	return nil
}

// MaxRelativeErrorPercent reduces a numerical field array against the
// scalar analytical value to the worst-case relative error in percent:
// max over points of |numerical - analytical| / |analytical| * 100.
// Any non-finite numerical entry poisons the result to NaN so integrator
// instability stays visible downstream instead of being masked by the max.
func MaxRelativeErrorPercent(numerical []float64, analytical float64) float64 {
	if len(numerical) == 0 {
		return math.NaN()
	}
	max := 0.0
	for _, v := range numerical {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.NaN()
		}
		diff := math.Abs((v - analytical) / analytical)
		if diff > max {
			max = diff
		}
	}
	return 100 * max
}

// ReduceMaxAcross reduces several records sharing (field, grid, b-factor)
// to one worst-case-over-thickness curve: the elementwise maximum of the
// error sequences. NaN entries propagate. All records must share the same
// delta values.
func ReduceMaxAcross(records []Record) (Record, error) {
	if len(records) == 0 {
		return Record{}, fmt.Errorf("no records to reduce")
	}

	first := records[0]
	reduced := Record{
		Field:       first.Field,
		GridName:    first.GridName,
		BFactor:     first.BFactor,
		DeltaValues: append([]float64(nil), first.DeltaValues...),
		Errors:      append([]float64(nil), first.Errors...),
	}

	for _, r := range records[1:] {
		if r.Field != first.Field || r.GridName != first.GridName || r.BFactor != first.BFactor {
			return Record{}, fmt.Errorf("cannot reduce %s with %s: tuples differ", first.Key(), r.Key())
		}
		if len(r.Errors) != len(reduced.Errors) {
			return Record{}, fmt.Errorf("cannot reduce %s: curve lengths differ (%d vs %d)", r.Key(), len(r.Errors), len(reduced.Errors))
		}
		for i, d := range r.DeltaValues {
			if d != reduced.DeltaValues[i] {
				return Record{}, fmt.Errorf("cannot reduce %s: delta values differ at index %d", r.Key(), i)
			}
		}
		for i, e := range r.Errors {
			reduced.Errors[i] = maxPropagateNaN(reduced.Errors[i], e)
		}
	}
	return reduced, nil
}

// maxPropagateNaN is max(a, b) except that NaN wins. A hidden divergence
// would invalidate the validation, so failure markers survive reduction.
func maxPropagateNaN(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if b > a {
		return b
	}
	return a
}
