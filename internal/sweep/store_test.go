package sweep

import (
	"testing"
)

func TestMemStoreRoundTrip(t *testing.T) {
	store := NewMemStore()
	rec := Record{
		Field: "gz", GridName: "global", Thickness: 1e5, BFactor: 10,
		DeltaValues: []float64{0.1, 1, 10},
		Errors:      []float64{5, 1, 0.01},
	}

	ok, err := store.Has(rec.Key())
	if err != nil || ok {
		t.Fatalf("Has on empty store = %v, %v; want false, nil", ok, err)
	}

	if err := store.Put(rec.Key(), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ok, err = store.Has(rec.Key())
	if err != nil || !ok {
		t.Fatalf("Has after Put = %v, %v; want true, nil", ok, err)
	}

	got, err := store.Get(rec.Key())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Key() != rec.Key() || len(got.Errors) != len(rec.Errors) {
		t.Errorf("Get returned %+v, want %+v", got, rec)
	}

	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestMemStoreWriteOnce(t *testing.T) {
	store := NewMemStore()
	rec := Record{Field: "gz", GridName: "pole", Thickness: 100, BFactor: 1,
		DeltaValues: []float64{1, 10}, Errors: []float64{1, 0.1}}

	if err := store.Put(rec.Key(), rec); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := store.Put(rec.Key(), rec); err == nil {
		t.Error("second Put succeeded; records must be write-once")
	}
}

func TestMemStoreGetMissing(t *testing.T) {
	store := NewMemStore()
	if _, err := store.Get("gz-global-100-1"); err == nil {
		t.Error("Get on missing key succeeded; want error")
	}
}
