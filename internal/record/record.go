// Package record stores tracer snapshots: one record per object per
// timestep, kept in a flat array interleaved across objects.
package record

import (
	"fmt"
	"sync"

	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/scene"
)

// Well-known value series names.
const (
	ColourValues  = "colour"
	OpacityValues = "opacity"
)

// Record is one object's particle snapshot at one timestep.
type Record struct {
	Step      int
	Owner     *scene.Object
	Positions []geom.Vec3
	// Indices maps storage slot to particle id. Empty means slot == id.
	Indices []uint32
	Values  map[string][]float32
}

// Width is the number of particle slots in the record.
func (r *Record) Width() int { return len(r.Positions) }

// Series returns a named value array, nil when absent.
func (r *Record) Series(name string) []float32 {
	if r.Values == nil {
		return nil
	}
	return r.Values[name]
}

// HasColourData reports whether the record carries a colour value series.
func (r *Record) HasColourData() bool { return len(r.Series(ColourValues)) > 0 }

// Store is an append-only, time ordered collection of records. All records
// of one step must be appended before any record of the next step.
type Store struct {
	mu      sync.RWMutex
	records []*Record
}

func NewStore() *Store { return &Store{} }

// Append adds records. They must not be modified afterwards.
func (s *Store) Append(recs ...*Record) {
	s.mu.Lock()
	s.records = append(s.records, recs...)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// At returns record i, nil when out of range.
func (s *Store) At(i int) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.records) {
		return nil
	}
	return s.records[i]
}

// Records returns a snapshot of the record slice.
func (s *Store) Records() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// Reset drops every record, as on dataset unload.
func (s *Store) Reset() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}

// Stride counts the leading records that share the first record's step:
// the number of objects interleaved per timestep. It also returns the
// number of stored timesteps. A record count that is not a multiple of the
// stride is returned as ErrStrideMismatch along with the floored step count.
func (s *Store) Stride() (stride, datasteps int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stride(s.records)
}

// Stride is Store.Stride over a plain slice.
func Stride(recs []*Record) (stride, datasteps int, err error) {
	if len(recs) == 0 {
		return 0, 0, nil
	}
	first := recs[0].Step
	for _, r := range recs {
		if r.Step != first {
			break
		}
		stride++
	}
	datasteps = len(recs) / stride
	if rem := len(recs) % stride; rem != 0 {
		err = fmt.Errorf("%w: %d records, stride %d, remainder %d", ErrStrideMismatch, len(recs), stride, rem)
	}
	return stride, datasteps, err
}
