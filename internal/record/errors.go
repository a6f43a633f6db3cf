package record

import "errors"

// Data-integrity defects found while reading records. None of them abort a
// synthesis pass; callers skip the affected particle or step and report.
var (
	// ErrStrideMismatch indicates the record count is not a multiple of the
	// discovered stride, i.e. steps are not stored contiguously.
	ErrStrideMismatch = errors.New("record: record count not divisible by stride")

	// ErrParticleNotFound indicates an index map without an entry for the
	// requested particle id.
	ErrParticleNotFound = errors.New("record: particle id not found in index map")

	// ErrEmptyRecord indicates a record with no particle data.
	ErrEmptyRecord = errors.New("record: record holds no particles")

	// ErrStepOutOfRange indicates a playback step past the stored data.
	ErrStepOutOfRange = errors.New("record: step outside stored range")
)
