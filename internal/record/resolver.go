package record

// Resolver finds the storage slot holding a particle in a record whose
// index map may reorder particles between steps. Inverse maps are built
// once per record on first lookup. A Resolver belongs to one synthesis pass
// and is not safe for concurrent use.
type Resolver struct {
	inverse map[*Record]map[uint32]int
}

func NewResolver() *Resolver {
	return &Resolver{inverse: make(map[*Record]map[uint32]int)}
}

// Slot returns the slot for particle p. With an empty index map the slot is
// p itself. ok is false when the map has no entry for p or the slot lies
// outside the record.
func (r *Resolver) Slot(rec *Record, p int) (slot int, ok bool) {
	if p < 0 {
		return 0, false
	}
	if len(rec.Indices) == 0 {
		return p, p < rec.Width()
	}
	inv, found := r.inverse[rec]
	if !found {
		inv = make(map[uint32]int, len(rec.Indices))
		for i, id := range rec.Indices {
			// first occurrence wins, as a forward scan would
			if _, dup := inv[id]; !dup {
				inv[id] = i
			}
		}
		r.inverse[rec] = inv
	}
	slot, ok = inv[uint32(p)]
	if !ok || slot >= rec.Width() {
		return 0, false
	}
	return slot, true
}

// Reset drops cached inverse maps.
func (r *Resolver) Reset() { clear(r.inverse) }

// ScanSlot is the reference linear lookup Slot must agree with.
func ScanSlot(rec *Record, p int) (int, bool) {
	if len(rec.Indices) == 0 {
		return p, p >= 0 && p < rec.Width()
	}
	for i, id := range rec.Indices {
		if int(id) == p {
			return i, i < rec.Width()
		}
	}
	return 0, false
}
