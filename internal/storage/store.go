// Package storage persists tracer datasets: a metadata.json describing the
// objects and timeline, and a records.csv with one row per particle slot.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/record"
	"github.com/san-kum/dyntrace/internal/scene"
)

const (
	MetadataFile = "metadata.json"
	RecordsFile  = "records.csv"
)

var (
	ErrNotFound      = errors.New("storage: dataset not found")
	ErrBadRecord     = errors.New("storage: malformed record row")
	ErrUnknownObject = errors.New("storage: record references unknown object")
)

// fixed leading columns of records.csv; value series follow
var header = []string{"step", "object", "slot", "particle", "x", "y", "z"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type ObjectMetadata struct {
	ID    uint32         `json:"id"`
	Name  string         `json:"name"`
	Props map[string]any `json:"props,omitempty"`
}

type Metadata struct {
	ID         string             `json:"id"`
	Flow       string             `json:"flow"`
	Integrator string             `json:"integrator,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Gap        int                `json:"gap"`
	Particles  int                `json:"particles"`
	Steps      int                `json:"steps"`
	Params     map[string]float64 `json:"params,omitempty"`
	Series     []string           `json:"series,omitempty"`
	Objects    []ObjectMetadata   `json:"objects"`
	Times      []float64          `json:"times"`
}

// Dataset is a loaded or to-be-saved set of records with their objects.
type Dataset struct {
	Meta    Metadata
	Objects []*scene.Object
	Records []*record.Record
}

// Dir is the directory holding a dataset.
func (s *Store) Dir(id string) string { return filepath.Join(s.baseDir, id) }

// Save writes ds under its Meta.ID, choosing an id from the flow name and
// the current time when it is empty. Existing files are replaced.
func (s *Store) Save(ds *Dataset) (string, error) {
	meta := ds.Meta
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Flow, time.Now().UnixNano())
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Objects = meta.Objects[:0:0]
	for _, obj := range ds.Objects {
		meta.Objects = append(meta.Objects, ObjectMetadata{ID: obj.ID, Name: obj.Name, Props: obj.Props.Map()})
	}
	meta.Series = seriesNames(ds.Records)
	if stride, datasteps, err := record.Stride(ds.Records); err == nil && stride > 0 {
		meta.Steps = datasteps
		meta.Particles = ds.Records[0].Width()
	}

	runDir := s.Dir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, MetadataFile), meta); err != nil {
		return "", err
	}
	if err := writeRecords(filepath.Join(runDir, RecordsFile), ds.Records, meta.Series); err != nil {
		return "", err
	}
	ds.Meta = meta
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRecords(path string, recs []*record.Record, series []string) error {
	// write to a sibling and rename so watchers never see a partial file
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(append(append([]string{}, header...), series...)); err != nil {
		f.Close()
		return err
	}
	for _, rec := range recs {
		if rec.Owner == nil {
			f.Close()
			return fmt.Errorf("%w: step %d has no owner", ErrBadRecord, rec.Step)
		}
		for slot, p := range rec.Positions {
			particle := slot
			if len(rec.Indices) > 0 {
				particle = int(rec.Indices[slot])
			}
			row := []string{
				strconv.Itoa(rec.Step),
				strconv.FormatUint(uint64(rec.Owner.ID), 10),
				strconv.Itoa(slot),
				strconv.Itoa(particle),
				formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z),
			}
			for _, name := range series {
				vals := rec.Values[name]
				if slot < len(vals) {
					row = append(row, formatFloat(vals[slot]))
				} else {
					row = append(row, "")
				}
			}
			if err := w.Write(row); err != nil {
				f.Close()
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func formatFloat(v float32) string { return strconv.FormatFloat(float64(v), 'g', -1, 32) }

func seriesNames(recs []*record.Record) []string {
	set := make(map[string]struct{})
	for _, rec := range recs {
		for name := range rec.Values {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the metadata of every dataset, oldest first.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Metadata{}, nil
		}
		return nil, err
	}

	runs := make([]Metadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	return runs, nil
}

// Load reads a dataset's metadata.
func (s *Store) Load(id string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(id), MetadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s metadata: %w", id, err)
	}

	return &meta, nil
}

// LoadDataset reads a dataset and creates its objects with ids from alloc.
// Stored ids are kept so records and configuration keep referring to them.
func (s *Store) LoadDataset(id string, alloc *scene.Allocator) (*Dataset, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Meta: *meta}
	byID := make(map[uint32]*scene.Object, len(meta.Objects))
	for _, om := range meta.Objects {
		obj := scene.NewObject(alloc, om.ID, om.Name, om.Props)
		byID[om.ID] = obj
		ds.Objects = append(ds.Objects, obj)
	}

	ds.Records, err = loadRecords(filepath.Join(s.Dir(id), RecordsFile), byID)
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", id, err)
	}
	return ds, nil
}

func loadRecords(path string, objects map[uint32]*scene.Object) ([]*record.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return []*record.Record{}, nil
	}
	if len(rows[0]) < len(header) {
		return nil, fmt.Errorf("%w: header %v", ErrBadRecord, rows[0])
	}
	series := rows[0][len(header):]

	var (
		recs     []*record.Record
		cur      *record.Record
		shuffled bool
	)
	flush := func() {
		if cur == nil {
			return
		}
		if !shuffled {
			cur.Indices = nil
		}
		for name, vals := range cur.Values {
			if len(vals) != cur.Width() {
				delete(cur.Values, name)
			}
		}
		recs = append(recs, cur)
	}

	for i, row := range rows[1:] {
		if len(row) < len(header) {
			return nil, fmt.Errorf("%w: line %d", ErrBadRecord, i+2)
		}
		ints, err := parseInts(row[:4])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRecord, i+2, err)
		}
		step, objID, slot, particle := ints[0], uint32(ints[1]), ints[2], ints[3]
		var xyz [3]float32
		for k := range xyz {
			v, err := strconv.ParseFloat(row[4+k], 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrBadRecord, i+2, err)
			}
			xyz[k] = float32(v)
		}

		if cur == nil || slot == 0 || cur.Step != step || cur.Owner.ID != objID {
			flush()
			obj, ok := objects[objID]
			if !ok {
				return nil, fmt.Errorf("%w: id %d at line %d", ErrUnknownObject, objID, i+2)
			}
			cur = &record.Record{Step: step, Owner: obj, Values: map[string][]float32{}}
			shuffled = false
		}
		if slot != cur.Width() {
			return nil, fmt.Errorf("%w: line %d: slot %d out of order", ErrBadRecord, i+2, slot)
		}
		cur.Positions = append(cur.Positions, geom.V(xyz[0], xyz[1], xyz[2]))
		cur.Indices = append(cur.Indices, uint32(particle))
		shuffled = shuffled || particle != slot

		for k, name := range series {
			if 7+k >= len(row) || row[7+k] == "" {
				continue
			}
			v, err := strconv.ParseFloat(row[7+k], 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s: %v", ErrBadRecord, i+2, name, err)
			}
			vals := cur.Values[name]
			if len(vals) != slot {
				// a gap earlier in this record; the series is dropped on flush
				continue
			}
			cur.Values[name] = append(vals, float32(v))
		}
	}
	flush()
	return recs, nil
}

func parseInts(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
