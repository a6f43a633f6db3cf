// Package session owns one loaded dataset and its playback state, and
// serialises dataset reloads against synthesis passes.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/san-kum/dyntrace/internal/config"
	"github.com/san-kum/dyntrace/internal/datasource"
	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/geometry"
	"github.com/san-kum/dyntrace/internal/record"
	"github.com/san-kum/dyntrace/internal/scene"
	"github.com/san-kum/dyntrace/internal/storage"
	"github.com/san-kum/dyntrace/internal/tracer"
)

var ErrNoDataset = errors.New("session: no dataset loaded")

type Session struct {
	mu      sync.RWMutex
	store   *storage.Store
	cfg     *config.Config
	alloc   *scene.Allocator
	id      string
	meta    storage.Metadata
	objects []*scene.Object
	records *record.Store
	bounds  geom.Bounds
	pb      tracer.Playback
	// nowSet pins Now across reloads once the caller moved it
	nowSet bool
}

func New(store *storage.Store, cfg *config.Config) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Session{
		store:   store,
		cfg:     cfg,
		alloc:   scene.NewAllocator(),
		records: record.NewStore(),
		bounds:  geom.EmptyBounds(),
	}
}

// Load replaces the session contents with a stored dataset.
func (s *Session) Load(id string) error {
	ds, err := s.store.LoadDataset(id, s.alloc)
	if err != nil {
		return err
	}
	return s.Attach(id, ds)
}

// Attach replaces the session contents with an in-memory dataset. Objects
// are configured from the session config.
func (s *Session) Attach(id string, ds *storage.Dataset) error {
	for _, obj := range ds.Objects {
		if err := s.cfg.Apply(obj); err != nil {
			return err
		}
	}
	bounds := geom.EmptyBounds()
	for _, rec := range ds.Records {
		for _, p := range rec.Positions {
			bounds.Extend(p)
		}
	}
	_, datasteps, _ := record.Stride(ds.Records)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.id, s.meta, s.objects, s.bounds = id, ds.Meta, ds.Objects, bounds
	s.records.Reset()
	s.records.Append(ds.Records...)

	now := s.pb.Now
	s.pb = s.cfg.PlaybackFor(datasteps, ds.Meta.Times)
	if ds.Meta.Gap > 0 && s.cfg.Playback.Gap <= 1 {
		s.pb.Gap = ds.Meta.Gap
	}
	if s.nowSet {
		s.pb.Now = min(now, max(datasteps-1, 0))
	}
	tracer.Logger().Info("dataset loaded", "id", id, "objects", len(ds.Objects),
		"records", len(ds.Records), "datasteps", datasteps)
	return nil
}

// Reload reads the current dataset again, keeping the playback position.
func (s *Session) Reload() error {
	s.mu.RLock()
	id := s.id
	s.mu.RUnlock()
	if id == "" {
		return ErrNoDataset
	}
	return s.Load(id)
}

// Update runs one synthesis pass into sink. Loads wait for it to finish.
func (s *Session) Update(sink *geometry.Sink) *tracer.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep := tracer.New().Update(s.records, s.pb, s.cfg.ViewFor(s.bounds), sink)
	tracer.LogReport(rep)
	return rep
}

// Watch reloads the dataset whenever its files change until ctx is done.
// onReload, when non-nil, is called after every reload attempt.
func (s *Session) Watch(ctx context.Context, onReload func(error)) error {
	s.mu.RLock()
	id := s.id
	s.mu.RUnlock()
	if id == "" {
		return ErrNoDataset
	}

	w, err := datasource.NewWatcher(s.store.Dir(id), storage.RecordsFile, storage.MetadataFile)
	if err != nil {
		return fmt.Errorf("session: watch %s: %w", id, err)
	}
	defer w.Close()

	log := tracer.Logger()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.Changes():
			err := s.Reload()
			if err != nil {
				log.Warn("reload failed", "id", id, "err", err)
			}
			if onReload != nil {
				onReload(err)
			}
		case err := <-w.Errors():
			log.Warn("watch error", "id", id, "err", err)
		}
	}
}

// Playback returns the current playback state.
func (s *Session) Playback() tracer.Playback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pb
}

// Datasteps is the number of stored timesteps.
func (s *Session) Datasteps() int {
	_, datasteps, _ := s.records.Stride()
	return datasteps
}

// Seek moves playback to step, clamped to the stored range.
func (s *Session) Seek(step int) int {
	n := s.Datasteps()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pb.Now = min(max(step, 0), max(n-1, 0))
	s.nowSet = true
	return s.pb.Now
}

// Advance moves playback by delta steps, wrapping around the stored range.
func (s *Session) Advance(delta int) int {
	n := s.Datasteps()
	if n == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pb.Now = ((s.pb.Now+delta)%n + n) % n
	s.nowSet = true
	return s.pb.Now
}

// SetProperty sets a property on every object, or on the named one.
func (s *Session) SetProperty(object, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obj := range s.objects {
		if object == "" || obj.Name == object {
			obj.Props.Set(key, value)
		}
	}
}

// Toggle flips a boolean property on every object and returns the value of
// the first object after the flip.
func (s *Session) Toggle(key string, def bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.objects) == 0 {
		return def
	}
	v := !s.objects[0].Props.Bool(key, def)
	for _, obj := range s.objects {
		obj.Props.Set(key, v)
	}
	return v
}

func (s *Session) Objects() []*scene.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*scene.Object(nil), s.objects...)
}

func (s *Session) Metadata() storage.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) Bounds() geom.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// Records returns a snapshot of the loaded records.
func (s *Session) Records() []*record.Record { return s.records.Records() }
