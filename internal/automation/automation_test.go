package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dyntrace/internal/flow"
	"github.com/san-kum/dyntrace/internal/scene"
	"github.com/san-kum/dyntrace/internal/session"
	"github.com/san-kum/dyntrace/internal/storage"
)

func newSession(t *testing.T, steps int) *session.Session {
	t.Helper()
	opts := flow.DefaultOptions()
	opts.Field = "uniform"
	opts.Particles = 3
	opts.Steps = steps
	opts.Props = map[string]any{"flat": true}
	res, err := flow.Generate(context.Background(), flow.NewRegistry(), scene.NewAllocator(), opts)
	if err != nil {
		t.Fatal(err)
	}
	s := session.New(storage.New(t.TempDir()), nil)
	ds := &storage.Dataset{Meta: storage.Metadata{Flow: opts.Field, Times: res.Times}, Objects: res.Objects, Records: res.Records}
	if err := s.Attach("uniform", ds); err != nil {
		t.Fatal(err)
	}
	return s
}

const script = `
name: tour
frames:
  - step: 1
    set: {steps: 2}
    svg: "f{frame}_s{step}.svg"
  - advance: 2
    repeat: 3
    rotate_y: 0.2
    json: "s{step}.json"
`

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tour.yaml")
	if err := os.WriteFile(path, []byte(script), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScript(path)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "tour" || len(sc.Frames) != 2 {
		t.Fatalf("script = %+v", sc)
	}
	if sc.Frames[0].Step == nil || *sc.Frames[0].Step != 1 {
		t.Error("step not parsed")
	}
	if sc.Frames[1].Step != nil || sc.Frames[1].Repeat != 3 {
		t.Errorf("frame 2 = %+v", sc.Frames[1])
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	os.WriteFile(empty, []byte("name: x\n"), 0644)
	if _, err := LoadScript(empty); !errors.Is(err, ErrBadScript) {
		t.Errorf("expected ErrBadScript, got %v", err)
	}
}

func TestRunScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tour.yaml")
	os.WriteFile(path, []byte(script), 0644)
	sc, err := LoadScript(path)
	if err != nil {
		t.Fatal(err)
	}

	sess := newSession(t, 10)
	out := t.TempDir()
	res, err := RunScript(context.Background(), sess, sc, out)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 4 {
		t.Fatalf("frames = %d, want 4", len(res))
	}

	wantSteps := []int{1, 3, 5, 7}
	for i, r := range res {
		if r.Step != wantSteps[i] {
			t.Errorf("frame %d step = %d, want %d", i, r.Step, wantSteps[i])
		}
		// steps=2 gives one segment per particle once past step 0
		if r.Segments != 3 {
			t.Errorf("frame %d segments = %d, want 3", i, r.Segments)
		}
	}

	for _, f := range []string{"f0000_s1.svg", "s3.json", "s5.json", "s7.json"} {
		if _, err := os.Stat(filepath.Join(out, f)); err != nil {
			t.Errorf("missing output %s", f)
		}
	}
}

func TestRunSweep(t *testing.T) {
	sess := newSession(t, 10)
	res, err := RunSweep(context.Background(), sess, &PropertySweep{
		Property: "steps", Min: 1, Max: 10, NumSteps: 10, Integer: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 10 {
		t.Fatalf("results = %d", len(res))
	}
	for i, r := range res {
		// steps = i+1 stored steps, i segments per particle
		if r.Segments != 3*i {
			t.Errorf("steps=%v segments = %d, want %d", r.Value, r.Segments, 3*i)
		}
	}

	if _, err := RunSweep(context.Background(), sess, &PropertySweep{}); !errors.Is(err, ErrBadScript) {
		t.Errorf("expected ErrBadScript, got %v", err)
	}
}

func TestRunSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunSweep(ctx, newSession(t, 4), &PropertySweep{Property: "limit", Min: 0, Max: 1, NumSteps: 3})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
