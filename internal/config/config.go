package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dyntrace/internal/colour"
	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/scene"
	"github.com/san-kum/dyntrace/internal/tracer"
)

const (
	DefaultGap       = 1
	DefaultModelSize = 10.0
	DefaultDataDir   = "datasets"
)

type Config struct {
	DataDir    string                   `yaml:"data_dir"`
	Playback   PlaybackConfig           `yaml:"playback"`
	View       ViewConfig               `yaml:"view"`
	ColourMaps map[string]string        `yaml:"colourmaps,omitempty"`
	Defaults   map[string]any           `yaml:"defaults,omitempty"`
	Objects    map[string]*ObjectConfig `yaml:"objects,omitempty"`
}

type PlaybackConfig struct {
	// Now is the playback step; negative means the last stored step.
	Now int `yaml:"now"`
	Gap int `yaml:"gap"`
}

type ViewConfig struct {
	Scale [3]float32 `yaml:"scale,flow"`
	// ModelSize of 0 means the diagonal of the loaded data.
	ModelSize float32 `yaml:"model_size"`
}

type FilterConfig struct {
	Value string  `yaml:"value"`
	Min   float32 `yaml:"min"`
	Max   float32 `yaml:"max"`
}

// ObjectConfig configures one drawing object by name. Keys other than the
// named fields are tracer properties.
type ObjectConfig struct {
	Preset    string         `yaml:"preset,omitempty"`
	ColourMap string         `yaml:"colourmap,omitempty"`
	Particles []int          `yaml:"particles,omitempty,flow"`
	Filter    *FilterConfig  `yaml:"filter,omitempty"`
	Props     map[string]any `yaml:",inline"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:  DefaultDataDir,
		Playback: PlaybackConfig{Now: -1, Gap: DefaultGap},
		View:     ViewConfig{Scale: [3]float32{1, 1, 1}},
	}
}

// Load reads a YAML config, or an INI config when the file ends in .ini or
// .gcfg. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".gcfg":
		return loadINI(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks references between sections.
func (c *Config) Validate() error {
	if c.Playback.Gap < 1 {
		return fmt.Errorf("config: gap must be at least 1, got %d", c.Playback.Gap)
	}
	for name, oc := range c.Objects {
		if oc == nil {
			continue
		}
		if oc.Preset != "" && GetPreset(oc.Preset) == nil {
			return fmt.Errorf("config: object %s: unknown preset %q", name, oc.Preset)
		}
		if oc.ColourMap != "" {
			if _, err := c.colourMap(oc.ColourMap); err != nil {
				return fmt.Errorf("config: object %s: %w", name, err)
			}
		}
	}
	for name, spec := range c.ColourMaps {
		if _, err := colour.Parse(name, spec); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// PlaybackFor resolves the playback section against the stored step count.
func (c *Config) PlaybackFor(datasteps int, times []float64) tracer.Playback {
	now := c.Playback.Now
	if now < 0 || now >= datasteps {
		now = datasteps - 1
	}
	return tracer.Playback{Now: max(now, 0), Gap: max(c.Playback.Gap, 1), Times: times}
}

// ViewFor resolves the view section, falling back to the data bounds for
// the model size.
func (c *Config) ViewFor(bounds geom.Bounds) tracer.View {
	s := c.View.Scale
	v := tracer.View{Scale: geom.V(s[0], s[1], s[2]), ModelSize: c.View.ModelSize}
	if v.Scale == (geom.Vec3{}) {
		v.Scale = geom.V(1, 1, 1)
	}
	if v.ModelSize <= 0 {
		v.ModelSize = bounds.Size()
	}
	if v.ModelSize <= 0 {
		v.ModelSize = DefaultModelSize
	}
	return v
}

// Apply layers defaults, the object's preset and its own properties onto
// obj, then attaches its colour map and filters.
func (c *Config) Apply(obj *scene.Object) error {
	for _, k := range sortedKeys(c.Defaults) {
		obj.Props.Set(k, c.Defaults[k])
	}
	oc := c.Objects[obj.Name]
	if oc == nil {
		return nil
	}
	if oc.Preset != "" {
		p := GetPreset(oc.Preset)
		if p == nil {
			return fmt.Errorf("config: object %s: unknown preset %q", obj.Name, oc.Preset)
		}
		for _, k := range sortedKeys(p) {
			obj.Props.Set(k, p[k])
		}
	}
	for _, k := range sortedKeys(oc.Props) {
		obj.Props.Set(k, oc.Props[k])
	}
	if oc.ColourMap != "" {
		m, err := c.colourMap(oc.ColourMap)
		if err != nil {
			return fmt.Errorf("config: object %s: %w", obj.Name, err)
		}
		obj.ColourMap = m
		obj.Props.Set("colourmap", oc.ColourMap)
	}
	if len(oc.Particles) > 0 {
		obj.Filters = append(obj.Filters, scene.ParticleFilter(oc.Particles...))
	}
	if f := oc.Filter; f != nil && f.Value != "" {
		obj.Filters = append(obj.Filters, scene.RangeFilter(f.Value, f.Min, f.Max))
	}
	return nil
}

// Object returns the named object section, creating it when absent.
func (c *Config) Object(name string) *ObjectConfig {
	if c.Objects == nil {
		c.Objects = make(map[string]*ObjectConfig)
	}
	oc := c.Objects[name]
	if oc == nil {
		oc = &ObjectConfig{Props: map[string]any{}}
		c.Objects[name] = oc
	}
	if oc.Props == nil {
		oc.Props = map[string]any{}
	}
	return oc
}

func (c *Config) colourMap(name string) (*colour.Map, error) {
	if spec, ok := c.ColourMaps[name]; ok {
		return colour.Parse(name, spec)
	}
	if m, ok := colour.Named(name); ok {
		return m, nil
	}
	return nil, fmt.Errorf("unknown colour map %q", name)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
