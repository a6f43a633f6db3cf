package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/gcfg.v1"
)

// ExampleINI documents the INI form of a config file.
const ExampleINI = `[Playback]
# Stored step to draw; -1 for the last one.
Now = -1
Gap = 1

[View]
# Per-axis display scale, three numbers.
Scale = 1 1 1
# Diagonal of the model; 0 uses the data bounds.
ModelSize = 0

[ColourMap "heat"]
# "#" starts a comment, so colours are quoted.
Colours = "#000000 #ff0000 #ffff00"

[Object "swarm0"]
Preset = comet
ColourMap = heat
Steps = 12
# Particle = 0
# Particle = 3
`

type iniConfig struct {
	Playback struct {
		Now string
		Gap string
	}
	View struct {
		Scale     string
		ModelSize string
	}
	ColourMap map[string]*iniColourMap
	Object    map[string]*iniObject
}

type iniColourMap struct {
	Colours string
}

// iniObject keeps every value as a string so unset keys stay distinguishable
// from zero values.
type iniObject struct {
	Preset       string
	ColourMap    string
	Particle     []string
	FilterValue  string
	FilterMin    string
	FilterMax    string
	Steps        string
	Taper        string
	Fade         string
	Glyphs       string
	Scaling      string
	ScaleTracers string
	Limit        string
	Arrowhead    string
	Flat         string
	Connect      string
	Colour       string
	Opacity      string
	Visible      string
}

func loadINI(path string) (*Config, error) {
	var ic iniConfig
	if err := gcfg.ReadFileInto(&ic, path); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := ic.apply(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (ic *iniConfig) apply(cfg *Config) error {
	var err error
	if s := ic.Playback.Now; s != "" {
		if cfg.Playback.Now, err = strconv.Atoi(s); err != nil {
			return fmt.Errorf("playback now: %w", err)
		}
	}
	if s := ic.Playback.Gap; s != "" {
		if cfg.Playback.Gap, err = strconv.Atoi(s); err != nil {
			return fmt.Errorf("playback gap: %w", err)
		}
	}
	if s := ic.View.Scale; s != "" {
		f := strings.Fields(s)
		if len(f) != 3 {
			return fmt.Errorf("view scale: want 3 values, got %q", s)
		}
		for i := range f {
			v, err := strconv.ParseFloat(f[i], 32)
			if err != nil {
				return fmt.Errorf("view scale: %w", err)
			}
			cfg.View.Scale[i] = float32(v)
		}
	}
	if s := ic.View.ModelSize; s != "" {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fmt.Errorf("view modelsize: %w", err)
		}
		cfg.View.ModelSize = float32(v)
	}

	for name, cm := range ic.ColourMap {
		if cfg.ColourMaps == nil {
			cfg.ColourMaps = make(map[string]string)
		}
		cfg.ColourMaps[name] = cm.Colours
	}

	for name, oi := range ic.Object {
		oc := cfg.Object(name)
		oc.Preset, oc.ColourMap = oi.Preset, oi.ColourMap
		for _, p := range oi.Particle {
			id, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return fmt.Errorf("object %s particle: %w", name, err)
			}
			oc.Particles = append(oc.Particles, id)
		}
		if oi.FilterValue != "" {
			f := &FilterConfig{Value: oi.FilterValue}
			lo, err1 := strconv.ParseFloat(oi.FilterMin, 32)
			hi, err2 := strconv.ParseFloat(oi.FilterMax, 32)
			if err1 != nil || err2 != nil {
				return fmt.Errorf("object %s: filter needs numeric FilterMin and FilterMax", name)
			}
			f.Min, f.Max = float32(lo), float32(hi)
			oc.Filter = f
		}
		// the property accessors parse string values
		for key, val := range map[string]string{
			"steps": oi.Steps, "taper": oi.Taper, "fade": oi.Fade, "glyphs": oi.Glyphs,
			"scaling": oi.Scaling, "scaletracers": oi.ScaleTracers, "limit": oi.Limit,
			"arrowhead": oi.Arrowhead, "flat": oi.Flat, "connect": oi.Connect,
			"colour": oi.Colour, "opacity": oi.Opacity, "visible": oi.Visible,
		} {
			if val != "" {
				oc.Props[key] = val
			}
		}
	}
	return nil
}
