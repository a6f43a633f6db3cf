package config

import "sort"

// Presets are named bundles of tracer properties.
var Presets = map[string]map[string]any{
	"trails": {
		"connect": true, "flat": true, "fade": true, "steps": 20,
	},
	"tubes": {
		"connect": true, "flat": false, "glyphs": 2, "taper": true, "arrowhead": 2, "scaling": 20,
	},
	"points": {
		"connect": false, "steps": 1,
	},
	"comet": {
		"connect": true, "flat": false, "glyphs": 1, "taper": true, "fade": true,
		"steps": 8, "arrowhead": 3, "scaling": 40,
	},
}

// GetPreset returns a copy of the named preset, nil if there is none.
func GetPreset(name string) map[string]any {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
