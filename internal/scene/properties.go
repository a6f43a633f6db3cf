package scene

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Properties is the typed key-value store attached to every drawing object.
// Values arrive from YAML, INI or flags, so accessors accept any of the
// usual scalar encodings and fall back to the supplied default when a key is
// absent or cannot be converted.
type Properties struct {
	values map[string]any
}

func NewProperties(init map[string]any) *Properties {
	p := &Properties{values: make(map[string]any, len(init))}
	for k, v := range init {
		p.values[strings.ToLower(k)] = v
	}
	return p
}

func (p *Properties) Set(key string, v any) { p.values[strings.ToLower(key)] = v }

func (p *Properties) Has(key string) bool {
	_, ok := p.values[strings.ToLower(key)]
	return ok
}

func (p *Properties) Delete(key string) { delete(p.values, strings.ToLower(key)) }

// Keys returns the property names in sorted order.
func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the raw values.
func (p *Properties) Map() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

func (p *Properties) Clone() *Properties { return NewProperties(p.values) }

func (p *Properties) Bool(key string, def bool) bool {
	v, ok := p.values[strings.ToLower(key)]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return def
		}
		return b
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return def
}

func (p *Properties) Int(key string, def int) int {
	v, ok := p.values[strings.ToLower(key)]
	if !ok {
		return def
	}
	if f, ok := toFloat(v); ok {
		return int(f)
	}
	return def
}

func (p *Properties) Float(key string, def float64) float64 {
	v, ok := p.values[strings.ToLower(key)]
	if !ok {
		return def
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return def
}

func (p *Properties) String(key string, def string) string {
	v, ok := p.values[strings.ToLower(key)]
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}
