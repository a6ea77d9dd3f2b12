// Package filters restricts classifier output to the allow-listed filter
// keys and coerces values to recognized shapes.
package filters

import "strings"

// AllowedKeys is the fixed filter-key allow-list. nutrition_focus is
// synthetic and handled separately.
var AllowedKeys = map[string]struct{}{
	"price":             {},
	"brand":             {},
	"tags":              {},
	"health_attributes": {},
	"item":              {},
	"name":              {},
	"type":              {},
	"strength":          {},
	"fat_content":       {},
	"organic":           {},
}

// Normalize keeps only allow-listed keys with scalar or scalar-list
// values, lower-casing keys on output. A price {min,max} map survives as
// a range. Everything else is dropped. Pure; the input map is not mutated.
func Normalize(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, val := range in {
		lower := strings.ToLower(key)
		if lower == "nutrition_focus" {
			out[lower] = true
			continue
		}
		if _, ok := AllowedKeys[lower]; !ok {
			continue
		}
		if lower == "price" {
			if r, ok := asRange(val); ok {
				out[lower] = r
				continue
			}
		}
		if v, ok := asScalarOrList(val); ok {
			out[lower] = v
		}
	}
	return out
}

func asScalarOrList(val any) (any, bool) {
	if isScalar(val) {
		return val, true
	}
	if list, ok := val.([]any); ok {
		for _, item := range list {
			if !isScalar(item) {
				return nil, false
			}
		}
		return list, true
	}
	if list, ok := val.([]string); ok {
		return list, true
	}
	return nil, false
}

func isScalar(val any) bool {
	switch val.(type) {
	case string, bool, int, int64, float32, float64:
		return true
	}
	return false
}

// asRange accepts a {min,max} map with numeric bounds, both optional.
func asRange(val any) (map[string]any, bool) {
	m, ok := val.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]any, 2)
	for k, v := range m {
		lk := strings.ToLower(k)
		if lk != "min" && lk != "max" {
			return nil, false
		}
		if !isNumeric(v) {
			return nil, false
		}
		out[lk] = v
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func isNumeric(val any) bool {
	switch val.(type) {
	case int, int64, float32, float64:
		return true
	}
	return false
}
