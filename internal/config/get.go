package config

import (
	"math"
	"strings"
)

// Get walks the settings tree along a dotted key path. A missing key, a nil
// value, or a non-map intermediate yields def.
func (c *Config) Get(key string, def any) any {
	if c == nil || c.tree == nil {
		return def
	}
	var current any = c.tree
	for _, part := range strings.Split(key, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return def
		}
		value, ok := node[part]
		if !ok || value == nil {
			return def
		}
		current = value
	}
	return current
}

// GetString returns the string at key, or def on absence or type mismatch.
func (c *Config) GetString(key, def string) string {
	if s, ok := c.Get(key, nil).(string); ok {
		return s
	}
	return def
}

// GetInt returns the integer at key. Integral floats are accepted.
func (c *Config) GetInt(key string, def int) int {
	switch v := c.Get(key, nil).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	}
	return def
}

// GetFloat returns the number at key as a float64.
func (c *Config) GetFloat(key string, def float64) float64 {
	switch v := c.Get(key, nil).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// GetBool returns the boolean at key.
func (c *Config) GetBool(key string, def bool) bool {
	if b, ok := c.Get(key, nil).(bool); ok {
		return b
	}
	return def
}

// GetStringSlice returns the list of strings at key. A list containing a
// non-string element is treated as a type mismatch.
func (c *Config) GetStringSlice(key string, def []string) []string {
	switch v := c.Get(key, nil).(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return cloneStrings(def)
			}
			out = append(out, s)
		}
		return out
	}
	return cloneStrings(def)
}

// Set stores value at a dotted key path, creating intermediate maps and
// replacing non-map intermediates.
func (c *Config) Set(key string, value any) {
	if c.tree == nil {
		c.tree = map[string]any{}
	}
	parts := strings.Split(key, ".")
	node := c.tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[part] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = value
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
