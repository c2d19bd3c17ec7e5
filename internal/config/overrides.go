package config

import "strings"

// Overrides carries command-line values that take precedence over the file.
// Empty fields leave the file value in place.
type Overrides struct {
	InputDir  string
	OutputDir string
	Device    string
	Model     string
	LogLevel  string
}

// ApplyOverrides writes non-empty override values into the settings tree.
func (c *Config) ApplyOverrides(o Overrides) {
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			c.Set(key, value)
		}
	}
	set("paths.input", o.InputDir)
	set("paths.output", o.OutputDir)
	set("device.type", strings.ToLower(o.Device))
	set("whisper.model_size", o.Model)
	set("logging.level", strings.ToUpper(o.LogLevel))
}
