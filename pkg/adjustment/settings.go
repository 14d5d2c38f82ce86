package adjustment

import "math"

// Documented parameter domains. The engine applies out of range values
// arithmetically; Clamped is available for callers that want the stricter
// behaviour.
const (
	MinBrightness = -100.0
	MaxBrightness = 100.0
	MinContrast   = 0.1
	MaxContrast   = 3.0
	MinGamma      = 0.1
	MaxGamma      = 3.0
	MinSharpness  = 0.0
	MaxSharpness  = 100.0
)

// Settings holds the five adjustment parameters. It is a plain value: copy
// it to hand it to another component.
type Settings struct {
	// Brightness shifts intensities by Brightness/100 in the normalized domain (-100 to 100)
	Brightness float64 `yaml:"brightness"`

	// Contrast scales intensities about the 0.5 midpoint (0.1 to 3.0, 1.0 = no change)
	Contrast float64 `yaml:"contrast"`

	// Gamma applies x^(1/Gamma) (0.1 to 3.0, 1.0 = no change)
	Gamma float64 `yaml:"gamma"`

	// Sharpness is the unsharp mask strength, amount = Sharpness/50 (0 to 100)
	Sharpness float64 `yaml:"sharpness"`

	// Invert maps x to 1-x
	Invert bool `yaml:"invert"`
}

// DefaultSettings returns settings that leave a volume unchanged
func DefaultSettings() Settings {
	return Settings{Contrast: 1.0, Gamma: 1.0}
}

// IsDefault reports whether every parameter is at its default value
func (s Settings) IsDefault() bool {
	return s == DefaultSettings()
}

// Reset restores the default values
func (s *Settings) Reset() {
	*s = DefaultSettings()
}

// Clamped returns a copy with every parameter clipped to its documented domain
func (s Settings) Clamped() Settings {
	return Settings{
		Brightness: clampRange(s.Brightness, MinBrightness, MaxBrightness),
		Contrast:   clampRange(s.Contrast, MinContrast, MaxContrast),
		Gamma:      clampRange(s.Gamma, MinGamma, MaxGamma),
		Sharpness:  clampRange(s.Sharpness, MinSharpness, MaxSharpness),
		Invert:     s.Invert,
	}
}

// ToMap converts the settings into a generic map keyed by parameter name
func (s Settings) ToMap() map[string]any {
	return map[string]any{
		"brightness": s.Brightness,
		"contrast":   s.Contrast,
		"gamma":      s.Gamma,
		"sharpness":  s.Sharpness,
		"invert":     s.Invert,
	}
}

// SettingsFromMap builds settings from a map produced by ToMap or decoded
// from JSON/YAML. Missing or mistyped keys keep their defaults.
func SettingsFromMap(m map[string]any) Settings {
	s := DefaultSettings()
	if v, ok := toFloat(m["brightness"]); ok {
		s.Brightness = v
	}
	if v, ok := toFloat(m["contrast"]); ok {
		s.Contrast = v
	}
	if v, ok := toFloat(m["gamma"]); ok {
		s.Gamma = v
	}
	if v, ok := toFloat(m["sharpness"]); ok {
		s.Sharpness = v
	}
	if v, ok := m["invert"].(bool); ok {
		s.Invert = v
	}
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
