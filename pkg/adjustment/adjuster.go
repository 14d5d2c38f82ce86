// Package adjustment implements brightness, contrast, gamma, sharpness and
// inversion adjustments for intensity volumes.
//
// All transforms work in a normalized [0, 1] domain. The Adjuster captures
// the value range of a registered original volume once and uses it as the
// reference range for every later call, so a live preview computed with
// ApplyToSlice matches the corresponding plane of ApplyToVolume.
//
// The Adjuster holds no locks. Callers that change settings from one
// goroutine while rendering from another must serialize access themselves.
package adjustment

import (
	"vmmfrc/internal/logging"
	"vmmfrc/internal/models"
)

// Adjuster owns a reference copy of the original volume and the current
// settings, and applies adjustments to volumes and single planes.
type Adjuster struct {
	settings Settings

	// original is a private deep copy; nil until RegisterOriginal is called
	original *models.Volume

	// reference range captured from original at registration time
	originalMin float64
	originalMax float64
}

// Option selects the inputs of an Apply call. Anything not given falls back
// to the state cached in the Adjuster.
type Option func(*applyOptions)

type applyOptions struct {
	volume      *models.Volume
	settings    Settings
	hasSettings bool
}

// WithVolume adjusts v instead of the registered original. The registered
// reference range is still used for normalization when one exists.
// ApplyToSlice ignores this option.
func WithVolume(v *models.Volume) Option {
	return func(o *applyOptions) {
		o.volume = v
	}
}

// WithSettings applies s instead of the Adjuster's current settings
func WithSettings(s Settings) Option {
	return func(o *applyOptions) {
		o.settings = s
		o.hasSettings = true
	}
}

// NewAdjuster creates an Adjuster with default settings and no original
func NewAdjuster() *Adjuster {
	return &Adjuster{settings: DefaultSettings()}
}

// Settings returns a copy of the current settings
func (a *Adjuster) Settings() Settings {
	return a.settings
}

// SetSettings replaces the current settings
func (a *Adjuster) SetSettings(s Settings) {
	a.settings = s
}

// RegisterOriginal stores a deep copy of v as the reference volume and
// captures its dtype and value range. Any previous original is replaced.
// Later changes to v do not affect the stored copy. A nil volume is ignored.
func (a *Adjuster) RegisterOriginal(v *models.Volume) {
	if v == nil {
		logging.Logger().Warn("ignoring nil volume registration")
		return
	}
	a.original = v.Clone()
	a.originalMin, a.originalMax = a.original.MinMax()
	logging.Logger().Info("registered original volume",
		"width", v.Width, "height", v.Height, "depth", v.Depth,
		"dtype", v.DType.String(), "min", a.originalMin, "max", a.originalMax)
}

// Clear forgets the registered original
func (a *Adjuster) Clear() {
	a.original = nil
	a.originalMin, a.originalMax = 0, 0
}

// HasOriginal reports whether an original volume is registered
func (a *Adjuster) HasOriginal() bool {
	return a.original != nil
}

// Original returns a copy of the registered original volume.
// The boolean is false when nothing has been registered.
func (a *Adjuster) Original() (*models.Volume, bool) {
	if a.original == nil {
		return nil, false
	}
	return a.original.Clone(), true
}

// ReferenceRange returns the min/max captured from the registered original
func (a *Adjuster) ReferenceRange() (lo, hi float64, ok bool) {
	if a.original == nil {
		return 0, 0, false
	}
	return a.originalMin, a.originalMax, true
}

// ApplyToVolume returns an adjusted copy of a volume.
//
// The volume is the one passed with WithVolume, or the registered original;
// ErrNoVolume is returned when neither exists. Default settings return an
// unmodified copy. Otherwise samples are normalized with the registered
// reference range (the volume's own range if nothing is registered), run
// through Pipeline, mapped back and cast to the registered dtype.
func (a *Adjuster) ApplyToVolume(opts ...Option) (*models.Volume, error) {
	o := a.resolve(opts)

	vol := o.volume
	if vol == nil {
		if a.original == nil {
			return nil, ErrNoVolume
		}
		vol = a.original
	}

	if o.settings.IsDefault() {
		logging.Logger().Debug("default settings, returning copy", "voxels", vol.Len())
		return vol.Clone(), nil
	}

	lo, hi, dtype := a.reference(vol.MinMax, vol.DType)
	out := &models.Volume{
		Width:  vol.Width,
		Height: vol.Height,
		Depth:  vol.Depth,
		DType:  dtype,
	}
	out.Data = adjust(vol.Field(), o.settings, lo, hi, dtype)

	logging.Logger().Debug("adjusted volume", "voxels", vol.Len(), "min", lo, "max", hi)
	return out, nil
}

// ApplyToSlice returns an adjusted copy of a single plane for interactive
// preview. It runs the same pipeline as ApplyToVolume with the registered
// reference range and dtype. Without a registered original the plane's own
// range and dtype are used, and results are then not comparable across planes.
func (a *Adjuster) ApplyToSlice(p *models.Plane, opts ...Option) (*models.Plane, error) {
	if p == nil {
		return nil, &PreconditionError{Reason: "no slice given"}
	}
	o := a.resolve(opts)
	if o.settings.IsDefault() {
		return p.Clone(), nil
	}

	lo, hi, dtype := a.reference(p.MinMax, p.DType)
	out := &models.Plane{
		Width:  p.Width,
		Height: p.Height,
		DType:  dtype,
	}
	out.Data = adjust(p.Field(), o.settings, lo, hi, dtype)
	return out, nil
}

func (a *Adjuster) resolve(opts []Option) applyOptions {
	o := applyOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasSettings {
		o.settings = a.settings
	}
	return o
}

// reference picks the normalization range and output dtype: the registered
// original's when available, else the fallback input's own.
func (a *Adjuster) reference(minMax func() (float64, float64), dtype models.DType) (lo, hi float64, out models.DType) {
	if a.original != nil {
		return a.originalMin, a.originalMax, a.original.DType
	}
	lo, hi = minMax()
	logging.Logger().Debug("no original registered, using input range", "min", lo, "max", hi)
	return lo, hi, dtype
}

// adjust normalizes, runs the pipeline, denormalizes and casts into a new buffer
func adjust(f models.Field, s Settings, lo, hi float64, dtype models.DType) []float64 {
	normalized := models.Field{Data: Normalize(f.Data, lo, hi), Shape: f.Shape}
	result := Pipeline(normalized, s)
	out := Denormalize(result.Data, lo, hi)
	for i, v := range out {
		out[i] = dtype.Cast(v)
	}
	return out
}
