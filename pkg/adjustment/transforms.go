package adjustment

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"vmmfrc/internal/models"
	"vmmfrc/pkg/filter"
)

// sharpenSigma is the standard deviation of the unsharp mask blur, in voxels
const sharpenSigma = 1.0

// Each transform expects samples in [0, 1] and returns samples in [0, 1].
// A parameter at its default returns the input field unchanged and does
// not allocate. Otherwise a new field is returned and the input is left
// untouched.

// Brightness adds b/100 to every sample and clips to [0, 1]
func Brightness(f models.Field, b float64) models.Field {
	if b == 0 {
		return f
	}
	out := cloneField(f)
	floats.AddConst(b/100.0, out.Data)
	clip01(out.Data)
	return out
}

// Contrast scales samples by c about the 0.5 midpoint and clips to [0, 1]
func Contrast(f models.Field, c float64) models.Field {
	if c == 1.0 {
		return f
	}
	out := cloneField(f)
	for i, v := range out.Data {
		out.Data[i] = (v-0.5)*c + 0.5
	}
	clip01(out.Data)
	return out
}

// Gamma clips samples to [0, 1] and raises them to 1/g
func Gamma(f models.Field, g float64) models.Field {
	if g == 1.0 {
		return f
	}
	out := cloneField(f)
	exp := 1.0 / g
	for i, v := range out.Data {
		out.Data[i] = math.Pow(clamp01(v), exp)
	}
	return out
}

// Sharpness applies an unsharp mask of strength s/50. The blur uses the same
// isotropic sigma whatever the dimensionality of the field.
func Sharpness(f models.Field, s float64) models.Field {
	if s == 0 {
		return f
	}
	amount := s / 50.0
	blurred := filter.Gaussian(f.Data, f.Shape, sharpenSigma)
	out := cloneField(f)
	for i, v := range out.Data {
		out.Data[i] = v + amount*(v-blurred[i])
	}
	clip01(out.Data)
	return out
}

// Invert maps every sample x to 1-x when inv is set
func Invert(f models.Field, inv bool) models.Field {
	if !inv {
		return f
	}
	out := cloneField(f)
	floats.Scale(-1, out.Data)
	floats.AddConst(1, out.Data)
	return out
}

// Pipeline runs the five transforms in their fixed order:
// brightness, contrast, gamma, sharpness, invert.
func Pipeline(f models.Field, s Settings) models.Field {
	f = Brightness(f, s.Brightness)
	f = Contrast(f, s.Contrast)
	f = Gamma(f, s.Gamma)
	f = Sharpness(f, s.Sharpness)
	return Invert(f, s.Invert)
}

func cloneField(f models.Field) models.Field {
	data := make([]float64, len(f.Data))
	copy(data, f.Data)
	shape := make([]int, len(f.Shape))
	copy(shape, f.Shape)
	return models.Field{Data: data, Shape: shape}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clip01(data []float64) {
	for i, v := range data {
		data[i] = clamp01(v)
	}
}
