package adjustment

import (
	"math"
	"math/rand/v2"
	"testing"

	"vmmfrc/internal/models"
)

const tolerance = 1e-9

func field(values ...float64) models.Field {
	return models.Field{Data: values, Shape: []int{len(values)}}
}

func assertClose(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected %d samples, got %d", name, len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tolerance {
			t.Errorf("%s: sample %d = %f, want %f", name, i, got[i], want[i])
		}
	}
}

// TestIdentityTransforms verifies that default parameters return the input
// field itself
func TestIdentityTransforms(t *testing.T) {
	f := field(0.1, 0.5, 0.9)
	results := map[string]models.Field{
		"brightness": Brightness(f, 0),
		"contrast":   Contrast(f, 1.0),
		"gamma":      Gamma(f, 1.0),
		"sharpness":  Sharpness(f, 0),
		"invert":     Invert(f, false),
		"pipeline":   Pipeline(f, DefaultSettings()),
	}
	for name, got := range results {
		if &got.Data[0] != &f.Data[0] {
			t.Errorf("%s: identity parameter should not allocate a new buffer", name)
		}
	}
}

func TestBrightness(t *testing.T) {
	f := field(0, 0.5, 0.95)
	assertClose(t, "brighten", Brightness(f, 20).Data, []float64{0.2, 0.7, 1})
	assertClose(t, "darken", Brightness(f, -60).Data, []float64{0, 0, 0.35})
	assertClose(t, "input untouched", f.Data, []float64{0, 0.5, 0.95})
}

func TestContrast(t *testing.T) {
	f := field(0, 0.25, 0.5, 0.75, 1)
	assertClose(t, "increase", Contrast(f, 2).Data, []float64{0, 0, 0.5, 1, 1})
	assertClose(t, "decrease", Contrast(f, 0.5).Data, []float64{0.25, 0.375, 0.5, 0.625, 0.75})
}

func TestGamma(t *testing.T) {
	f := field(0, 0.25, 1, -0.5, 1.5)
	got := Gamma(f, 2).Data
	assertClose(t, "gamma 2", got, []float64{0, 0.5, 1, 0, 1})

	darker := Gamma(field(0.25), 0.5).Data
	assertClose(t, "gamma 0.5", darker, []float64{0.0625})
}

func TestInvert(t *testing.T) {
	assertClose(t, "invert", Invert(field(0, 0.2, 1), true).Data, []float64{1, 0.8, 0})
}

// TestSharpness verifies the unsharp mask: flat regions are unchanged and
// edges gain overshoot
func TestSharpness(t *testing.T) {
	flat := models.Field{Data: make([]float64, 25), Shape: []int{5, 5}}
	for i := range flat.Data {
		flat.Data[i] = 0.4
	}
	assertClose(t, "flat", Sharpness(flat, 50).Data, flat.Data)

	// Step edge: left half 0.3, right half 0.7
	n := 12
	step := models.Field{Data: make([]float64, n*n), Shape: []int{n, n}}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if x >= n/2 {
				step.Data[y*n+x] = 0.7
			} else {
				step.Data[y*n+x] = 0.3
			}
		}
	}
	sharp := Sharpness(step, 50).Data
	row := 5
	if sharp[row*n+n/2-1] >= 0.3 {
		t.Errorf("Dark side of edge should get darker, got %f", sharp[row*n+n/2-1])
	}
	if sharp[row*n+n/2] <= 0.7 {
		t.Errorf("Bright side of edge should get brighter, got %f", sharp[row*n+n/2])
	}
	for i, v := range sharp {
		if v < 0 || v > 1 {
			t.Fatalf("Sample %d outside [0, 1]: %f", i, v)
		}
	}

	// Strong sharpening saturates at the clip bounds
	strong := Sharpness(step, 100000).Data
	if strong[row*n+n/2-1] != 0 || strong[row*n+n/2] != 1 {
		t.Errorf("Expected clipped extremes, got %f and %f", strong[row*n+n/2-1], strong[row*n+n/2])
	}
}

// TestPipelineOrder verifies that brightness runs before contrast
func TestPipelineOrder(t *testing.T) {
	f := field(0.3)

	brightnessFirst := Contrast(Brightness(f, 20), 2.0).Data[0]
	contrastFirst := Brightness(Contrast(f, 2.0), 20).Data[0]
	if math.Abs(brightnessFirst-contrastFirst) < tolerance {
		t.Fatalf("Orders should differ, both gave %f", brightnessFirst)
	}

	got := Pipeline(f, Settings{Brightness: 20, Contrast: 2.0, Gamma: 1.0}).Data[0]
	if math.Abs(got-brightnessFirst) > tolerance {
		t.Errorf("Pipeline gave %f, want brightness-then-contrast result %f", got, brightnessFirst)
	}
	if math.Abs(got-0.5) > tolerance {
		t.Errorf("Expected 0.5, got %f", got)
	}

	// Invert is the last stage
	inverted := Pipeline(field(0.3), Settings{Brightness: 20, Contrast: 1, Gamma: 1, Invert: true}).Data[0]
	if math.Abs(inverted-0.5) > tolerance {
		t.Errorf("Expected 1-(0.3+0.2)=0.5, got %f", inverted)
	}
}

// TestNormalizeRoundTrip checks denormalize(normalize(x)) == x on random ranges
func TestNormalizeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	next := rng.Float64

	for trial := 0; trial < 200; trial++ {
		lo := next()*2000 - 1000
		hi := lo + next()*5000 + 1e-3
		data := make([]float64, 16)
		for i := range data {
			data[i] = lo + next()*(hi-lo)
		}
		data[0], data[1] = lo, hi

		norm := Normalize(data, lo, hi)
		for i, v := range norm {
			if v < -tolerance || v > 1+tolerance {
				t.Fatalf("trial %d: normalized sample %d = %f outside [0, 1]", trial, i, v)
			}
		}
		back := Denormalize(norm, lo, hi)
		for i := range data {
			if math.Abs(back[i]-data[i]) > 1e-9*math.Max(1, math.Abs(data[i])) {
				t.Fatalf("trial %d: round trip of %f gave %f", trial, data[i], back[i])
			}
		}
	}
}

// TestNormalizeDegenerate verifies that a constant range yields zeros
func TestNormalizeDegenerate(t *testing.T) {
	norm := Normalize([]float64{5, 5, 5}, 5, 5)
	for i, v := range norm {
		if v != 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("Sample %d = %f, want 0", i, v)
		}
	}
	assertClose(t, "denormalize degenerate", Denormalize(norm, 5, 5), []float64{5, 5, 5})
}
