// Package filter provides the separable Gaussian filter used for unsharp
// masking. It works on row-major buffers of any dimensionality.
package filter

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultTruncate is the number of standard deviations covered by a kernel
const DefaultTruncate = 4.0

// GaussianKernel returns a normalized 1D Gaussian kernel for sigma.
// The kernel radius is int(truncate*sigma + 0.5), so sigma=1 yields 9 taps.
// For sigma <= 0 the kernel is the identity [1].
func GaussianKernel(sigma, truncate float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := int(truncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	twoSigmaSq := 2 * sigma * sigma
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-(x * x) / twoSigmaSq)
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// Gaussian blurs data with an isotropic Gaussian of the given sigma.
// shape lists the extent of each axis, slowest first; its product must equal
// len(data). One 1D pass runs along every axis, so a [H, W] plane and a
// [D, H, W] volume are filtered by the same routine. Borders use reflect
// mode: d c b a | a b c d | d c b a. The input is not modified.
func Gaussian(data []float64, shape []int, sigma float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	if len(data) == 0 || sigma <= 0 {
		return out
	}

	kernel := GaussianKernel(sigma, DefaultTruncate)
	line := make([]float64, 0)
	stride := len(data)
	for _, n := range shape {
		stride /= n
		line = convolveAxis(out, n, stride, kernel, line)
	}
	return out
}

// convolveAxis filters every line of length n whose consecutive samples are
// stride apart. The scratch buffer is grown as needed and returned for reuse.
func convolveAxis(data []float64, n, stride int, kernel, scratch []float64) []float64 {
	if n <= 1 {
		// Reflection of a single sample is the sample itself and the
		// kernel sums to one, so the axis is left unchanged.
		return scratch
	}
	if cap(scratch) < n {
		scratch = make([]float64, n)
	}
	scratch = scratch[:n]

	radius := len(kernel) / 2
	block := n * stride
	for base := 0; base < len(data); base += block {
		for offset := 0; offset < stride; offset++ {
			start := base + offset
			for i := 0; i < n; i++ {
				scratch[i] = data[start+i*stride]
			}
			for i := 0; i < n; i++ {
				sum := 0.0
				for k, w := range kernel {
					sum += w * scratch[reflect(i+k-radius, n)]
				}
				data[start+i*stride] = sum
			}
		}
	}
	return scratch
}

// reflect maps an out of range index back into [0, n) by mirroring about
// the edges, repeating the edge sample.
func reflect(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
