package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"vmmfrc/internal/logging"
	"vmmfrc/internal/models"
	"vmmfrc/pkg/adjustment"
)

// Viewer extracts axis-aligned slices from a volume and renders adjusted
// previews of them for display.
type Viewer struct {
	// volume is the volume slices are taken from
	volume *models.Volume

	// adjuster supplies the reference range shared by every preview
	adjuster *adjustment.Adjuster
}

// NewViewer creates a viewer over vol. If adj has no original registered,
// vol is registered so previews share its reference range. A nil adj gets
// a fresh Adjuster.
func NewViewer(vol *models.Volume, adj *adjustment.Adjuster) *Viewer {
	if adj == nil {
		adj = adjustment.NewAdjuster()
	}
	if !adj.HasOriginal() {
		adj.RegisterOriginal(vol)
	}
	return &Viewer{
		volume:   vol,
		adjuster: adj,
	}
}

// Adjuster returns the adjuster used for previews
func (v *Viewer) Adjuster() *adjustment.Adjuster {
	return v.adjuster
}

// ExtractSlice extracts a 2D plane from the volume along the specified axis:
// "x" gives a YZ plane (width = depth), "y" an XZ plane (height = depth)
// and "z" an XY plane.
func (v *Viewer) ExtractSlice(axis string, position int) (*models.Plane, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	vol := v.volume
	switch axis {
	case "x", "X":
		if position >= vol.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, vol.Width)
		}
		p := models.NewPlane(vol.Depth, vol.Height, vol.DType)
		for y := 0; y < vol.Height; y++ {
			for z := 0; z < vol.Depth; z++ {
				p.Data[y*p.Width+z] = vol.At(position, y, z)
			}
		}
		return p, nil

	case "y", "Y":
		if position >= vol.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, vol.Height)
		}
		p := models.NewPlane(vol.Width, vol.Depth, vol.DType)
		for z := 0; z < vol.Depth; z++ {
			for x := 0; x < vol.Width; x++ {
				p.Data[z*p.Width+x] = vol.At(x, position, z)
			}
		}
		return p, nil

	case "z", "Z":
		if position >= vol.Depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, vol.Depth)
		}
		return vol.Plane(position)
	}

	return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
}

// ExtractRegion extracts a 3D subregion from the volume
func (v *Viewer) ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ int) (*models.Volume, error) {
	if startX < 0 || startY < 0 || startZ < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}

	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}

	vol := v.volume
	if startX+sizeX > vol.Width || startY+sizeY > vol.Height || startZ+sizeZ > vol.Depth {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := models.NewVolume(sizeX, sizeY, sizeZ, vol.DType)
	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			srcIdx := vol.Index(startX, startY+y, startZ+z)
			dstIdx := region.Index(0, y, z)
			copy(region.Data[dstIdx:dstIdx+sizeX], vol.Data[srcIdx:srcIdx+sizeX])
		}
	}

	return region, nil
}

// Preview adjusts one slice with settings and renders it as an 8-bit
// display buffer. Intensities are mapped through the reference range of the
// registered original, so brightness is comparable between slices.
func (v *Viewer) Preview(axis string, position int, settings adjustment.Settings) (*image.Gray, error) {
	plane, err := v.ExtractSlice(axis, position)
	if err != nil {
		return nil, err
	}

	adjusted, err := v.adjuster.ApplyToSlice(plane, adjustment.WithSettings(settings))
	if err != nil {
		return nil, err
	}

	lo, hi, ok := v.adjuster.ReferenceRange()
	if !ok {
		lo, hi = plane.MinMax()
	}

	logging.Logger().Debug("rendered preview", "axis", axis, "position", position)
	return DisplayImage(adjusted, lo, hi), nil
}

// DisplayImage maps [lo, hi] of a plane onto 8-bit grayscale
func DisplayImage(p *models.Plane, lo, hi float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			var value uint8
			if hi > lo {
				t := (p.At(x, y) - lo) / (hi - lo)
				value = uint8(math.Round(math.Max(0, math.Min(1, t)) * 255))
			}
			img.SetGray(x, y, color.Gray{Y: value})
		}
	}
	return img
}

// SaveSlice saves an image as PNG
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveSliceSequence renders and saves an adjusted preview of every slice
// along the specified axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string, settings adjustment.Settings) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.volume.Width
	case "y", "Y":
		maxPos = v.volume.Height
	case "z", "Z":
		maxPos = v.volume.Depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.Preview(axis, pos, settings)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
