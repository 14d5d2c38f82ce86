package volumeio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"

	"vmmfrc/internal/logging"
	"vmmfrc/internal/models"
)

var stackExtensions = map[string]bool{
	".tif":  true,
	".tiff": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// LoadStack reads a directory of slice images into a volume. Files are
// ordered by the number embedded in their names, so slice_2.tif comes before
// slice_10.tif. 8-bit grayscale slices produce a Uint8 volume; anything
// else is read as 16-bit luminance.
func LoadStack(dir string) (*models.Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if stackExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no slice images found in %s", dir)
	}

	sort.SliceStable(names, func(i, j int) bool {
		ni, nj := extractNumber(names[i]), extractNumber(names[j])
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})

	var vol *models.Volume
	for z, name := range names {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", name, err)
		}

		bounds := img.Bounds()
		if vol == nil {
			dtype := models.Uint16
			if _, ok := img.(*image.Gray); ok {
				dtype = models.Uint8
			}
			vol = models.NewVolume(bounds.Dx(), bounds.Dy(), len(names), dtype)
		} else if bounds.Dx() != vol.Width || bounds.Dy() != vol.Height {
			return nil, fmt.Errorf("slice %s is %dx%d, expected %dx%d",
				name, bounds.Dx(), bounds.Dy(), vol.Width, vol.Height)
		}

		copyImageToPlane(img, vol, z)
	}

	logging.Logger().Info("loaded slice stack", "dir", dir,
		"slices", vol.Depth, "width", vol.Width, "height", vol.Height, "dtype", vol.DType.String())
	return vol, nil
}

// SaveStack writes every XY plane of the volume as an image in dir.
// format is "tiff" or "png".
func SaveStack(dir string, vol *models.Volume, format string) error {
	var ext string
	switch format {
	case "tiff":
		ext = ".tif"
	case "png":
		ext = ".png"
	default:
		return fmt.Errorf("unsupported stack format %q", format)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	lo, hi := vol.MinMax()
	for z := 0; z < vol.Depth; z++ {
		plane, err := vol.Plane(z)
		if err != nil {
			return err
		}

		var img image.Image
		switch vol.DType {
		case models.Uint8:
			img = grayImage(plane)
		case models.Uint16:
			img = PlaneImage(plane, 0, math.MaxUint16)
		default:
			img = PlaneImage(plane, lo, hi)
		}

		filename := filepath.Join(dir, fmt.Sprintf("slice_%04d%s", z, ext))
		if err := saveImage(filename, img, format); err != nil {
			return err
		}
	}

	logging.Logger().Info("saved slice stack", "dir", dir, "slices", vol.Depth, "format", format)
	return nil
}

// PlaneImage renders a plane as 16-bit grayscale, mapping [lo, hi] onto
// [0, 65535]. A degenerate range renders black.
func PlaneImage(p *models.Plane, lo, hi float64) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			var value uint16
			if hi > lo {
				t := (p.At(x, y) - lo) / (hi - lo)
				value = uint16(math.Round(math.Max(0, math.Min(1, t)) * math.MaxUint16))
			}
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img
}

// grayImage stores an 8-bit plane without rescaling
func grayImage(p *models.Plane) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(models.Uint8.Cast(p.At(x, y)))})
		}
	}
	return img
}

func copyImageToPlane(img image.Image, vol *models.Volume, z int) {
	bounds := img.Bounds()
	for y := 0; y < vol.Height; y++ {
		for x := 0; x < vol.Width; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			var v float64
			if vol.DType == models.Uint8 {
				v = float64(color.GrayModel.Convert(c).(color.Gray).Y)
			} else {
				v = float64(color.Gray16Model.Convert(c).(color.Gray16).Y)
			}
			vol.Data[vol.Index(x, y, z)] = v
		}
	}
}

// loadImage decodes a slice image; TIFF is handled by x/image, the rest by
// the standard decoders
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return tiff.Decode(file)
	}
	img, _, err := image.Decode(file)
	return img, err
}

func saveImage(filename string, img image.Image, format string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close image file: %w", cerr)
		}
		if err != nil {
			os.Remove(filename)
		}
	}()

	if format == "tiff" {
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	} else {
		err = png.Encode(file, img)
	}
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// extractNumber returns the digits of the file name read as one number,
// or 0 when there are none
func extractNumber(filename string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, filepath.Base(filename))

	num, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return num
}
