package volumeio

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"vmmfrc/internal/models"
)

// createTestVolume creates a small volume whose samples cover the dtype range
func createTestVolume(dtype models.DType) *models.Volume {
	vol := models.NewVolume(5, 4, 3, dtype)
	lo, hi := dtype.Range()
	if !dtype.IsInteger() {
		lo, hi = -1000.25, 1000.75
	}
	for i := range vol.Data {
		t := float64(i) / float64(vol.Len()-1)
		vol.Data[i] = dtype.Cast(lo + t*(hi-lo))
	}
	return vol
}

// TestRawRoundTrip verifies WriteRaw/ReadRaw for every dtype and byte order
func TestRawRoundTrip(t *testing.T) {
	dtypes := []models.DType{models.Uint8, models.Uint16, models.Int8, models.Int16, models.Int32, models.Float32, models.Float64}
	orders := []binary.ByteOrder{binary.LittleEndian, binary.BigEndian}

	for _, dtype := range dtypes {
		for _, order := range orders {
			vol := createTestVolume(dtype)

			var buf bytes.Buffer
			if err := WriteRaw(&buf, vol, order); err != nil {
				t.Fatalf("%v/%v: WriteRaw failed: %v", dtype, order, err)
			}
			if buf.Len() != vol.Len()*dtype.Size() {
				t.Errorf("%v: expected %d bytes, got %d", dtype, vol.Len()*dtype.Size(), buf.Len())
			}

			got, err := ReadRaw(&buf, vol.Width, vol.Height, vol.Depth, dtype, order)
			if err != nil {
				t.Fatalf("%v/%v: ReadRaw failed: %v", dtype, order, err)
			}
			for i := range vol.Data {
				if got.Data[i] != vol.Data[i] {
					t.Fatalf("%v/%v: sample %d = %f, want %f", dtype, order, i, got.Data[i], vol.Data[i])
				}
			}
		}
	}
}

// TestRawByteOrder checks the on-disk layout of a 16-bit sample
func TestRawByteOrder(t *testing.T) {
	vol := models.NewVolume(1, 1, 1, models.Uint16)
	vol.Data[0] = 0x0102

	var little, big bytes.Buffer
	WriteRaw(&little, vol, binary.LittleEndian)
	WriteRaw(&big, vol, binary.BigEndian)
	if !bytes.Equal(little.Bytes(), []byte{0x02, 0x01}) || !bytes.Equal(big.Bytes(), []byte{0x01, 0x02}) {
		t.Errorf("Unexpected encodings %v and %v", little.Bytes(), big.Bytes())
	}

	if order, err := ParseByteOrder("big"); err != nil || order != binary.BigEndian {
		t.Errorf("ParseByteOrder(big) = %v, %v", order, err)
	}
	if _, err := ParseByteOrder("middle"); err == nil {
		t.Error("Expected error for unknown byte order")
	}
}

// TestReadRawErrors verifies short input and bad dimensions
func TestReadRawErrors(t *testing.T) {
	if _, err := ReadRaw(bytes.NewReader(make([]byte, 10)), 4, 4, 1, models.Uint8, binary.LittleEndian); err == nil {
		t.Error("Expected error for truncated input")
	}
	if _, err := ReadRaw(bytes.NewReader(nil), 0, 4, 1, models.Uint8, binary.LittleEndian); err == nil {
		t.Error("Expected error for zero width")
	}
}

// TestSaveLoadRaw verifies the file based helpers
func TestSaveLoadRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.raw")
	vol := createTestVolume(models.Int16)
	if err := SaveRaw(path, vol, binary.LittleEndian); err != nil {
		t.Fatalf("SaveRaw failed: %v", err)
	}
	got, err := LoadRaw(path, vol.Width, vol.Height, vol.Depth, models.Int16, binary.LittleEndian)
	if err != nil {
		t.Fatalf("LoadRaw failed: %v", err)
	}
	if got.DType != models.Int16 || got.Data[7] != vol.Data[7] {
		t.Errorf("Unexpected loaded volume %v %f", got.DType, got.Data[7])
	}
}

// TestStackRoundTrip verifies SaveStack/LoadStack for 8 and 16 bit volumes
func TestStackRoundTrip(t *testing.T) {
	for _, format := range []string{"tiff", "png"} {
		for _, dtype := range []models.DType{models.Uint8, models.Uint16} {
			dir := filepath.Join(t.TempDir(), format)
			vol := createTestVolume(dtype)

			if err := SaveStack(dir, vol, format); err != nil {
				t.Fatalf("%s/%v: SaveStack failed: %v", format, dtype, err)
			}
			got, err := LoadStack(dir)
			if err != nil {
				t.Fatalf("%s/%v: LoadStack failed: %v", format, dtype, err)
			}
			if got.DType != dtype {
				t.Errorf("%s: expected dtype %v, got %v", format, dtype, got.DType)
			}
			if got.Width != vol.Width || got.Height != vol.Height || got.Depth != vol.Depth {
				t.Fatalf("%s/%v: shape %dx%dx%d", format, dtype, got.Width, got.Height, got.Depth)
			}
			for i := range vol.Data {
				if got.Data[i] != vol.Data[i] {
					t.Fatalf("%s/%v: sample %d = %f, want %f", format, dtype, i, got.Data[i], vol.Data[i])
				}
			}
		}
	}

	if err := SaveStack(t.TempDir(), createTestVolume(models.Uint8), "bmp"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

// TestLoadStackOrdering verifies numeric ordering of slice files
func TestLoadStackOrdering(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []int{10, 2, 1} {
		img := image.NewGray(image.Rect(0, 0, 2, 2))
		for i := range img.Pix {
			img.Pix[i] = uint8(n)
		}
		writePNG(t, filepath.Join(dir, "slice_"+strconv.Itoa(n)+".png"), img)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	vol, err := LoadStack(dir)
	if err != nil {
		t.Fatalf("LoadStack failed: %v", err)
	}
	want := []float64{1, 2, 10}
	for z, w := range want {
		if got := vol.At(0, 0, z); got != w {
			t.Errorf("Slice %d value %f, want %f", z, got, w)
		}
	}
}

// TestLoadStackErrors verifies empty directories and mismatched slices
func TestExtractNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"slice_0042.tif", 42},
		{"/data/scan2/slice7.png", 7},
		{"a1b2c3.tiff", 123},
		{"cover.png", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := extractNumber(tt.name); got != tt.want {
			t.Errorf("extractNumber(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestSaveImageFailureRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	if err := saveImage(path, image.NewGray(image.Rect(0, 0, 0, 0)), "png"); err == nil {
		t.Fatal("Expected encoding an empty image to fail")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be removed, stat gave %v", path, err)
	}
}

func TestLoadStackErrors(t *testing.T) {
	if _, err := LoadStack(t.TempDir()); err == nil {
		t.Error("Expected error for empty directory")
	}

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "1.png"), image.NewGray(image.Rect(0, 0, 2, 2)))
	writePNG(t, filepath.Join(dir, "2.png"), image.NewGray(image.Rect(0, 0, 3, 2)))
	if _, err := LoadStack(dir); err == nil {
		t.Error("Expected error for mismatched slice sizes")
	}
}

// TestPlaneImage verifies range mapping to 16-bit grayscale
func TestPlaneImage(t *testing.T) {
	p := models.NewPlane(3, 1, models.Float32)
	copy(p.Data, []float64{-1, 0.5, 2})
	img := PlaneImage(p, 0, 1)

	want := []uint16{0, 32768, 65535}
	for x, w := range want {
		if got := img.Gray16At(x, 0).Y; got != w {
			t.Errorf("Pixel %d = %d, want %d", x, got, w)
		}
	}

	flat := PlaneImage(p, 3, 3)
	if flat.Gray16At(1, 0) != (color.Gray16{}) {
		t.Error("Degenerate range should render black")
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}
