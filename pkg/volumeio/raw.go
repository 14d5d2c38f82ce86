// Package volumeio loads and saves intensity volumes as headerless raw
// binary files or as directories of slice images.
package volumeio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"vmmfrc/internal/logging"
	"vmmfrc/internal/models"
)

// ParseByteOrder maps "little" or "big" to a binary.ByteOrder
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch name {
	case "little", "":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("unknown byte order %q", name)
}

// ReadRaw decodes width*height*depth samples of dtype from r
func ReadRaw(r io.Reader, width, height, depth int, dtype models.DType, order binary.ByteOrder) (*models.Volume, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("invalid volume dimensions %dx%dx%d", width, height, depth)
	}
	vol := models.NewVolume(width, height, depth, dtype)

	size := dtype.Size()
	buf := make([]byte, size*vol.Len())
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read %d bytes of %v samples: %w", len(buf), dtype, err)
	}

	for i := range vol.Data {
		vol.Data[i] = decodeSample(buf[i*size:(i+1)*size], dtype, order)
	}
	return vol, nil
}

// LoadRaw reads a raw volume file
func LoadRaw(path string, width, height, depth int, dtype models.DType, order binary.ByteOrder) (*models.Volume, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	vol, err := ReadRaw(bufio.NewReader(file), width, height, depth, dtype, order)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	logging.Logger().Info("loaded raw volume", "path", path,
		"width", width, "height", height, "depth", depth, "dtype", dtype.String())
	return vol, nil
}

// WriteRaw encodes the volume samples in its dtype. Samples are cast to the
// dtype first, so out of range values saturate.
func WriteRaw(w io.Writer, vol *models.Volume, order binary.ByteOrder) error {
	size := vol.DType.Size()
	buf := make([]byte, size)
	for _, v := range vol.Data {
		encodeSample(buf, vol.DType.Cast(v), vol.DType, order)
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("failed to write binary data: %w", err)
		}
	}
	return nil
}

// SaveRaw writes a raw volume file
func SaveRaw(path string, vol *models.Volume, order binary.ByteOrder) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create raw file: %w", err)
	}

	bw := bufio.NewWriter(file)
	if err := WriteRaw(bw, vol, order); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write binary data: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return err
	}

	logging.Logger().Info("saved raw volume", "path", path, "voxels", vol.Len(), "dtype", vol.DType.String())
	return nil
}

func decodeSample(b []byte, dtype models.DType, order binary.ByteOrder) float64 {
	switch dtype {
	case models.Uint8:
		return float64(b[0])
	case models.Int8:
		return float64(int8(b[0]))
	case models.Uint16:
		return float64(order.Uint16(b))
	case models.Int16:
		return float64(int16(order.Uint16(b)))
	case models.Int32:
		return float64(int32(order.Uint32(b)))
	case models.Float32:
		return float64(math.Float32frombits(order.Uint32(b)))
	}
	return math.Float64frombits(order.Uint64(b))
}

func encodeSample(b []byte, v float64, dtype models.DType, order binary.ByteOrder) {
	switch dtype {
	case models.Uint8:
		b[0] = uint8(v)
	case models.Int8:
		b[0] = uint8(int8(v))
	case models.Uint16:
		order.PutUint16(b, uint16(v))
	case models.Int16:
		order.PutUint16(b, uint16(int16(v)))
	case models.Int32:
		order.PutUint32(b, uint32(int32(v)))
	case models.Float32:
		order.PutUint32(b, math.Float32bits(float32(v)))
	default:
		order.PutUint64(b, math.Float64bits(v))
	}
}
