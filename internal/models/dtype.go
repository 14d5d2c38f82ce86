package models

import (
	"fmt"
	"math"
	"strings"
)

// DType identifies the element storage type of a volume or plane.
// The zero value is Float64, which Cast passes through unchanged.
type DType int

const (
	Float64 DType = iota
	Uint8
	Uint16
	Int8
	Int16
	Int32
	Float32
)

var dtypeNames = map[DType]string{
	Float64: "float64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Float32: "float32",
}

func (d DType) String() string {
	if name, ok := dtypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DType(%d)", int(d))
}

// IsInteger reports whether the dtype stores integer samples
func (d DType) IsInteger() bool {
	switch d {
	case Uint8, Uint16, Int8, Int16, Int32:
		return true
	}
	return false
}

// Range returns the representable range of an integer dtype.
// Floating dtypes report an unbounded range.
func (d DType) Range() (lo, hi float64) {
	switch d {
	case Uint8:
		return 0, math.MaxUint8
	case Uint16:
		return 0, math.MaxUint16
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	}
	return math.Inf(-1), math.Inf(1)
}

// Size returns the number of bytes used by one sample on disk
func (d DType) Size() int {
	switch d {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Int32, Float32:
		return 4
	}
	return 8
}

// Cast converts a working value to a value representable by d.
// Integer dtypes are clamped to their range and rounded to the nearest
// integer; Float32 loses precision through a float32 round trip.
func (d DType) Cast(v float64) float64 {
	switch {
	case d.IsInteger():
		lo, hi := d.Range()
		if math.IsNaN(v) {
			return lo
		}
		return math.Round(math.Max(lo, math.Min(hi, v)))
	case d == Float32:
		return float64(float32(v))
	}
	return v
}

// ParseDType parses a dtype name such as "uint16" or "u16"
func ParseDType(s string) (DType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "u8", "byte":
		return Uint8, nil
	case "u16":
		return Uint16, nil
	case "f32", "float":
		return Float32, nil
	case "f64", "double":
		return Float64, nil
	}
	for d, n := range dtypeNames {
		if n == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown dtype %q", s)
}

// MarshalText implements encoding.TextMarshaler so dtypes read naturally in YAML
func (d DType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *DType) UnmarshalText(text []byte) error {
	parsed, err := ParseDType(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
