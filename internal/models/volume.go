package models

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Volume represents a 3D intensity volume such as a micro-CT scan
type Volume struct {
	// Data is the 3D volume data as a 1D array in row-major order
	// (index = z*Width*Height + y*Width + x)
	Data []float64

	// Width is the width of the volume in voxels
	Width int

	// Height is the height of the volume in voxels
	Height int

	// Depth is the number of planes along the z axis
	Depth int

	// DType is the element type the samples were stored as. Values in Data
	// are always representable by this type.
	DType DType
}

// Plane is a single 2D image, usually one slice of a volume
type Plane struct {
	// Data is the plane data in row-major order (index = y*Width + x)
	Data []float64

	Width  int
	Height int
	DType  DType
}

// Field is a working buffer of normalized samples together with its shape.
// Shape is ordered slowest axis first: [Depth, Height, Width] for volumes and
// [Height, Width] for planes.
type Field struct {
	Data  []float64
	Shape []int
}

// Summary holds descriptive statistics of a volume
type Summary struct {
	Min, Max float64
	Mean     float64
	StdDev   float64
}

// NewVolume allocates a zero-filled volume
func NewVolume(width, height, depth int, dtype DType) *Volume {
	return &Volume{
		Data:   make([]float64, width*height*depth),
		Width:  width,
		Height: height,
		Depth:  depth,
		DType:  dtype,
	}
}

// Len returns the number of voxels
func (v *Volume) Len() int {
	return len(v.Data)
}

// Index returns the offset of voxel (x, y, z) in Data
func (v *Volume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}

// At returns the voxel value at (x, y, z)
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[v.Index(x, y, z)]
}

// Validate checks that the dimensions agree with the data length
func (v *Volume) Validate() error {
	if v.Width <= 0 || v.Height <= 0 || v.Depth <= 0 {
		return fmt.Errorf("invalid volume dimensions %dx%dx%d", v.Width, v.Height, v.Depth)
	}
	if len(v.Data) != v.Width*v.Height*v.Depth {
		return fmt.Errorf("volume data has %d samples, dimensions %dx%dx%d need %d",
			len(v.Data), v.Width, v.Height, v.Depth, v.Width*v.Height*v.Depth)
	}
	return nil
}

// Clone returns a deep copy of the volume
func (v *Volume) Clone() *Volume {
	c := *v
	c.Data = make([]float64, len(v.Data))
	copy(c.Data, v.Data)
	return &c
}

// MinMax returns the smallest and largest sample. An empty volume reports 0, 0.
func (v *Volume) MinMax() (lo, hi float64) {
	return minMax(v.Data)
}

// Plane returns a copy of the XY plane at depth z
func (v *Volume) Plane(z int) (*Plane, error) {
	if z < 0 || z >= v.Depth {
		return nil, fmt.Errorf("plane %d out of range [0, %d)", z, v.Depth)
	}
	size := v.Width * v.Height
	p := NewPlane(v.Width, v.Height, v.DType)
	copy(p.Data, v.Data[z*size:(z+1)*size])
	return p, nil
}

// Field wraps the volume data as a [Depth, Height, Width] field without copying
func (v *Volume) Field() Field {
	return Field{Data: v.Data, Shape: []int{v.Depth, v.Height, v.Width}}
}

// Summarize computes min, max, mean and standard deviation of the samples
func (v *Volume) Summarize() Summary {
	if len(v.Data) == 0 {
		return Summary{}
	}
	lo, hi := v.MinMax()
	mean, std := stat.MeanStdDev(v.Data, nil)
	if len(v.Data) == 1 {
		std = 0
	}
	return Summary{Min: lo, Max: hi, Mean: mean, StdDev: std}
}

// NewPlane allocates a zero-filled plane
func NewPlane(width, height int, dtype DType) *Plane {
	return &Plane{
		Data:   make([]float64, width*height),
		Width:  width,
		Height: height,
		DType:  dtype,
	}
}

// At returns the sample at (x, y)
func (p *Plane) At(x, y int) float64 {
	return p.Data[y*p.Width+x]
}

// Clone returns a deep copy of the plane
func (p *Plane) Clone() *Plane {
	c := *p
	c.Data = make([]float64, len(p.Data))
	copy(c.Data, p.Data)
	return &c
}

// MinMax returns the smallest and largest sample. An empty plane reports 0, 0.
func (p *Plane) MinMax() (lo, hi float64) {
	return minMax(p.Data)
}

// Field wraps the plane data as a [Height, Width] field without copying
func (p *Plane) Field() Field {
	return Field{Data: p.Data, Shape: []int{p.Height, p.Width}}
}

// Len returns the number of samples in the field
func (f Field) Len() int {
	return len(f.Data)
}

func minMax(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return 0, 0
	}
	return floats.Min(data), floats.Max(data)
}
