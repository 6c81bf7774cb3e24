// Package rimage holds the depth images handed to the reprojection engine.
package rimage

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ErrInvalidArgument is returned when a depth buffer or its description cannot be used.
var ErrInvalidArgument = errors.New("invalid argument")

// NewInvalidArgumentError is used when a depth buffer or one of its parameters is malformed.
func NewInvalidArgumentError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// InvalidDepth returns the sentinel stored for pixels without a measurement: an IEEE-754 quiet NaN.
// It is propagated through reprojection and never read as a zero distance.
func InvalidDepth() float64 {
	return math.NaN()
}

// IsValidDepth reports whether d is a measurement rather than the InvalidDepth sentinel.
func IsValidDepth(d float64) bool {
	return !math.IsNaN(d)
}

// DepthImage is a width x height grid of depth samples stored contiguously in row-major
// order; the sample for pixel (x, y) lives at index y*width + x.
type DepthImage struct {
	width  int
	height int

	data []float64
}

// checkedSize returns width*height, failing when either is negative or the product does not fit in an int.
func checkedSize(width, height int) (int, error) {
	if width < 0 || height < 0 {
		return 0, NewInvalidArgumentError("bad width or height for depth image %v %v", width, height)
	}
	if width != 0 && height > math.MaxInt/width {
		return 0, NewInvalidArgumentError("depth image of %dx%d is too large", width, height)
	}
	return width * height, nil
}

// NewEmptyDepthImage returns a depth image whose every sample is InvalidDepth.
// Negative dimensions are treated as zero. It panics if width*height overflows an int.
func NewEmptyDepthImage(width, height int) *DepthImage {
	width, height = max(width, 0), max(height, 0)
	size, err := checkedSize(width, height)
	if err != nil {
		panic(err)
	}
	dm := &DepthImage{
		width:  width,
		height: height,
		data:   make([]float64, size),
	}
	dm.Fill(InvalidDepth())
	return dm
}

// NewDepthImage wraps data as a width x height row-major depth image. The slice is not copied.
func NewDepthImage(width, height int, data []float64) (*DepthImage, error) {
	size, err := checkedSize(width, height)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, NewInvalidArgumentError("depth image of %dx%d needs %d samples, got %d",
			width, height, size, len(data))
	}
	return &DepthImage{width: width, height: height, data: data}, nil
}

// NewDepthImageFromBytes converts a raw sensor buffer into a depth image. Each row starts
// stride bytes after the previous one and holds width samples of elemSize bytes, which must be
// 4 (float32) or 8 (float64), encoded in the given byte order. Rows are copied, so the result
// never aliases buf.
func NewDepthImageFromBytes(width, height, stride, elemSize int, order binary.ByteOrder, buf []byte) (*DepthImage, error) {
	size, err := checkedSize(width, height)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NewInvalidArgumentError("no byte order given")
	}
	if elemSize != 4 && elemSize != 8 {
		return nil, NewInvalidArgumentError("unsupported depth element size %d; want 4 or 8", elemSize)
	}
	if width > math.MaxInt/elemSize {
		return nil, NewInvalidArgumentError("row of %d samples of %d bytes is too large", width, elemSize)
	}
	rowBytes := width * elemSize
	if stride < rowBytes {
		return nil, NewInvalidArgumentError("stride %d is shorter than a row of %d bytes", stride, rowBytes)
	}
	if stride%elemSize != 0 {
		return nil, NewInvalidArgumentError("stride %d is not a multiple of element size %d", stride, elemSize)
	}
	if height > 1 && stride > (math.MaxInt-rowBytes)/(height-1) {
		return nil, NewInvalidArgumentError("%d rows of stride %d are too large", height, stride)
	}
	if height > 0 && width > 0 {
		if need := (height-1)*stride + rowBytes; len(buf) < need {
			return nil, NewInvalidArgumentError("buffer holds %d bytes, %dx%d image needs %d", len(buf), width, height, need)
		}
	}

	dm := &DepthImage{width: width, height: height, data: make([]float64, size)}
	for y := 0; y < height && width > 0; y++ {
		row := buf[y*stride : y*stride+rowBytes]
		for x := 0; x < width; x++ {
			sample := row[x*elemSize : (x+1)*elemSize]
			if elemSize == 4 {
				dm.data[y*width+x] = float64(math.Float32frombits(order.Uint32(sample)))
			} else {
				dm.data[y*width+x] = math.Float64frombits(order.Uint64(sample))
			}
		}
	}
	return dm, nil
}

// NewDepthImageFromGray16 converts a 16-bit depth picture, multiplying every raw value by scale.
// A raw value of zero means the sensor had no return and becomes InvalidDepth.
func NewDepthImageFromGray16(img *image.Gray16, scale float64) (*DepthImage, error) {
	if img == nil {
		return nil, NewInvalidArgumentError("input depth picture is nil")
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, NewInvalidArgumentError("invalid depth scale %v", scale)
	}
	bounds := img.Bounds()
	dm := &DepthImage{width: bounds.Dx(), height: bounds.Dy(), data: make([]float64, bounds.Dx()*bounds.Dy())}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			raw := img.Gray16At(x, y).Y
			d := InvalidDepth()
			if raw != 0 {
				d = float64(raw) * scale
			}
			dm.data[(y-bounds.Min.Y)*dm.width+(x-bounds.Min.X)] = d
		}
	}
	return dm, nil
}

// Width returns the number of columns.
func (dm *DepthImage) Width() int {
	return dm.width
}

// Height returns the number of rows.
func (dm *DepthImage) Height() int {
	return dm.height
}

// Len returns width*height.
func (dm *DepthImage) Len() int {
	return len(dm.data)
}

// Bounds returns the pixel rectangle of the image.
func (dm *DepthImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// Contains reports whether p addresses a pixel of the image.
func (dm *DepthImage) Contains(p image.Point) bool {
	return p.X >= 0 && p.X < dm.width && p.Y >= 0 && p.Y < dm.height
}

// Index returns the row-major sample index of p. p is not bounds checked.
func (dm *DepthImage) Index(p image.Point) int {
	return p.Y*dm.width + p.X
}

// Get returns the depth at p.
func (dm *DepthImage) Get(p image.Point) float64 {
	return dm.data[dm.Index(p)]
}

// GetDepth returns the depth at column x, row y.
func (dm *DepthImage) GetDepth(x, y int) float64 {
	return dm.data[y*dm.width+x]
}

// Set stores the depth at column x, row y.
func (dm *DepthImage) Set(x, y int, d float64) {
	dm.data[y*dm.width+x] = d
}

// Fill sets every sample to d.
func (dm *DepthImage) Fill(d float64) {
	for i := range dm.data {
		dm.data[i] = d
	}
}

// Samples returns the row-major backing slice. It is shared with the image.
func (dm *DepthImage) Samples() []float64 {
	return dm.data
}

// Clone returns a deep copy.
func (dm *DepthImage) Clone() *DepthImage {
	data := make([]float64, len(dm.data))
	copy(data, dm.data)
	return &DepthImage{width: dm.width, height: dm.height, data: data}
}

// NumValid returns how many samples hold a measurement.
func (dm *DepthImage) NumValid() int {
	return lo.CountBy(dm.data, IsValidDepth)
}

// Pixels returns every pixel coordinate in row-major order.
func (dm *DepthImage) Pixels() []image.Point {
	width := dm.width
	return lo.Times(len(dm.data), func(i int) image.Point {
		return image.Point{X: i % width, Y: i / width}
	})
}
