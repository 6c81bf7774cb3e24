package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Organized is a point cloud laid out like the depth image it came from: the point for
// pixel (x, y) lives at index y*Width() + x.
type Organized struct {
	width  int
	height int

	points []r3.Vector
}

// checkedSize returns width*height, failing when either is negative or the product does not fit in an int.
func checkedSize(width, height int) (int, error) {
	if width < 0 || height < 0 {
		return 0, errors.Errorf("bad width or height for organized cloud %v %v", width, height)
	}
	if width != 0 && height > math.MaxInt/width {
		return 0, errors.Errorf("organized cloud of %dx%d is too large", width, height)
	}
	return width * height, nil
}

// NewOrganized returns a width x height cloud whose every point is InvalidPoint.
// Negative dimensions are treated as zero. It panics if width*height overflows an int.
func NewOrganized(width, height int) *Organized {
	width, height = max(width, 0), max(height, 0)
	size, err := checkedSize(width, height)
	if err != nil {
		panic(err)
	}
	points := make([]r3.Vector, size)
	invalid := InvalidPoint()
	for i := range points {
		points[i] = invalid
	}
	return &Organized{width: width, height: height, points: points}
}

// NewOrganizedFromPoints wraps points as a width x height organized cloud. The slice is not copied.
func NewOrganizedFromPoints(width, height int, points []r3.Vector) (*Organized, error) {
	size, err := checkedSize(width, height)
	if err != nil {
		return nil, err
	}
	if len(points) != size {
		return nil, errors.Errorf("organized cloud of %dx%d needs %d points, got %d",
			width, height, size, len(points))
	}
	return &Organized{width: width, height: height, points: points}, nil
}

// Width returns the number of columns.
func (cloud *Organized) Width() int {
	return cloud.width
}

// Height returns the number of rows.
func (cloud *Organized) Height() int {
	return cloud.height
}

// Size returns width*height.
func (cloud *Organized) Size() int {
	return len(cloud.points)
}

// At returns the point for column x, row y.
func (cloud *Organized) At(x, y int) r3.Vector {
	return cloud.points[y*cloud.width+x]
}

// Set stores the point for column x, row y.
func (cloud *Organized) Set(x, y int, p r3.Vector) {
	cloud.points[y*cloud.width+x] = p
}

// Index returns the point at row-major index i.
func (cloud *Organized) Index(i int) r3.Vector {
	return cloud.points[i]
}

// SetIndex stores the point at row-major index i.
func (cloud *Organized) SetIndex(i int, p r3.Vector) {
	cloud.points[i] = p
}

// Points returns the row-major backing slice. It is shared with the cloud.
func (cloud *Organized) Points() []r3.Vector {
	return cloud.points
}

// NumValid returns how many points are not placeholders.
func (cloud *Organized) NumValid() int {
	return lo.CountBy(cloud.points, IsValidPoint)
}

// IsDense reports whether the cloud holds no placeholders.
func (cloud *Organized) IsDense() bool {
	return lo.EveryBy(cloud.points, IsValidPoint)
}

// Compact returns the valid points in row-major order.
func (cloud *Organized) Compact() Vectors {
	valid := lo.Filter(cloud.points, func(p r3.Vector, _ int) bool {
		return IsValidPoint(p)
	})
	return Vectors(valid[:len(valid):len(valid)])
}

// MetaData returns meta data.
func (cloud *Organized) MetaData() MetaData {
	meta := NewMetaData()
	for _, p := range cloud.points {
		meta.Merge(p)
	}
	return meta
}

// Iterate calls fn for every point in row-major order, placeholders included.
func (cloud *Organized) Iterate(numBatches, myBatch int, fn func(p r3.Vector) bool) {
	iterateSlice(cloud.points, numBatches, myBatch, fn)
}
