package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// InvalidPoint returns the placeholder stored where a pixel had no depth measurement:
// all three components are NaN, the same sentinel used for depth samples.
func InvalidPoint() r3.Vector {
	nan := math.NaN()
	return r3.Vector{X: nan, Y: nan, Z: nan}
}

// IsValidPoint reports whether p was reprojected from a measured depth. Reprojection copies the
// depth into Z, so a NaN Z marks the placeholder.
func IsValidPoint(p r3.Vector) bool {
	return !math.IsNaN(p.Z)
}

// Vectors is a series of three-dimensional vectors. As a PointCloud it is unorganized:
// it has one row of Len() points with no correspondence to image pixels.
type Vectors []r3.Vector

// Len returns the number of vectors.
func (vs Vectors) Len() int {
	return len(vs)
}

// Swap swaps two vectors positionally.
func (vs Vectors) Swap(i, j int) {
	vs[i], vs[j] = vs[j], vs[i]
}

// Less returns which vector is less than the other based on
// r3.Vector.Cmp.
func (vs Vectors) Less(i, j int) bool {
	cmp := vs[i].Cmp(vs[j])
	if cmp == 0 {
		return false
	}
	return cmp < 0
}

// Size returns the number of points.
func (vs Vectors) Size() int {
	return len(vs)
}

// Width returns the number of points; an unorganized cloud is a single row.
func (vs Vectors) Width() int {
	return len(vs)
}

// Height is always 1.
func (vs Vectors) Height() int {
	return 1
}

// MetaData returns meta data.
func (vs Vectors) MetaData() MetaData {
	meta := NewMetaData()
	for _, p := range vs {
		meta.Merge(p)
	}
	return meta
}

// Iterate calls fn for every point in order.
func (vs Vectors) Iterate(numBatches, myBatch int, fn func(p r3.Vector) bool) {
	iterateSlice(vs, numBatches, myBatch, fn)
}

func iterateSlice(points []r3.Vector, numBatches, myBatch int, fn func(p r3.Vector) bool) {
	for i, p := range points {
		if numBatches > 0 && i%numBatches != myBatch {
			continue
		}
		if !fn(p) {
			return
		}
	}
}
