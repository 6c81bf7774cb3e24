// Package pointcloud defines the outputs of depth reprojection.
//
// An Organized cloud keeps one point per source pixel in the image's row-major layout, with
// InvalidPoint placeholders for pixels that had no depth. Vectors is the compacted,
// unorganized form holding only valid points.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// PointCloud is a general purpose container of points, organized or not.
type PointCloud interface {
	// Size returns the number of points in the cloud, placeholders included.
	Size() int

	// Width and Height describe the layout; an unorganized cloud has Height 1.
	Width() int
	Height() int

	// MetaData returns meta data
	MetaData() MetaData

	// Iterate iterates over all points in the cloud and calls the given
	// function for each point. If the supplied function returns false,
	// iteration will stop after the function returns.
	// numBatches lets you divide up he work. 0 means don't divide
	// myBatch is used iff numBatches > 0 and is which batch you want
	Iterate(numBatches, myBatch int, fn func(p r3.Vector) bool)
}

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	NumValid   int
	NumInvalid int

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData creates a new MetaData with empty bounds.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the counts and, for valid points, the bounds.
func (meta *MetaData) Merge(v r3.Vector) {
	if !IsValidPoint(v) {
		meta.NumInvalid++
		return
	}
	meta.NumValid++

	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
}

// IsDense reports whether every point is valid, in the PCL sense of "dense".
func (meta *MetaData) IsDense() bool {
	return meta.NumInvalid == 0
}

// Center returns the center of the bounding box of the valid points.
func (meta *MetaData) Center() r3.Vector {
	return r3.Vector{
		X: (meta.MaxX + meta.MinX) / 2,
		Y: (meta.MaxY + meta.MinY) / 2,
		Z: (meta.MaxZ + meta.MinZ) / 2,
	}
}
