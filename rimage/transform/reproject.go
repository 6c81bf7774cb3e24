// Package transform reprojects depth images into 3D point clouds with a pinhole camera model.
//
// Every traversal, serial or parallel, dense or sparse, computes each point with ReprojectPixel,
// so all of them produce identical numbers for the same input.
//
// Two output shapes exist. Organized clouds are position preserving: the dense variants mirror
// the image (index y*width + x) and the sparse variants mirror the pixel list (index i holds
// pixels[i]), with InvalidPoint wherever the depth sample was invalid. Compacted clouds
// (ReprojectSparse, or Compact on any organized cloud) keep only valid points in traversal order.
package transform

import (
	"context"
	"image"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/reproject/pointcloud"
	"go.viam.com/reproject/rimage"
	"go.viam.com/reproject/utils"
)

// ErrOutOfRange is returned when a pixel coordinate does not address the depth image.
var ErrOutOfRange = errors.New("pixel out of range")

// ReprojectPixel maps a pixel and its depth to a 3D point in the camera frame:
// x = depth*(col-ppx)/fx, y = depth*(row-ppy)/fy, z = depth.
// An invalid depth produces InvalidPoint. Nothing is checked.
func ReprojectPixel(pixel image.Point, depth float64, params *PinholeCameraIntrinsics) r3.Vector {
	x, y, z := params.PixelToPoint(float64(pixel.X), float64(pixel.Y), depth)
	return r3.Vector{X: x, Y: y, Z: z}
}

// ReprojectDense reprojects every pixel of the image into an organized cloud of the same size.
// The cloud is filled with invalid points first and only valid samples are written.
func ReprojectDense(dm *rimage.DepthImage, params *PinholeCameraIntrinsics) (*pointcloud.Organized, error) {
	if err := checkImage(dm, params); err != nil {
		return nil, err
	}
	cloud := pointcloud.NewOrganized(dm.Width(), dm.Height())
	reprojectIndices(cloud, dm, params, 0, dm.Len())
	return cloud, nil
}

// ReprojectDenseIncremental is ReprojectDense built by appending one point per pixel in
// row-major order, invalid samples included. It relies on that order and has no parallel form.
func ReprojectDenseIncremental(dm *rimage.DepthImage, params *PinholeCameraIntrinsics) (*pointcloud.Organized, error) {
	if err := checkImage(dm, params); err != nil {
		return nil, err
	}
	points := make([]r3.Vector, 0, dm.Len())
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			z := dm.GetDepth(x, y)
			if !rimage.IsValidDepth(z) {
				points = append(points, pointcloud.InvalidPoint())
				continue
			}
			points = append(points, ReprojectPixel(image.Point{X: x, Y: y}, z, params))
		}
	}
	return pointcloud.NewOrganizedFromPoints(dm.Width(), dm.Height(), points)
}

// ReprojectDenseParallel is ReprojectDense with the row-major index range split across
// utils.GroupWorkParallel. Each worker writes only the indices of its own range.
func ReprojectDenseParallel(
	ctx context.Context,
	dm *rimage.DepthImage,
	params *PinholeCameraIntrinsics,
) (*pointcloud.Organized, error) {
	if err := checkImage(dm, params); err != nil {
		return nil, err
	}
	cloud := pointcloud.NewOrganized(dm.Width(), dm.Height())
	if err := utils.GroupWorkParallel(ctx, dm.Len(), nil,
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			reprojectIndices(cloud, dm, params, from, to)
			return nil, nil
		},
	); err != nil {
		return nil, err
	}
	return cloud, nil
}

// ReprojectPixels reprojects the listed pixels into a 1-row organized cloud of len(pixels)
// points, where point i corresponds to pixels[i]. Every pixel is bounds checked before any work.
func ReprojectPixels(pixels []image.Point, dm *rimage.DepthImage, params *PinholeCameraIntrinsics) (*pointcloud.Organized, error) {
	if err := checkPixels(pixels, dm, params); err != nil {
		return nil, err
	}
	cloud := pointcloud.NewOrganized(len(pixels), 1)
	for i := range pixels {
		reprojectListed(cloud, pixels, dm, params, i)
	}
	return cloud, nil
}

// ReprojectSparse reprojects the listed pixels in order and keeps only those with a valid
// depth, so the result holds at most len(pixels) points. It equals ReprojectPixels followed by Compact.
func ReprojectSparse(pixels []image.Point, dm *rimage.DepthImage, params *PinholeCameraIntrinsics) (pointcloud.Vectors, error) {
	cloud, err := ReprojectPixels(pixels, dm, params)
	if err != nil {
		return nil, err
	}
	return cloud.Compact(), nil
}

// ReprojectSparseParallel is ReprojectPixels with the list positions split across
// utils.GroupWorkParallel. The output is pre-sized to len(pixels) and is not compacted.
func ReprojectSparseParallel(
	ctx context.Context,
	pixels []image.Point,
	dm *rimage.DepthImage,
	params *PinholeCameraIntrinsics,
) (*pointcloud.Organized, error) {
	if err := checkPixels(pixels, dm, params); err != nil {
		return nil, err
	}
	cloud := pointcloud.NewOrganized(len(pixels), 1)
	if err := utils.GroupWorkParallel(ctx, len(pixels), nil,
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				reprojectListed(cloud, pixels, dm, params, workNum)
			}, nil
		},
	); err != nil {
		return nil, err
	}
	return cloud, nil
}

// reprojectIndices writes the points for row-major indices [from, to). Invalid samples keep
// the placeholder the cloud was created with.
func reprojectIndices(cloud *pointcloud.Organized, dm *rimage.DepthImage, params *PinholeCameraIntrinsics, from, to int) {
	width := dm.Width()
	samples := dm.Samples()
	for i := from; i < to; i++ {
		z := samples[i]
		if !rimage.IsValidDepth(z) {
			continue
		}
		cloud.SetIndex(i, ReprojectPixel(image.Point{X: i % width, Y: i / width}, z, params))
	}
}

func reprojectListed(cloud *pointcloud.Organized, pixels []image.Point, dm *rimage.DepthImage, params *PinholeCameraIntrinsics, i int) {
	z := dm.Get(pixels[i])
	if !rimage.IsValidDepth(z) {
		return
	}
	cloud.SetIndex(i, ReprojectPixel(pixels[i], z, params))
}

func checkImage(dm *rimage.DepthImage, params *PinholeCameraIntrinsics) error {
	if err := params.CheckValid(); err != nil {
		return err
	}
	if dm == nil {
		return rimage.NewInvalidArgumentError("input depth image is nil")
	}
	if params.Width != 0 && params.Height != 0 && (params.Width != dm.Width() || params.Height != dm.Height()) {
		return rimage.NewInvalidArgumentError("depth image dimension and intrinsics don't match Image(%d,%d) != Intrinsics(%d,%d)",
			dm.Width(), dm.Height(), params.Width, params.Height)
	}
	return nil
}

func checkPixels(pixels []image.Point, dm *rimage.DepthImage, params *PinholeCameraIntrinsics) error {
	if err := checkImage(dm, params); err != nil {
		return err
	}
	for i, p := range pixels {
		if !dm.Contains(p) {
			return errors.Wrapf(ErrOutOfRange, "pixel %d at (x=%d, y=%d) is outside the %dx%d depth image",
				i, p.X, p.Y, dm.Width(), dm.Height())
		}
	}
	return nil
}
