package transform

import (
	"context"
	"image"
	"time"

	"go.viam.com/reproject/logging"
	"go.viam.com/reproject/pointcloud"
	"go.viam.com/reproject/rimage"
)

// Reprojector reprojects images taken by one camera, choosing between the serial and parallel
// strategies and logging how long each call took.
type Reprojector struct {
	params   *PinholeCameraIntrinsics
	parallel bool
	logger   logging.Logger
}

// NewReprojector validates the intrinsics and returns a Reprojector for them.
func NewReprojector(params *PinholeCameraIntrinsics, parallel bool, logger logging.Logger) (*Reprojector, error) {
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewBlankLogger("reprojector")
	}
	return &Reprojector{params: params, parallel: parallel, logger: logger}, nil
}

// Intrinsics returns the intrinsics the Reprojector was made with.
func (r *Reprojector) Intrinsics() *PinholeCameraIntrinsics {
	return r.params
}

// Dense reprojects every pixel of the image into an organized cloud.
func (r *Reprojector) Dense(ctx context.Context, dm *rimage.DepthImage) (*pointcloud.Organized, error) {
	start := time.Now()
	var cloud *pointcloud.Organized
	var err error
	if r.parallel {
		cloud, err = ReprojectDenseParallel(ctx, dm, r.params)
	} else {
		cloud, err = ReprojectDense(dm, r.params)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debugw("dense reprojection",
		"width", cloud.Width(), "height", cloud.Height(), "valid", cloud.NumValid(),
		"parallel", r.parallel, "took", time.Since(start))
	return cloud, nil
}

// Pixels reprojects the listed pixels into a position preserving cloud of len(pixels) points.
func (r *Reprojector) Pixels(ctx context.Context, pixels []image.Point, dm *rimage.DepthImage) (*pointcloud.Organized, error) {
	start := time.Now()
	var cloud *pointcloud.Organized
	var err error
	if r.parallel {
		cloud, err = ReprojectSparseParallel(ctx, pixels, dm, r.params)
	} else {
		cloud, err = ReprojectPixels(pixels, dm, r.params)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debugw("sparse reprojection",
		"pixels", len(pixels), "valid", cloud.NumValid(),
		"parallel", r.parallel, "took", time.Since(start))
	return cloud, nil
}

// Sparse reprojects the listed pixels and keeps only the valid points, in list order.
func (r *Reprojector) Sparse(ctx context.Context, pixels []image.Point, dm *rimage.DepthImage) (pointcloud.Vectors, error) {
	cloud, err := r.Pixels(ctx, pixels, dm)
	if err != nil {
		return nil, err
	}
	return cloud.Compact(), nil
}
