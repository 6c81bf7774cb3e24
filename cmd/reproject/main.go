// Package main reprojects a depth image into a point cloud with every strategy and reports on the result.
package main

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/reproject/logging"
	"go.viam.com/reproject/pointcloud"
	"go.viam.com/reproject/rimage"
	"go.viam.com/reproject/rimage/transform"
)

var logger = logging.NewLogger("reproject")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Depth         string `flag:"depth,usage=16-bit png or tiff depth image"`
	Intrinsics    string `flag:"intrinsics,usage=camera intrinsics json file"`
	Width         int    `flag:"width,default=600,usage=width of the synthetic image"`
	Height        int    `flag:"height,default=600,usage=height of the synthetic image"`
	UnitsPerMeter int    `flag:"units-per-meter,default=1000,usage=raw depth units in one meter"`
	Row           int    `flag:"row,default=100,usage=row of the point to print"`
	Col           int    `flag:"col,default=100,usage=column of the point to print"`
	Parallel      bool   `flag:"parallel,usage=reproject with all cores"`
	Out           string `flag:"out,usage=write the dense cloud to a .pcd or .las file"`
	Binary        bool   `flag:"binary,usage=write binary instead of ascii pcd"`
	Debug         bool   `flag:"debug"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Debug {
		logger.SetLevel(zapcore.DebugLevel)
	}

	params, err := loadIntrinsics(argsParsed.Intrinsics)
	if err != nil {
		return err
	}
	dm, err := loadDepth(argsParsed)
	if err != nil {
		return err
	}
	pixel := image.Point{X: argsParsed.Col, Y: argsParsed.Row}
	if !dm.Contains(pixel) {
		return errors.Wrapf(transform.ErrOutOfRange, "row %d col %d is outside the %dx%d depth image",
			argsParsed.Row, argsParsed.Col, dm.Width(), dm.Height())
	}
	logger.Infow("depth image", "width", dm.Width(), "height", dm.Height(), "valid", dm.NumValid())

	reprojector, err := transform.NewReprojector(params, argsParsed.Parallel, logger.Sublogger("reprojector"))
	if err != nil {
		return err
	}
	dense, err := reprojector.Dense(ctx, dm)
	if err != nil {
		return err
	}
	incremental, err := transform.ReprojectDenseIncremental(dm, params)
	if err != nil {
		return err
	}
	positional, err := reprojector.Pixels(ctx, []image.Point{pixel}, dm)
	if err != nil {
		return err
	}
	sparse, err := reprojector.Sparse(ctx, dm.Pixels(), dm)
	if err != nil {
		return err
	}

	logPoint(logger, "dense", pixel, dense.At(pixel.X, pixel.Y))
	logPoint(logger, "dense incremental", pixel, incremental.At(pixel.X, pixel.Y))
	logPoint(logger, "sparse", pixel, positional.Index(0))
	logger.Infow("valid points", "dense", dense.NumValid(), "sparse", len(sparse), "total", dense.Size())

	if meta := dense.MetaData(); meta.NumValid > 0 {
		logger.Infow("bounds",
			"min", r3.Vector{X: meta.MinX, Y: meta.MinY, Z: meta.MinZ},
			"max", r3.Vector{X: meta.MaxX, Y: meta.MaxY, Z: meta.MaxZ},
			"center", meta.Center())
		depths := lo.Map(sparse, func(p r3.Vector, _ int) float64 { return p.Z })
		mean, std := stat.MeanStdDev(depths, nil)
		logger.Infow("depth", "mean", mean, "stddev", std)
	}

	if argsParsed.Out == "" {
		return nil
	}
	return writeCloud(dense, argsParsed.Out, argsParsed.Binary)
}

func loadIntrinsics(fn string) (*transform.PinholeCameraIntrinsics, error) {
	if fn == "" {
		return transform.NewPinholeCameraIntrinsics(r2.Point{X: 500, Y: 500}, r2.Point{X: 50, Y: 50})
	}
	return transform.NewPinholeCameraIntrinsicsFromJSONFile(fn)
}

func loadDepth(argsParsed Arguments) (*rimage.DepthImage, error) {
	if argsParsed.Depth != "" {
		if argsParsed.UnitsPerMeter <= 0 {
			return nil, rimage.NewInvalidArgumentError("units-per-meter must be positive, got %d", argsParsed.UnitsPerMeter)
		}
		return rimage.ReadDepthImage(argsParsed.Depth, 1/float64(argsParsed.UnitsPerMeter))
	}
	if argsParsed.Width <= 0 || argsParsed.Height <= 0 {
		return nil, rimage.NewInvalidArgumentError("bad synthetic image size %dx%d", argsParsed.Width, argsParsed.Height)
	}
	dm := rimage.NewEmptyDepthImage(argsParsed.Width, argsParsed.Height)
	dm.Fill(1)
	return dm, nil
}

func logPoint(logger logging.Logger, variant string, pixel image.Point, p r3.Vector) {
	if !pointcloud.IsValidPoint(p) {
		logger.Infow("point", "variant", variant, "row", pixel.Y, "col", pixel.X, "valid", false)
		return
	}
	logger.Infow("point", "variant", variant, "row", pixel.Y, "col", pixel.X, "valid", true,
		"x", p.X, "y", p.Y, "z", p.Z)
}

func writeCloud(cloud *pointcloud.Organized, fn string, binary bool) error {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".las":
		return pointcloud.WriteToLASFile(cloud, fn)
	case ".pcd":
		pcdType := pointcloud.PCDAscii
		if binary {
			pcdType = pointcloud.PCDBinary
		}
		return writePCDFile(cloud, fn, pcdType)
	default:
		return errors.Errorf("do not know how to write a point cloud to %q", fn)
	}
}

func writePCDFile(cloud *pointcloud.Organized, fn string, pcdType pointcloud.PCDType) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return pointcloud.ToPCD(cloud, f, pcdType)
}
