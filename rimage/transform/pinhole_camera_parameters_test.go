package transform

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestNewPinholeCameraIntrinsics(t *testing.T) {
	params, err := NewPinholeCameraIntrinsics(r2.Point{X: 500, Y: 450}, r2.Point{X: 50, Y: 60})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, params.FocalLength(), test.ShouldResemble, r2.Point{X: 500, Y: 450})
	test.That(t, params.PrincipalPoint(), test.ShouldResemble, r2.Point{X: 50, Y: 60})
	test.That(t, params.Width, test.ShouldEqual, 0)

	// negative focal lengths flip an axis and are allowed
	_, err = NewPinholeCameraIntrinsics(r2.Point{X: -500, Y: 500}, r2.Point{})
	test.That(t, err, test.ShouldBeNil)

	for _, tc := range []struct {
		name      string
		focal     r2.Point
		principal r2.Point
	}{
		{"zero fx", r2.Point{X: 0, Y: 500}, r2.Point{}},
		{"zero fy", r2.Point{X: 500, Y: 0}, r2.Point{}},
		{"nan fx", r2.Point{X: math.NaN(), Y: 500}, r2.Point{}},
		{"inf fy", r2.Point{X: 500, Y: math.Inf(1)}, r2.Point{}},
		{"nan ppx", r2.Point{X: 500, Y: 500}, r2.Point{X: math.NaN()}},
		{"inf ppy", r2.Point{X: 500, Y: 500}, r2.Point{Y: math.Inf(-1)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPinholeCameraIntrinsics(tc.focal, tc.principal)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, ErrInvalidIntrinsics), test.ShouldBeTrue)
		})
	}
}

func TestCheckValid(t *testing.T) {
	var params *PinholeCameraIntrinsics
	err := params.CheckValid()
	test.That(t, errors.Is(err, ErrInvalidIntrinsics), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "do not exist")

	params = &PinholeCameraIntrinsics{Width: -1, Height: 10, Fx: 1, Fy: 1}
	test.That(t, params.CheckValid(), test.ShouldNotBeNil)

	params = &PinholeCameraIntrinsics{Width: 640, Height: 480, Fx: 1, Fy: 1}
	test.That(t, params.CheckValid(), test.ShouldBeNil)
}

func TestNewPinholeCameraIntrinsicsFromJSONFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "intrinsics.json")
	test.That(t, os.WriteFile(good, []byte(`{"width_px": 600, "height_px": 600, "fx": 500, "fy": 500, "ppx": 50, "ppy": 50}`), 0o600),
		test.ShouldBeNil)
	params, err := NewPinholeCameraIntrinsicsFromJSONFile(good)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, params, test.ShouldResemble, &PinholeCameraIntrinsics{Width: 600, Height: 600, Fx: 500, Fy: 500, Ppx: 50, Ppy: 50})

	zeroFocal := filepath.Join(dir, "zero.json")
	test.That(t, os.WriteFile(zeroFocal, []byte(`{"fx": 0, "fy": 500}`), 0o600), test.ShouldBeNil)
	_, err = NewPinholeCameraIntrinsicsFromJSONFile(zeroFocal)
	test.That(t, errors.Is(err, ErrInvalidIntrinsics), test.ShouldBeTrue)

	garbled := filepath.Join(dir, "garbled.json")
	test.That(t, os.WriteFile(garbled, []byte(`{"fx": `), 0o600), test.ShouldBeNil)
	_, err = NewPinholeCameraIntrinsicsFromJSONFile(garbled)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "error parsing JSON string")

	_, err = NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "error opening JSON file")
}

func TestPixelToPointRoundTrip(t *testing.T) {
	params := &PinholeCameraIntrinsics{Fx: 500, Fy: 450, Ppx: 320.5, Ppy: 240.25}
	for _, px := range []r2.Point{{X: 0, Y: 0}, {X: 100, Y: 100}, {X: 639, Y: 1}, {X: 320.5, Y: 240.25}} {
		for _, depth := range []float64{0.25, 1, 7.5} {
			x, y, z := params.PixelToPoint(px.X, px.Y, depth)
			test.That(t, z, test.ShouldEqual, depth)
			u, v := params.PointToPixel(x, y, z)
			test.That(t, u, test.ShouldAlmostEqual, px.X, 1e-9)
			test.That(t, v, test.ShouldAlmostEqual, px.Y, 1e-9)
		}
	}
	u, v := params.PointToPixel(1, 1, 0)
	test.That(t, u, test.ShouldEqual, -1.)
	test.That(t, v, test.ShouldEqual, -1.)
}

func TestGetCameraMatrix(t *testing.T) {
	params := &PinholeCameraIntrinsics{Fx: 500, Fy: 450, Ppx: 50, Ppy: 60}
	k := params.GetCameraMatrix()
	test.That(t, k.RawMatrix().Data, test.ShouldResemble, []float64{500, 0, 50, 0, 450, 60, 0, 0, 1})

	var nilParams *PinholeCameraIntrinsics
	test.That(t, nilParams.GetCameraMatrix(), test.ShouldBeNil)
}
