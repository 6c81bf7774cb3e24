package transform

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/reproject/logging"
)

func TestReprojector(t *testing.T) {
	_, err := NewReprojector(&PinholeCameraIntrinsics{Fy: 1}, false, nil)
	test.That(t, errors.Is(err, ErrInvalidIntrinsics), test.ShouldBeTrue)

	dm := makeDepthImage(t, 12, 9, 5)
	params := testIntrinsics()
	want, err := ReprojectDense(dm, params)
	test.That(t, err, test.ShouldBeNil)

	for _, parallel := range []bool{false, true} {
		logger, logs := logging.NewObservedTestLogger(t)
		r, err := NewReprojector(params, parallel, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, r.Intrinsics(), test.ShouldEqual, params)

		dense, err := r.Dense(context.Background(), dm)
		test.That(t, err, test.ShouldBeNil)
		equalPoints(t, dense.Points(), want.Points())

		positional, err := r.Pixels(context.Background(), dm.Pixels(), dm)
		test.That(t, err, test.ShouldBeNil)
		equalPoints(t, positional.Points(), want.Points())

		sparse, err := r.Sparse(context.Background(), dm.Pixels(), dm)
		test.That(t, err, test.ShouldBeNil)
		equalPoints(t, sparse, want.Compact())

		test.That(t, logs.FilterMessage("dense reprojection").Len(), test.ShouldEqual, 1)
		test.That(t, logs.FilterMessage("sparse reprojection").Len(), test.ShouldEqual, 2)
		entry := logs.FilterMessage("dense reprojection").All()[0]
		test.That(t, entry.ContextMap()["parallel"], test.ShouldEqual, parallel)
		test.That(t, entry.ContextMap()["valid"], test.ShouldEqual, int64(dm.NumValid()))

		_, err = r.Dense(context.Background(), nil)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, logs.FilterMessage("dense reprojection").Len(), test.ShouldEqual, 1)
	}
}
