package pointcloud

import (
	"math"
	"sort"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestInvalidPoint(t *testing.T) {
	p := InvalidPoint()
	test.That(t, math.IsNaN(p.X), test.ShouldBeTrue)
	test.That(t, math.IsNaN(p.Y), test.ShouldBeTrue)
	test.That(t, math.IsNaN(p.Z), test.ShouldBeTrue)
	test.That(t, IsValidPoint(p), test.ShouldBeFalse)
	test.That(t, IsValidPoint(NewVector(0, 0, 0)), test.ShouldBeTrue)
}

func TestOrganized(t *testing.T) {
	cloud := NewOrganized(3, 2)
	test.That(t, cloud.Width(), test.ShouldEqual, 3)
	test.That(t, cloud.Height(), test.ShouldEqual, 2)
	test.That(t, cloud.Size(), test.ShouldEqual, 6)
	test.That(t, cloud.NumValid(), test.ShouldEqual, 0)
	test.That(t, cloud.IsDense(), test.ShouldBeFalse)
	test.That(t, cloud.Compact(), test.ShouldBeEmpty)

	cloud.Set(2, 0, NewVector(1, 2, 3))
	cloud.SetIndex(3, NewVector(-1, -2, 4))
	test.That(t, cloud.Index(2), test.ShouldResemble, NewVector(1, 2, 3))
	test.That(t, cloud.At(0, 1), test.ShouldResemble, NewVector(-1, -2, 4))
	test.That(t, cloud.NumValid(), test.ShouldEqual, 2)

	compact := cloud.Compact()
	test.That(t, compact, test.ShouldResemble, Vectors{NewVector(1, 2, 3), NewVector(-1, -2, 4)})
	test.That(t, cap(compact), test.ShouldEqual, 2)

	meta := cloud.MetaData()
	test.That(t, meta.NumValid, test.ShouldEqual, 2)
	test.That(t, meta.NumInvalid, test.ShouldEqual, 4)
	test.That(t, meta.IsDense(), test.ShouldBeFalse)
	test.That(t, meta.MinX, test.ShouldEqual, -1.)
	test.That(t, meta.MaxY, test.ShouldEqual, 2.)
	test.That(t, meta.MinZ, test.ShouldEqual, 3.)
	test.That(t, meta.Center(), test.ShouldResemble, NewVector(0, 0, 3.5))

	empty := NewOrganized(-2, 5)
	test.That(t, empty.Size(), test.ShouldEqual, 0)
	test.That(t, empty.IsDense(), test.ShouldBeTrue)
}

func TestNewOrganizedFromPoints(t *testing.T) {
	points := []r3.Vector{NewVector(1, 1, 1), NewVector(2, 2, 2)}
	cloud, err := NewOrganizedFromPoints(2, 1, points)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.IsDense(), test.ShouldBeTrue)
	test.That(t, cloud.Points(), test.ShouldResemble, points)

	_, err = NewOrganizedFromPoints(3, 1, points)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewOrganizedFromPoints(-1, -2, points)
	test.That(t, err, test.ShouldNotBeNil)

	// width*height wraps around to a small number
	_, err = NewOrganizedFromPoints(math.MaxInt/2, 3, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "too large")
	_, err = NewOrganizedFromPoints(math.MaxInt, math.MaxInt, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, func() { NewOrganized(3, math.MaxInt/2) }, test.ShouldPanic)
}

func TestIterate(t *testing.T) {
	cloud := NewOrganized(5, 1)
	for i := 0; i < cloud.Size(); i++ {
		cloud.SetIndex(i, NewVector(float64(i), 0, 1))
	}

	var all []float64
	cloud.Iterate(0, 0, func(p r3.Vector) bool {
		all = append(all, p.X)
		return true
	})
	test.That(t, all, test.ShouldResemble, []float64{0, 1, 2, 3, 4})

	var batch []float64
	cloud.Iterate(2, 1, func(p r3.Vector) bool {
		batch = append(batch, p.X)
		return true
	})
	test.That(t, batch, test.ShouldResemble, []float64{1, 3})

	var stopped []float64
	Vectors(cloud.Points()).Iterate(0, 0, func(p r3.Vector) bool {
		stopped = append(stopped, p.X)
		return p.X < 2
	})
	test.That(t, stopped, test.ShouldResemble, []float64{0, 1, 2})
}

func TestVectors(t *testing.T) {
	vs := Vectors{NewVector(3, 0, 1), NewVector(1, 0, 2), InvalidPoint()}
	test.That(t, vs.Size(), test.ShouldEqual, 3)
	test.That(t, vs.Width(), test.ShouldEqual, 3)
	test.That(t, vs.Height(), test.ShouldEqual, 1)

	meta := vs.MetaData()
	test.That(t, meta.NumValid, test.ShouldEqual, 2)
	test.That(t, meta.NumInvalid, test.ShouldEqual, 1)
	test.That(t, meta.MaxX, test.ShouldEqual, 3.)

	sorted := vs[:2]
	sort.Sort(sorted)
	test.That(t, sorted[0], test.ShouldResemble, NewVector(1, 0, 2))
}
