package geom

import (
	"math"
	"testing"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func TestOrthonormal(t *testing.T) {
	for _, axis := range []Vec3{{1, 0, 0}, {0, 0, 1}, {0, 0, -3}, {1, 2, 3}, {-0.2, 0.1, 0.97}} {
		u, w := Orthonormal(axis)
		a := axis.Normalize()
		if !near(u.Length(), 1) || !near(w.Length(), 1) {
			t.Errorf("%v: not unit: %v %v", axis, u, w)
		}
		if !near(u.Dot(a), 0) || !near(w.Dot(a), 0) || !near(u.Dot(w), 0) {
			t.Errorf("%v: not orthogonal", axis)
		}
	}
}

func TestDiv(t *testing.T) {
	got := V(2, 4, 6).Div(V(2, 0, 3))
	if got != V(1, 4, 2) {
		t.Errorf("got %v", got)
	}
}

func TestIsFinite(t *testing.T) {
	if !V(1, 2, 3).IsFinite() {
		t.Error("finite vector")
	}
	nan := float32(math.NaN())
	if V(1, nan, 3).IsFinite() {
		t.Error("NaN vector")
	}
}

func TestBounds(t *testing.T) {
	b := EmptyBounds()
	if !b.Empty() || b.Size() != 0 {
		t.Error("empty bounds")
	}
	b.Extend(V(0, 0, 0))
	b.Extend(V(3, 4, 0))
	b.Extend(V(1, 1, 0))
	if b.Size() != 5 {
		t.Errorf("size %v", b.Size())
	}
	if b.Center() != V(1.5, 2, 0) {
		t.Errorf("center %v", b.Center())
	}
}

func TestColour(t *testing.T) {
	c := FromRGBInt(0xff8000cc)
	if c != (Colour{255, 128, 0, 204}) {
		t.Errorf("unpack %+v", c)
	}
	if c.Hex() != "#ff8000" {
		t.Errorf("hex %s", c.Hex())
	}
	if c.WithAlpha(255).Opacity() != 1 {
		t.Error("opacity")
	}
}
