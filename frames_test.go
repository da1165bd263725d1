package pegas

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

// checkOrthonormal asserts the frame invariant: unit rows, pairwise
// orthogonal, within 1e-9.
func checkOrthonormal(t *testing.T, f Frame, name string) {
	t.Helper()
	rows := [][]float64{f.Up, f.North, f.East}
	for i, row := range rows {
		if !floats.EqualWithinAbs(norm(row), 1, 1e-9) {
			t.Fatalf("%s: row %d norm %f != 1", name, i, norm(row))
		}
		for i := range row {
			if math.IsNaN(row[i]) {
				t.Fatalf("%s: NaN in frame", name)
			}
		}
	}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if !floats.EqualWithinAbs(dot(rows[i], rows[j]), 0, 1e-9) {
				t.Fatalf("%s: rows %d and %d not orthogonal", name, i, j)
			}
		}
	}
}

func TestNavballFrameEquatorial(t *testing.T) {
	r := []float64{6371000, 0, 0}
	v := []float64{0, 465, 0} // eastward
	nav := NavballFrame(r, v)
	checkOrthonormal(t, nav, "nav")
	if !vectorsEqual(nav.Up, []float64{1, 0, 0}) {
		t.Fatal("up must be radial")
	}
	if !floats.EqualWithinAbs(nav.East[1], 1, 1e-12) {
		t.Fatal("east must be +y for an eastward equatorial state")
	}
	if !floats.EqualWithinAbs(nav.North[2], 1, 1e-12) {
		t.Fatal("north must be +z for an eastward equatorial state")
	}
}

func TestCircumFrame(t *testing.T) {
	r := []float64{7000e3, 0, 0}
	v := []float64{0, 7500, 0}
	rnc := CircumFrame(r, v)
	checkOrthonormal(t, rnc, "rnc")
	if !floats.EqualWithinAbs(rnc.Circum()[1], 1, 1e-12) {
		t.Fatal("circum must be prograde")
	}
	if !floats.EqualWithinAbs(rnc.Normal()[2], 1, 1e-12) {
		t.Fatal("normal must be along the angular momentum")
	}
}

func TestNavballFramePolarDegenerate(t *testing.T) {
	// At the pole with no horizontal velocity the pseudo-north plane
	// degenerates; the tie-break axis must still produce a clean basis.
	r := []float64{0, 0, 6371000}
	v := []float64{0, 0, 10}
	nav := NavballFrame(r, v)
	checkOrthonormal(t, nav, "polar nav")
}

func TestMakeVector(t *testing.T) {
	nav := NavballFrame([]float64{6371000, 0, 0}, []float64{0, 465, 0})
	// Pitch 0 is straight up regardless of yaw.
	if !vectorsEqual(MakeVector(nav, 0, 0), nav.Up) {
		t.Fatal("pitch 0 must point up")
	}
	// Pitch 90, yaw 0 is due east.
	east := MakeVector(nav, 90, 0)
	if !floats.EqualWithinAbs(dot(east, nav.East), 1, 1e-12) {
		t.Fatal("pitch 90 yaw 0 must point east")
	}
	// Pitch 90, yaw 90 is due north.
	north := MakeVector(nav, 90, 90)
	if !floats.EqualWithinAbs(dot(north, nav.North), 1, 1e-12) {
		t.Fatal("pitch 90 yaw 90 must point north")
	}
	if !floats.EqualWithinAbs(norm(MakeVector(nav, 37.5, 12.25)), 1, 1e-12) {
		t.Fatal("thrust direction must be unit")
	}
}

func TestFrameRotation(t *testing.T) {
	// For an eastward equatorial state the circumferential direction and
	// the navball east coincide.
	r := []float64{6371000, 0, 0}
	v := []float64{0, 7500, 0}
	rot := FrameRotation(CircumFrame(r, v), NavballFrame(r, v))
	if !floats.EqualWithinAbs(rot, 1, 1e-12) {
		t.Fatalf("equatorial frame rotation %f != 1", rot)
	}
	// For an inclined state it is the cosine of the track angle.
	v = []float64{0, 5000, 5000}
	rot = FrameRotation(CircumFrame(r, v), NavballFrame(r, v))
	if !floats.EqualWithinAbs(rot, math.Sqrt(2)/2, 1e-9) {
		t.Fatalf("45° track frame rotation %f", rot)
	}
}
