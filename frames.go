package pegas

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// Frame is an orthonormal local basis rebuilt from (r, v) each
// step. Rows are ordered (up, north, east) for the navball frame and
// (radial, normal, circumferential) for the circumferential frame; the
// RNC accessors alias the same rows.
type Frame struct {
	Up, North, East []float64
}

// Radial aliases the first row for the circumferential frame.
func (f Frame) Radial() []float64 { return f.Up }

// Normal aliases the second row for the circumferential frame.
func (f Frame) Normal() []float64 { return f.North }

// Circum aliases the third row for the circumferential frame.
func (f Frame) Circum() []float64 { return f.East }

// M returns the frame as a 3x3 row matrix.
func (f Frame) M() *mat64.Dense {
	return mat64.NewDense(3, 3, []float64{
		f.Up[0], f.Up[1], f.Up[2],
		f.North[0], f.North[1], f.North[2],
		f.East[0], f.East[1], f.East[2]})
}

// NavballFrame builds the local (up, north, east) basis from an ECI state.
// Pseudo-north is the normal of the plane spanned by the horizontal
// projections of r and v; when that plane degenerates (polar launch with no
// horizontal velocity) the ECI +x axis is substituted as tie-break.
func NavballFrame(r, v []float64) Frame {
	up := unit(r)
	rxy := []float64{r[0], r[1], 0}
	vxy := []float64{v[0], v[1], 0}
	pseudoNorth := cross(rxy, vxy)
	if norm(pseudoNorth) < 1e-12 {
		pseudoNorth = []float64{1, 0, 0}
	}
	pseudoNorth = unit(pseudoNorth)
	horiz := unit(rxy)
	if norm(rxy) < 1e-12 {
		horiz = up
	}
	east := unit(cross(pseudoNorth, horiz))
	north := cross(up, east)
	return Frame{up, north, east}
}

// CircumFrame builds the local (radial, normal, circumferential) basis from
// an ECI state. Normal is perpendicular to the instantaneous orbital plane.
func CircumFrame(r, v []float64) Frame {
	radial := unit(r)
	normal := cross(r, v)
	if norm(normal) < 1e-12 {
		// r and v are colinear; any horizontal axis completes the basis.
		normal = cross(r, []float64{1, 0, 0})
		if norm(normal) < 1e-12 {
			normal = cross(r, []float64{0, 1, 0})
		}
	}
	normal = unit(normal)
	circum := cross(normal, radial)
	return Frame{radial, normal, circum}
}

// MakeVector constructs a unit thrust direction from pitch and yaw commands
// in degrees. Pitch is measured from the first row (up/radial, 0 = straight
// up), yaw from the third (east/circum, 0 = due east, 90 = due north).
func MakeVector(f Frame, pitchDeg, yawDeg float64) []float64 {
	sp, cp := math.Sincos(pitchDeg * deg2rad)
	sy, cy := math.Sincos(yawDeg * deg2rad)
	out := make([]float64, 3)
	for i := 0; i < 3; i++ {
		out[i] = cp*f.Up[i] + sp*sy*f.North[i] + sp*cy*f.East[i]
	}
	return out
}

// FrameRotation returns the cosine of the angle between the circumferential
// direction of the RNC frame and the navball east, which is the scalar used
// to rotate guidance outputs between the two frames.
func FrameRotation(rnc, nav Frame) float64 {
	return dot(rnc.Circum(), nav.East)
}
