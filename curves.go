package pegas

import "math"

// Curve is a two-column interpolation table sorted by its first column.
// Used for the atmosphere tables, drag coefficient curves and pitch programs.
type Curve [][2]float64

// ApproxFromCurve interpolates the curve at x, clamping to the first and last
// ordinates outside the table range.
func ApproxFromCurve(x float64, table Curve) float64 {
	if len(table) == 0 {
		return 0
	}
	if x <= table[0][0] {
		return table[0][1]
	}
	last := len(table) - 1
	if x >= table[last][0] {
		return table[last][1]
	}
	for i := 1; i <= last; i++ {
		if x <= table[i][0] {
			x0, y0 := table[i-1][0], table[i-1][1]
			x1, y1 := table[i][0], table[i][1]
			return y0 + (y1-y0)*(x-x0)/(x1-x0)
		}
	}
	return table[last][1]
}

// AirDensity returns the ideal-gas air density in kg/m³ from pressure in Pa
// and temperature in K.
func AirDensity(pressure, temperature float64) float64 {
	if temperature <= 0 {
		return 0
	}
	return pressure / (RAir * temperature)
}

// SurfaceSpeed returns the velocity of the body surface under the given ECI
// position, i.e. the rotation speed 2πR·cos(lat)/T along the local east.
func SurfaceSpeed(ctx *Context, r []float64, nav Frame) []float64 {
	rm := norm(r)
	lat := math.Asin(r[2] / rm)
	vel := 2 * math.Pi * ctx.Body.Radius * math.Cos(lat) / ctx.Body.RotationPeriod
	return scale(vel, nav.East)
}

// SurfaceSpeedInit is SurfaceSpeed for a vehicle that has no velocity yet
// (sitting on the pad). A stand-in tangent is built by rotating r 90° CCW
// about the z axis, which collapses at the poles - this helper is only valid
// for non-polar sites.
func SurfaceSpeedInit(ctx *Context, r []float64) []float64 {
	tangent := []float64{-r[1], r[0], r[2]}
	return SurfaceSpeed(ctx, r, NavballFrame(r, tangent))
}
