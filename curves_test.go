package pegas

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestApproxFromCurve(t *testing.T) {
	table := Curve{{0, 1}, {10, 0.5}, {20, 0}}
	cases := []struct{ x, want float64 }{
		{-5, 1},    // clamped low
		{0, 1},     // exact knot
		{5, 0.75},  // interpolated
		{10, 0.5},  // exact knot
		{15, 0.25}, // interpolated
		{25, 0},    // clamped high
	}
	for _, c := range cases {
		if got := ApproxFromCurve(c.x, table); !floats.EqualWithinAbs(got, c.want, 1e-12) {
			t.Fatalf("curve(%f) = %f, want %f", c.x, got, c.want)
		}
	}
	if ApproxFromCurve(1, nil) != 0 {
		t.Fatal("empty curve must return 0")
	}
}

func TestAirDensity(t *testing.T) {
	// Sea level standard: 101325 Pa at 15°C.
	ρ := AirDensity(SeaLevelPressure, 288.15)
	if !floats.EqualWithinAbs(ρ, 1.225, 1e-3) {
		t.Fatalf("sea level density %f", ρ)
	}
	if AirDensity(101325, 0) != 0 {
		t.Fatal("non-physical temperature must not divide by zero")
	}
}

func TestSurfaceSpeed(t *testing.T) {
	ctx := DefaultContext()
	// Equator: the full 2πR/86400.
	r := []float64{ctx.Body.Radius, 0, 0}
	want := 2 * math.Pi * ctx.Body.Radius / 86400
	got := norm(SurfaceSpeedInit(ctx, r))
	if !floats.EqualWithinAbs(got, want, 1e-6) {
		t.Fatalf("equatorial surface speed %f, want %f", got, want)
	}
	// 45° latitude scales with cos(lat).
	lat := 45 * deg2rad
	r45 := []float64{ctx.Body.Radius * math.Cos(lat), 0, ctx.Body.Radius * math.Sin(lat)}
	want45 := want * math.Cos(lat)
	got45 := norm(SurfaceSpeedInit(ctx, r45))
	if !floats.EqualWithinAbs(got45, want45, 1e-6) {
		t.Fatalf("45° surface speed %f, want %f", got45, want45)
	}
	// The rotation velocity runs along the navball east.
	nav := NavballFrame(r, []float64{0, 465, 0})
	vs := SurfaceSpeed(ctx, r, nav)
	if !floats.EqualWithinAbs(dot(unit(vs), nav.East), 1, 1e-12) {
		t.Fatal("surface speed must be along east")
	}
}
