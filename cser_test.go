package pegas

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestConicStateExtrapolationCircular(t *testing.T) {
	ctx := DefaultContext()
	rm := 7000e3
	vc := math.Sqrt(ctx.Body.GM() / rm)
	r0 := []float64{rm, 0, 0}
	v0 := []float64{0, vc, 0}
	period := 2 * math.Pi * math.Sqrt(rm*rm*rm/ctx.Body.GM())

	// Quarter period lands 90° ahead on the same circle.
	r, v, cser := ConicStateExtrapolation(ctx, r0, v0, period/4, CSERState{})
	if !floats.EqualWithinAbs(r[0], 0, 1) || !floats.EqualWithinAbs(r[1], rm, 1) {
		t.Fatalf("quarter period position %v", r)
	}
	if !floats.EqualWithinAbs(norm(v), vc, 1e-6) {
		t.Fatalf("quarter period speed %f", norm(v))
	}
	if cser.Dtcp != period/4 {
		t.Fatal("cser must remember the converged transfer time")
	}

	// Full period returns to the start.
	r, v, _ = ConicStateExtrapolation(ctx, r0, v0, period, CSERState{})
	if !floats.EqualWithinAbs(norm(sub(r, r0)), 0, 10) {
		t.Fatalf("full period miss %f m", norm(sub(r, r0)))
	}
	if !floats.EqualWithinAbs(norm(sub(v, v0)), 0, 1e-2) {
		t.Fatalf("full period velocity miss %f", norm(sub(v, v0)))
	}
}

func TestConicStateExtrapolationWarmStart(t *testing.T) {
	ctx := DefaultContext()
	r0 := []float64{6571e3, 100e3, -50e3}
	v0 := []float64{-100, 7650, 300}

	rCold, vCold, cser := ConicStateExtrapolation(ctx, r0, v0, 120, CSERState{})
	rWarm, vWarm, _ := ConicStateExtrapolation(ctx, r0, v0, 120, cser)
	if !floats.EqualWithinAbs(norm(sub(rCold, rWarm)), 0, 1e-3) {
		t.Fatal("warm start must converge to the cold start solution")
	}
	if !floats.EqualWithinAbs(norm(sub(vCold, vWarm)), 0, 1e-6) {
		t.Fatal("warm start velocity mismatch")
	}
}

func TestConicStateExtrapolationEnergy(t *testing.T) {
	ctx := DefaultContext()
	μ := ctx.Body.GM()
	r0 := []float64{6700e3, 0, 0}
	v0 := []float64{500, 7900, 0} // slightly eccentric
	ε0 := dot(v0, v0)/2 - μ/norm(r0)
	cser := CSERState{}
	r, v := r0, v0
	for i := 0; i < 10; i++ {
		r, v, cser = ConicStateExtrapolation(ctx, r, v, 60, cser)
		ε := dot(v, v)/2 - μ/norm(r)
		if !floats.EqualWithinAbs(ε/ε0, 1, 1e-9) {
			t.Fatalf("energy drift at leg %d: %g vs %g", i, ε, ε0)
		}
	}
}

func TestStumpff(t *testing.T) {
	c2, c3 := stumpff(0)
	if c2 != 0.5 || !floats.EqualWithinAbs(c3, 1/6., 1e-12) {
		t.Fatal("stumpff at 0")
	}
	// ψ = (π)²: c2 = (1-cos π)/ψ = 2/π².
	c2, c3 = stumpff(math.Pi * math.Pi)
	if !floats.EqualWithinAbs(c2, 2/(math.Pi*math.Pi), 1e-12) {
		t.Fatalf("c2(π²) = %f", c2)
	}
	if !floats.EqualWithinAbs(c3, math.Pi/(math.Pi*math.Pi*math.Pi), 1e-12) {
		t.Fatalf("c3(π²) = %f", c3)
	}
}
