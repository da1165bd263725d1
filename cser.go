package pegas

import "math"

// CSERState carries the conic-state-extrapolation working values across
// guidance cycles: the transfer time and universal anomaly of the previous
// converged call, plus the last ψ, c2, c3 iterates used to warm-start the
// next solve.
type CSERState struct {
	Dtcp    float64 // previous converged transfer time, s
	Xcp     float64 // previous converged universal anomaly
	A, D, E float64 // last ψ, c2, c3 iterates
}

// stumpff returns the c2 and c3 functions of ψ.
func stumpff(ψ float64) (c2, c3 float64) {
	switch {
	case ψ > 1e-6:
		sψ := math.Sqrt(ψ)
		ssψ, csψ := math.Sincos(sψ)
		c2 = (1 - csψ) / ψ
		c3 = (sψ - ssψ) / math.Pow(sψ, 3)
	case ψ < -1e-6:
		sψ := math.Sqrt(-ψ)
		c2 = (1 - math.Cosh(sψ)) / ψ
		c3 = (math.Sinh(sψ) - sψ) / math.Pow(sψ, 3)
	default:
		c2 = 1 / 2.
		c3 = 1 / 6.
	}
	return
}

// ConicStateExtrapolation propagates (r0, v0) along its conic for dt seconds
// without thrust, using the universal variable formulation of Vallado's
// Algorithm 8. The cser record warm-starts the Newton iteration from the
// previous guidance cycle.
func ConicStateExtrapolation(ctx *Context, r0, v0 []float64, dt float64, cser CSERState) (r, v []float64, next CSERState) {
	if math.Abs(dt) < 1e-9 {
		r = append([]float64{}, r0...)
		v = append([]float64{}, v0...)
		return r, v, cser
	}
	μ := ctx.Body.GM()
	sμ := math.Sqrt(μ)
	r0m := norm(r0)
	v0m := norm(v0)
	rdotv := dot(r0, v0)
	α := -v0m*v0m/μ + 2/r0m

	// Initial guess: scale the previously converged anomaly by the transfer
	// time ratio, else the standard elliptic/hyperbolic guesses.
	var x float64
	switch {
	case cser.Xcp != 0 && cser.Dtcp != 0:
		x = cser.Xcp * dt / cser.Dtcp
	case α > 1e-6:
		x = sμ * dt * α
	case α < -1e-6:
		a := 1 / α
		x = sign(dt) * math.Sqrt(-a) *
			math.Log(-2*μ*α*dt/(rdotv+sign(dt)*math.Sqrt(-μ*a)*(1-r0m*α)))
	default:
		h := cross(r0, v0)
		p := dot(h, h) / μ
		s := 0.5 * math.Atan(1/(3*math.Sqrt(μ/(p*p*p))*dt))
		w := math.Atan(math.Cbrt(math.Tan(s)))
		x = math.Sqrt(p) * 2 / math.Tan(2*w)
	}

	var ψ, c2, c3, rr float64
	for iter := 0; iter < 35; iter++ {
		ψ = x * x * α
		c2, c3 = stumpff(ψ)
		x2 := x * x
		tn := (x2*x*c3 + rdotv/sμ*x2*c2 + r0m*x*(1-ψ*c3)) / sμ
		rr = x2*c2 + rdotv/sμ*x*(1-ψ*c3) + r0m*(1-ψ*c2)
		diff := dt - tn
		if math.Abs(diff) < 1e-8 {
			break
		}
		x += sμ * diff / rr
	}

	f := 1 - x*x*c2/r0m
	g := dt - x*x*x*c3/sμ
	gdot := 1 - x*x*c2/rr
	fdot := sμ * x * (ψ*c3 - 1) / (rr * r0m)

	r = add(scale(f, r0), scale(g, v0))
	v = add(scale(fdot, r0), scale(gdot, v0))
	next = CSERState{Dtcp: dt, Xcp: x, A: ψ, D: c2, E: c3}
	return
}
