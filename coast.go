package pegas

import (
	"math"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
)

// FreeFlight propagates an unpowered two-body state with a fixed-step RK4.
// Used after a scheduled cutoff to verify that the achieved orbit closes on
// itself, independently of the Euler ascent integrator.
type FreeFlight struct {
	ctx      *Context
	R, V     []float64
	duration float64
	step     float64
}

// NewFreeFlight returns a free-flight propagation of the given ECI state.
func NewFreeFlight(ctx *Context, r, v []float64, duration, step float64) *FreeFlight {
	return &FreeFlight{
		ctx:      ctx,
		R:        append([]float64{}, r...),
		V:        append([]float64{}, v...),
		duration: duration,
		step:     step,
	}
}

// Propagate runs the RK4 propagation to completion and returns the final
// position and velocity.
func (ff *FreeFlight) Propagate() ([]float64, []float64) {
	ode.NewRK4(0, ff.step, ff).Solve() // Blocking.
	return ff.R, ff.V
}

// GetState implements the ode.Integrable interface.
func (ff *FreeFlight) GetState() []float64 {
	return []float64{ff.R[0], ff.R[1], ff.R[2], ff.V[0], ff.V[1], ff.V[2]}
}

// SetState implements the ode.Integrable interface.
func (ff *FreeFlight) SetState(t float64, s []float64) {
	ff.R = []float64{s[0], s[1], s[2]}
	ff.V = []float64{s[3], s[4], s[5]}
}

// Stop implements the ode.Integrable interface.
func (ff *FreeFlight) Stop(t float64) bool {
	return t >= ff.duration
}

// Func implements the ode.Integrable interface with two-body dynamics.
func (ff *FreeFlight) Func(t float64, s []float64) []float64 {
	r := []float64{s[0], s[1], s[2]}
	rm := norm(r)
	k := -ff.ctx.Body.GM() / (rm * rm * rm)
	return []float64{s[3], s[4], s[5], k * s[0], k * s[1], k * s[2]}
}

// VerifyOrbitClosure propagates the terminal state for one orbital period
// and logs how far it returns from where it started. Only meaningful for a
// closed (elliptic) terminal orbit.
func VerifyOrbitClosure(ctx *Context, r, v []float64, logger kitlog.Logger) float64 {
	oe := GetOrbitalElements(ctx, r, v)
	if oe.SMA <= 0 || oe.ECC >= 1 {
		logger.Log("level", "warning", "subsys", "ascent", "status", "openOrbit", "ecc", oe.ECC)
		return math.NaN()
	}
	period := 2 * math.Pi * math.Sqrt(math.Pow(oe.SMA, 3)/ctx.Body.GM())
	ff := NewFreeFlight(ctx, r, v, period, 1)
	rf, _ := ff.Propagate()
	miss := norm(sub(rf, r))
	logger.Log("level", "info", "subsys", "ascent", "status", "closureCheck",
		"period(s)", period, "miss(m)", miss)
	return miss
}
