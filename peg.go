package pegas

import (
	"math"
)

// PEGDebug aggregates the planar guidance coefficients, one sample per step.
type PEGDebug struct {
	T, A, B, C, Tgo []float64
}

// PEGControl flies closed-loop planar Powered Explicit Guidance toward a
// circular orbit at the target altitude. Pitch is commanded from the (A,B,C)
// thrust-direction coefficients; yaw is the fixed 90°−azimuth.
type PEGControl struct {
	TargetAltitude float64 // m above the reference radius
	AzimuthDeg     float64
	MajorCycle     float64 // s between (A,B,T) refinements

	targetRadius float64
	lc           float64 // time since last major cycle
	A, B, C, T   float64
	debug        PEGDebug
}

// Type implements the Steering interface.
func (c *PEGControl) Type() ControlLaw { return PEGLaw }

// Reason implements the Steering interface.
func (c *PEGControl) Reason() string { return "powered explicit guidance to circular orbit" }

func (c *PEGControl) setup(ctx *Context, s *Simulation, st *loopState) error {
	c.targetRadius = ctx.Body.Radius + c.TargetAltitude
	c.A, c.B = 0, 0
	c.T = st.maxT
	c.lc = 0
	acc, ve := c.thrustState(ctx, s, st, 0)
	c.A, c.B, c.C, c.T = PoweredExplicitGuidance(ctx, true,
		st.P.RMag[0], st.P.VT[0], st.P.VY[0], c.targetRadius, acc, ve, c.A, c.B, c.T)
	s.logger.Log("level", "info", "subsys", "guidance", "law", "PEG", "status", "initialized",
		"T(s)", c.T, "A", c.A, "B", c.B)
	return nil
}

func (c *PEGControl) commands(ctx *Context, s *Simulation, st *loopState) steerCmd {
	prev := st.i - 1
	if st.P.T[prev]-st.t0 > st.maxT {
		return steerCmd{done: true, eng: EngFuelDepleted}
	}
	if c.T-c.lc < st.dt {
		s.logger.Log("level", "info", "subsys", "guidance", "law", "PEG", "event", "cutoff", "t(s)", st.P.T[prev])
		return steerCmd{done: true, eng: EngCutoff}
	}

	acc, ve := c.thrustState(ctx, s, st, prev)
	if c.lc >= c.MajorCycle-st.dt {
		c.A, c.B, c.C, c.T = PoweredExplicitGuidance(ctx, true,
			st.P.RMag[prev], st.P.VT[prev], st.P.VY[prev], c.targetRadius, acc, ve, c.A, c.B, c.T-c.lc)
		c.lc = 0
	} else {
		// Minor step: only C is refreshed from the altitude/velocity state.
		r := st.P.RMag[prev]
		c.C = (ctx.Body.GM()/(r*r) - st.P.VT[prev]*st.P.VT[prev]/r) / acc
	}

	pitch := math.Acos(clamp(c.A-c.B*c.lc+c.C, -1, 1)) * rad2deg
	c.lc += st.dt

	c.debug.T = append(c.debug.T, st.P.T[prev])
	c.debug.A = append(c.debug.A, c.A)
	c.debug.B = append(c.debug.B, c.B)
	c.debug.C = append(c.debug.C, c.C)
	c.debug.Tgo = append(c.debug.Tgo, c.T-c.lc)

	return steerCmd{pitch: pitch, yaw: 90 - c.AzimuthDeg, powered: true, eng: EngRunning}
}

// thrustState returns the current thrust acceleration and effective exhaust
// velocity at step i.
func (c *PEGControl) thrustState(ctx *Context, s *Simulation, st *loopState, i int) (acc, ve float64) {
	p := ApproxFromCurve((st.P.RMag[i]-ctx.Body.Radius)/1000, ctx.AtmPressure)
	isp := s.Vehicle.IspVac + (s.Vehicle.IspSL-s.Vehicle.IspVac)*p
	ve = isp * ctx.G0
	acc = ve * s.Vehicle.MassFlow / st.mass[i]
	return
}

// PoweredExplicitGuidance refines the (A, B, T) steering solution so that
// the terminal radius equals the target with zero terminal radial velocity,
// and recomputes the gravity/centrifugal term C from the current state.
// When major is false only T and C are updated; the linear-tangent
// coefficients are kept from the previous major cycle.
func PoweredExplicitGuidance(ctx *Context, major bool, r, vt, vy, target, acc, ve, oldA, oldB, oldT float64) (A, B, C, T float64) {
	μ := ctx.Body.GM()
	tau := ve / acc
	A, B = oldA, oldB
	if A == 0 && B == 0 {
		A, B = pegCoefficients(r, vy, target, ve, tau, oldT)
	}

	// Angular momentum deficit to the circular target.
	angM := r * vt
	tgtV := math.Sqrt(μ / target)
	dMA := target*tgtV - angM

	// Radial thrust-direction component now and at cutoff.
	C = (μ/(r*r) - vt*vt/r) / acc
	fr := A + C
	accT := acc / (1 - oldT/tau)
	CT := (μ/(target*target) - tgtV*tgtV/target) / accT
	frT := A - B*oldT + CT
	frdot := (frT - fr) / oldT

	// Mean circumferential component over the burn.
	ftheta := 1 - fr*fr/2
	fthetadot := -fr * frdot
	fthetadotdot := -frdot * frdot / 2

	avgR := (r + target) / 2
	dv := dMA/avgR + ve*oldT*(fthetadot+fthetadotdot*tau) + fthetadotdot*ve*oldT*oldT/2
	dv /= ftheta + fthetadot*tau + fthetadotdot*tau*tau
	T = tau * (1 - math.Exp(-dv/ve))

	if major && T >= 7.5 {
		// Near cutoff the boundary problem turns singular; fly out the
		// last seconds on the previous coefficients.
		A, B = pegCoefficients(r, vy, target, ve, tau, T)
	}
	return
}

// pegCoefficients solves the 2x2 boundary problem tying the terminal radius
// and zero terminal radial velocity to the linear-tangent constants. The
// radial thrust component decays as fr(τ) = A − B·τ + C over the burn.
func pegCoefficients(r, vy, target, ve, tau, T float64) (A, B float64) {
	b0 := -ve * math.Log(1-T/tau)
	b1 := b0*tau - ve*T
	c0 := b0*T - b1
	c1 := c0*tau - ve*T*T/2
	z0 := -vy
	z1 := target - r - vy*T
	B = -(z1/c0 - z0/b0) / (c1/c0 - b1/b0)
	A = (z0 + b1*B) / b0
	return
}
