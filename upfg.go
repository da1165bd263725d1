package pegas

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// UPFGTarget is the 3-D terminal state: an orbital plane, a cutoff radius,
// velocity magnitude and flight path angle.
type UPFGTarget struct {
	Radius             float64   // m
	Normal             []float64 // unit normal of the target plane
	Velocity           float64   // m/s
	FlightPathAngleDeg float64
}

// UPFGInternal is the guidance state maintained across calls. It is owned by
// the orchestrator and mutated only between integration steps.
type UPFGInternal struct {
	Cser  CSERState
	Rbias []float64 // position bias from the linear-tangent approximation, m
	Rd    []float64 // desired terminal position, m
	Rgrav []float64 // gravity integral estimate, m
	Time  float64   // time of the last update, s
	Tgo   float64   // predicted time-to-go, s
	Tb    float64   // burn time remaining, s
	V     []float64 // last seen velocity, m/s
	Vgo   []float64 // velocity-to-go, m/s
}

// UPFGGuidance is the per-cycle guidance output.
type UPFGGuidance struct {
	PitchDeg, YawDeg float64
	Tgo              float64
}

// UPFGState is the navigation snapshot handed to one guidance call.
type UPFGState struct {
	Time, Mass float64
	R, V       []float64
}

// UPFGVehicle is the propulsion snapshot handed to one guidance call.
type UPFGVehicle struct {
	Thrust, Isp, Mass float64
}

// UPFGRecord is the per-call debug sample.
type UPFGRecord struct {
	Time, Dt, Tgo, Tb           float64
	L, J, S, Q, P, H            float64
	Phi, Phidot                 float64
	VgoMag, RgoMag, DvsensedMag float64
	RbiasMag, VbiasMag          float64
	Pitch, Yaw                  float64
	CserDtcp, CserXcp           float64
}

// UPFGDebug aggregates the per-cycle internals of a run.
type UPFGDebug struct {
	Time, Dt, Tgo, Tb           []float64
	L, J, S, Q, P, H            []float64
	Phi, Phidot                 []float64
	VgoMag, RgoMag, DvsensedMag []float64
	RbiasMag, VbiasMag          []float64
	Pitch, Yaw                  []float64
	CserDtcp, CserXcp           []float64
}

func (d *UPFGDebug) append(rec UPFGRecord) {
	d.Time = append(d.Time, rec.Time)
	d.Dt = append(d.Dt, rec.Dt)
	d.Tgo = append(d.Tgo, rec.Tgo)
	d.Tb = append(d.Tb, rec.Tb)
	d.L = append(d.L, rec.L)
	d.J = append(d.J, rec.J)
	d.S = append(d.S, rec.S)
	d.Q = append(d.Q, rec.Q)
	d.P = append(d.P, rec.P)
	d.H = append(d.H, rec.H)
	d.Phi = append(d.Phi, rec.Phi)
	d.Phidot = append(d.Phidot, rec.Phidot)
	d.VgoMag = append(d.VgoMag, rec.VgoMag)
	d.RgoMag = append(d.RgoMag, rec.RgoMag)
	d.DvsensedMag = append(d.DvsensedMag, rec.DvsensedMag)
	d.RbiasMag = append(d.RbiasMag, rec.RbiasMag)
	d.VbiasMag = append(d.VbiasMag, rec.VbiasMag)
	d.Pitch = append(d.Pitch, rec.Pitch)
	d.Yaw = append(d.Yaw, rec.Yaw)
	d.CserDtcp = append(d.CserDtcp, rec.CserDtcp)
	d.CserXcp = append(d.CserXcp, rec.CserXcp)
}

// UPFGControl flies closed-loop Unified Powered Flight Guidance (Jaggers
// 1977) toward a full 3-D terminal state.
type UPFGControl struct {
	Target     UPFGTarget
	MajorCycle float64 // s

	internal UPFGInternal
	guid     UPFGGuidance
	lc       float64
	debug    UPFGDebug
}

// Type implements the Steering interface.
func (c *UPFGControl) Type() ControlLaw { return UPFGLaw }

// Reason implements the Steering interface.
func (c *UPFGControl) Reason() string { return "unified powered flight guidance to target plane" }

// setup projects the current state onto the target plane, seeds the internal
// guidance state and iterates the guidance five times as a convergence
// primer before the first integration step.
func (c *UPFGControl) setup(ctx *Context, s *Simulation, st *loopState) error {
	r, v := st.P.R[0], st.P.V[0]
	iy := unit(c.Target.Normal)
	rdInit := sub(r, scale(dot(r, iy), iy))
	ix := unit(rdInit)
	iz := cross(ix, iy)
	rd := scale(c.Target.Radius, unit(add(ix, iz)))

	γ := c.Target.FlightPathAngleDeg * deg2rad
	sγ, cγ := math.Sincos(γ)
	vd := scale(c.Target.Velocity, MxV33(basisColumns(ix, iy, iz), []float64{sγ, 0, cγ}))

	rm := norm(r)
	c.internal = UPFGInternal{
		Rbias: []float64{0, 0, 0},
		Rd:    rd,
		Rgrav: scale(-ctx.Body.GM()/(2*rm*rm*rm), r),
		Time:  st.P.T[0],
		Tb:    st.maxT,
		V:     append([]float64{}, v...),
		Vgo:   sub(vd, v),
	}

	veh := c.vehicleState(ctx, s, st, 0)
	state := UPFGState{Time: st.P.T[0], Mass: st.mass[0], R: r, V: v}
	for k := 0; k < 5; k++ {
		next, guid, rec := UnifiedPoweredFlightGuidance(ctx, veh, c.Target, state, c.internal)
		c.internal = next
		c.guid = guid
		c.debug.append(rec)
	}
	s.logger.Log("level", "info", "subsys", "guidance", "law", "UPFG", "status", "primed",
		"tgo(s)", c.guid.Tgo, "pitch(deg)", c.guid.PitchDeg, "yaw(deg)", c.guid.YawDeg)
	return nil
}

func (c *UPFGControl) commands(ctx *Context, s *Simulation, st *loopState) steerCmd {
	prev := st.i - 1
	if st.P.T[prev]-st.t0 > st.maxT {
		return steerCmd{done: true, eng: EngFuelDepleted}
	}
	if c.guid.Tgo-c.lc < st.dt {
		s.logger.Log("level", "info", "subsys", "guidance", "law", "UPFG", "event", "cutoff", "t(s)", st.P.T[prev])
		return steerCmd{done: true, eng: EngCutoff}
	}
	if st.P.VMag[prev] >= c.Target.Velocity {
		s.logger.Log("level", "warning", "subsys", "guidance", "law", "UPFG", "event", "velocityOvershoot", "t(s)", st.P.T[prev])
		return steerCmd{done: true, eng: EngOvershoot}
	}

	if c.lc >= c.MajorCycle-st.dt {
		veh := c.vehicleState(ctx, s, st, prev)
		state := UPFGState{Time: st.P.T[prev], Mass: st.mass[prev], R: st.P.R[prev], V: st.P.V[prev]}
		next, guid, rec := UnifiedPoweredFlightGuidance(ctx, veh, c.Target, state, c.internal)
		c.debug.append(rec)
		if guid.Tgo < -20 {
			// Degenerate solution: hold the previous commands, keep flying.
			s.logger.Log("level", "warning", "subsys", "guidance", "law", "UPFG", "event", "degenerate", "tgo(s)", guid.Tgo)
		} else {
			c.internal = next
			c.guid = guid
		}
		c.lc = 0
	}
	c.lc += st.dt
	return steerCmd{pitch: c.guid.PitchDeg, yaw: c.guid.YawDeg, powered: true, eng: EngRunning}
}

// vehicleState snapshots the vacuum propulsion state at step i.
func (c *UPFGControl) vehicleState(ctx *Context, s *Simulation, st *loopState, i int) UPFGVehicle {
	return UPFGVehicle{
		Thrust: s.Vehicle.IspVac * ctx.G0 * s.Vehicle.MassFlow,
		Isp:    s.Vehicle.IspVac,
		Mass:   st.mass[i],
	}
}

// basisColumns builds the 3x3 matrix whose columns are the given vectors.
func basisColumns(ix, iy, iz []float64) *mat64.Dense {
	return mat64.NewDense(3, 3, []float64{
		ix[0], iy[0], iz[0],
		ix[1], iy[1], iz[1],
		ix[2], iy[2], iz[2]})
}

// UnifiedPoweredFlightGuidance performs one guidance iteration: thrust
// integrals, steering vector, conic gravity prediction and terminal
// constraint re-projection. Single constant-thrust stage.
func UnifiedPoweredFlightGuidance(ctx *Context, veh UPFGVehicle, tgt UPFGTarget, state UPFGState, prev UPFGInternal) (next UPFGInternal, guid UPFGGuidance, rec UPFGRecord) {
	γ := tgt.FlightPathAngleDeg * deg2rad
	iy := unit(tgt.Normal)
	rdval, vdval := tgt.Radius, tgt.Velocity
	t, m := state.Time, state.Mass
	r, v := state.R, state.V
	rbias, rd, rgrav := prev.Rbias, prev.Rd, prev.Rgrav

	// Block 1: single active stage, constant thrust.
	ve := veh.Isp * ctx.G0
	aT := veh.Thrust / m
	tu := ve / aT

	// Block 2: navigation update.
	dtc := t - prev.Time
	dvsensed := sub(v, prev.V)
	vgo := sub(prev.Vgo, dvsensed)
	tb := prev.Tb - dtc

	// Block 3: time-to-go.
	L1 := norm(vgo)
	tgo := tu * (1 - math.Exp(-L1/ve))

	// Block 4: thrust integrals.
	L := L1
	J := tu*L - ve*tgo
	S := -J + tgo*L
	Q := S*tu - 0.5*ve*tgo*tgo
	P := Q*tu - 0.5*ve*tgo*tgo*(tgo/3)
	H := J*tgo - Q

	// Block 5: linear-tangent steering vector.
	λ := unit(vgo)
	if prev.Tgo > 0 {
		k := tgo / prev.Tgo
		rgrav = scale(k*k, rgrav)
	}
	rgo := sub(rd, add(r, add(scale(tgo, v), rgrav)))
	iz := unit(cross(rd, iy))
	rgoxy := sub(rgo, scale(dot(iz, rgo), iz))
	rgoz := (S - dot(λ, rgoxy)) / dot(λ, iz)
	rgo = add(add(rgoxy, scale(rgoz, iz)), rbias)
	λde := Q - S*J/L
	λdot := scale(1/λde, sub(rgo, scale(S, λ)))
	iF := unit(sub(λ, scale(J/L, λdot)))
	φ := math.Acos(clamp(dot(iF, λ), -1, 1))
	φdot := -φ * L / J
	vthrust := scale(L-0.5*L*φ*φ-J*φ*φdot-0.5*H*φdot*φdot, λ)
	rthrust := scale(S-0.5*S*φ*φ-Q*φ*φdot-0.5*P*φdot*φdot, λ)
	vbias := sub(vgo, vthrust)
	rbias = sub(rgo, rthrust)

	// Block 6: commands against the current navball frame.
	nav := NavballFrame(r, v)
	pitch := math.Acos(clamp(dot(iF, nav.Up), -1, 1)) * rad2deg
	yaw := math.Atan2(dot(iF, nav.North), dot(iF, nav.East)) * rad2deg

	// Block 7: gravity effects by conic extrapolation of the biased state.
	rc1 := sub(r, add(scale(0.1, rthrust), scale(tgo/30, vthrust)))
	vc1 := add(v, sub(scale(1.2/tgo, rthrust), scale(0.1, vthrust)))
	rc2, vc2, cserNext := ConicStateExtrapolation(ctx, rc1, vc1, tgo, prev.Cser)
	vgrav := sub(vc2, vc1)
	rgrav = sub(sub(rc2, rc1), scale(tgo, vc1))

	// Block 8: terminal constraint re-projection.
	rp := add(r, add(scale(tgo, v), add(rgrav, rthrust)))
	rp = sub(rp, scale(dot(rp, iy), iy))
	rd = scale(rdval, unit(rp))
	ix := unit(rd)
	iz = cross(ix, iy)
	sγ, cγ := math.Sincos(γ)
	vd := scale(vdval, MxV33(basisColumns(ix, iy, iz), []float64{sγ, 0, cγ}))
	vgo = add(sub(sub(vd, v), vgrav), vbias)

	next = UPFGInternal{
		Cser:  cserNext,
		Rbias: rbias,
		Rd:    rd,
		Rgrav: rgrav,
		Time:  t,
		Tgo:   tgo,
		Tb:    tb,
		V:     append([]float64{}, v...),
		Vgo:   vgo,
	}
	guid = UPFGGuidance{PitchDeg: pitch, YawDeg: yaw, Tgo: tgo}
	rec = UPFGRecord{
		Time: t, Dt: dtc, Tgo: tgo, Tb: tb,
		L: L, J: J, S: S, Q: Q, P: P, H: H,
		Phi: φ, Phidot: φdot,
		VgoMag: norm(vgo), RgoMag: norm(rgo), DvsensedMag: norm(dvsensed),
		RbiasMag: norm(rbias), VbiasMag: norm(vbias),
		Pitch: pitch, Yaw: yaw,
		CserDtcp: cserNext.Dtcp, CserXcp: cserNext.Xcp,
	}
	return
}
