package pegas

import (
	"math"
)

// ControlLaw defines an enum of steering laws.
type ControlLaw uint8

const (
	// GravityTurnLaw is the open-loop vertical rise / pitchover / prograde hold machine.
	GravityTurnLaw ControlLaw = iota + 1
	// PitchProgramLaw follows a (time, pitch) table at fixed azimuth.
	PitchProgramLaw
	// PEGLaw is closed-loop planar Powered Explicit Guidance.
	PEGLaw
	// UPFGLaw is closed-loop 3-D Unified Powered Flight Guidance.
	UPFGLaw
	// CoastLaw is unpowered flight with commands held.
	CoastLaw
)

func (cl ControlLaw) String() string {
	switch cl {
	case GravityTurnLaw:
		return "gravityTurn"
	case PitchProgramLaw:
		return "pitchProgram"
	case PEGLaw:
		return "PEG"
	case UPFGLaw:
		return "UPFG"
	case CoastLaw:
		return "coast"
	}
	panic("cannot stringify unknown control law")
}

// Steering decides the pitch and yaw commands of each step. Guidance laws
// keep their internal state across calls; the orchestrator owns the calls
// and only invokes them between integration steps.
type Steering interface {
	Type() ControlLaw
	Reason() string
	// setup runs once before the main loop (guidance convergence priming).
	setup(ctx *Context, s *Simulation, st *loopState) error
	// commands computes the commands of step i from the state at i-1.
	// done=true terminates the run before integrating step i, with the
	// returned engine flag.
	commands(ctx *Context, s *Simulation, st *loopState) steerCmd
}

// steerCmd is what a steering law hands back to the integrator.
type steerCmd struct {
	pitch, yaw float64
	powered    bool
	done       bool
	eng        EngineFlag
}

// GravityTurn flies vertically until the pitchover velocity is reached,
// ramps the nose over to the pitchover angle, then holds surface prograde.
// Yaw is not commanded in this mode.
//
// The pitchover ramp adds dt degrees per integration step, a nominal 1°/s
// tied to the step size.
type GravityTurn struct {
	PitchoverAngle    float64 // deg
	PitchoverVelocity float64 // m/s

	stage uint8 // 0 vertical, 1 pitching over, 2 prograde hold
}

// Type implements the Steering interface.
func (g *GravityTurn) Type() ControlLaw { return GravityTurnLaw }

// Reason implements the Steering interface.
func (g *GravityTurn) Reason() string {
	return "vertical rise, pitchover, surface prograde hold"
}

func (g *GravityTurn) setup(ctx *Context, s *Simulation, st *loopState) error { return nil }

func (g *GravityTurn) commands(ctx *Context, s *Simulation, st *loopState) steerCmd {
	prev := st.i - 1
	var pitch float64
	switch g.stage {
	case 0:
		pitch = 0
		if dot(st.P.V[prev], st.nav.Up) >= g.PitchoverVelocity {
			g.stage = 1
			s.logger.Log("level", "info", "subsys", "steering", "event", "pitchover", "t(s)", st.P.T[prev])
		}
	case 1:
		pitch = math.Min(st.P.Pitch[prev]+st.dt, g.PitchoverAngle)
		if st.P.AnglePSrf[prev] > g.PitchoverAngle {
			g.stage = 2
			s.logger.Log("level", "info", "subsys", "steering", "event", "progradeHold", "t(s)", st.P.T[prev])
		}
	case 2:
		pitch = st.P.AnglePSrf[prev]
	}
	return steerCmd{pitch: pitch, yaw: 0, powered: true, eng: EngUnguided}
}

// PitchProgram follows a (time since launch, pitch in degrees) table at a
// fixed launch azimuth.
type PitchProgram struct {
	Program    Curve
	AzimuthDeg float64
}

// Type implements the Steering interface.
func (p *PitchProgram) Type() ControlLaw { return PitchProgramLaw }

// Reason implements the Steering interface.
func (p *PitchProgram) Reason() string { return "tabulated pitch program" }

func (p *PitchProgram) setup(ctx *Context, s *Simulation, st *loopState) error { return nil }

func (p *PitchProgram) commands(ctx *Context, s *Simulation, st *loopState) steerCmd {
	t := st.P.T[st.i-1] + st.dt - st.t0
	return steerCmd{
		pitch:   ApproxFromCurve(t, p.Program),
		yaw:     90 - p.AzimuthDeg,
		powered: true,
		eng:     EngUnguided,
	}
}

// Coast is unpowered flight: thrust forced to zero, steering commands held
// at their previous values for the requested duration.
type Coast struct {
	Length float64 // s
}

// Type implements the Steering interface.
func (c *Coast) Type() ControlLaw { return CoastLaw }

// Reason implements the Steering interface.
func (c *Coast) Reason() string { return "unpowered coast" }

func (c *Coast) setup(ctx *Context, s *Simulation, st *loopState) error { return nil }

func (c *Coast) commands(ctx *Context, s *Simulation, st *loopState) steerCmd {
	prev := st.i - 1
	return steerCmd{pitch: st.P.Pitch[prev], yaw: st.P.Yaw[prev], powered: false, eng: EngUnguided}
}
