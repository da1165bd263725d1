package pegas

import (
	"fmt"
	"math"
	"sync"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/floats"
)

/* Handles the 3-DoF ascent propagation. */

// Vehicle defines the point-mass vehicle parameters, immutable during a run.
type Vehicle struct {
	Name       string
	Mass       float64 // m0, kg
	IspVac     float64 // vacuum specific impulse, s
	IspSL      float64 // sea-level specific impulse, s
	MassFlow   float64 // dm, kg/s
	MaxBurn    float64 // mt, s
	GroundBurn float64 // et, pre-release burn, s
	Area       float64 // reference area, m²
	DragCurve  Curve   // airspeed m/s → Cd
}

// InitialKind selects between a launch site and an in-flight state vector.
type InitialKind uint8

const (
	// FromSite starts on the pad at a geodetic site, t=0.
	FromSite InitialKind = iota
	// FromState starts from an in-flight (t, r, v) ECI state.
	FromState
)

// Initial defines the initial conditions of a run.
type Initial struct {
	Kind           InitialKind
	LonDeg, LatDeg float64 // site longitude/latitude, deg
	Altitude       float64 // site altitude above the reference radius, m
	Time           float64 // s
	R, V           []float64
}

// NewLaunchSite returns pad initial conditions at the given site.
func NewLaunchSite(lonDeg, latDeg, altitude float64) Initial {
	return Initial{Kind: FromSite, LonDeg: lonDeg, LatDeg: latDeg, Altitude: altitude}
}

// NewStateVector returns in-flight initial conditions from an ECI state.
func NewStateVector(t float64, r, v []float64) Initial {
	return Initial{Kind: FromState, Time: t, R: r, V: v}
}

// EngineFlag encodes how the engine run ended.
type EngineFlag int8

const (
	// EngUnguided means no cutoff logic was armed (open-loop modes).
	EngUnguided EngineFlag = -1
	// EngFuelDepleted is normal termination on fuel exhaustion.
	EngFuelDepleted EngineFlag = 0
	// EngRunning means the engine is still burning.
	EngRunning EngineFlag = 1
	// EngCutoff is a guidance scheduled cutoff.
	EngCutoff EngineFlag = 2
	// EngOvershoot is a velocity overshoot cutoff.
	EngOvershoot EngineFlag = 3
)

func (e EngineFlag) String() string {
	switch e {
	case EngUnguided:
		return "unguided"
	case EngFuelDepleted:
		return "fuelDepleted"
	case EngRunning:
		return "running"
	case EngCutoff:
		return "scheduledCutoff"
	case EngOvershoot:
		return "velocityOvershoot"
	}
	panic("cannot stringify unknown engine flag")
}

// Plots holds the parallel time series of a run, truncated to the actual
// step count on return.
type Plots struct {
	T         []float64
	R         [][]float64
	RMag      []float64
	V         [][]float64
	VY, VT    []float64
	VMag      []float64
	F, A, Q   []float64
	Pitch     []float64
	Yaw       []float64
	AnglePSrf []float64
	AngleYSrf []float64
	AnglePObt []float64
	AngleYObt []float64
}

func newPlots(n int) *Plots {
	p := &Plots{
		T: make([]float64, n), RMag: make([]float64, n),
		VY: make([]float64, n), VT: make([]float64, n), VMag: make([]float64, n),
		F: make([]float64, n), A: make([]float64, n), Q: make([]float64, n),
		Pitch: make([]float64, n), Yaw: make([]float64, n),
		AnglePSrf: make([]float64, n), AngleYSrf: make([]float64, n),
		AnglePObt: make([]float64, n), AngleYObt: make([]float64, n),
	}
	p.R = make([][]float64, n)
	p.V = make([][]float64, n)
	for i := 0; i < n; i++ {
		p.R[i] = make([]float64, 3)
		p.V[i] = make([]float64, 3)
	}
	return p
}

func (p *Plots) truncate(k int) {
	p.T = p.T[:k]
	p.R = p.R[:k]
	p.RMag = p.RMag[:k]
	p.V = p.V[:k]
	p.VY = p.VY[:k]
	p.VT = p.VT[:k]
	p.VMag = p.VMag[:k]
	p.F = p.F[:k]
	p.A = p.A[:k]
	p.Q = p.Q[:k]
	p.Pitch = p.Pitch[:k]
	p.Yaw = p.Yaw[:k]
	p.AnglePSrf = p.AnglePSrf[:k]
	p.AngleYSrf = p.AngleYSrf[:k]
	p.AnglePObt = p.AnglePObt[:k]
	p.AngleYObt = p.AngleYObt[:k]
}

// Results is the outcome of a run: terminal scalars, classical elements,
// loss accounting and the full time series.
type Results struct {
	AltitudeKm   float64
	Apoapsis     float64 // km
	Periapsis    float64 // km
	Velocity     float64
	VelocityY    float64
	VelocityT    float64
	MaxQv        float64 // Pa
	MaxQt        float64 // s
	LostGravity  float64 // m/s
	LostDrag     float64 // m/s
	LostTotal    float64 // m/s
	BurnTimeLeft float64 // s
	ENG          EngineFlag
	Orbit        OrbitalElements
	Plots        *Plots
	DebugPEG     *PEGDebug
	DebugUPFG    *UPFGDebug
}

// StepHook observes each completed step; used to feed telemetry gauges.
type StepHook func(i int, p *Plots, mass float64)

// loopState is the working state the integrator and the steering laws share.
// Owned by Propagate; steering laws are only called between steps.
type loopState struct {
	i        int     // step being computed
	t0       float64 // launch time
	maxT     float64 // burn time remaining after the pre-release burn
	dt       float64
	P        *Plots
	mass     []float64
	nav, rnc Frame     // frames at step i-1
	vair     []float64 // airspeed vector at step i-1
	vairMag  float64   // ≥ 1 m/s by the zero-airspeed guard
	gloss    float64
	dloss    float64
	eng      EngineFlag
}

// Simulation wires a vehicle, initial conditions and a steering law to the
// fixed-step integrator.
type Simulation struct {
	ctx     *Context
	Vehicle Vehicle
	Initial Initial
	Control Steering
	dt      float64
	Hook    StepHook
	logger  kitlog.Logger

	histChan chan (TrajPoint)
	wg       sync.WaitGroup
}

// NewSimulation validates the inputs and returns a ready-to-run simulation.
// A nil logger silences the run.
func NewSimulation(ctx *Context, v Vehicle, initial Initial, control Steering, dt float64, logger kitlog.Logger) (*Simulation, error) {
	if ctx == nil {
		return nil, fmt.Errorf("nil context")
	}
	if initial.Kind != FromSite && initial.Kind != FromState {
		return nil, fmt.Errorf("invalid initial conditions type %d", initial.Kind)
	}
	if initial.Kind == FromState && (len(initial.R) != 3 || len(initial.V) != 3) {
		return nil, fmt.Errorf("state vector initial conditions need 3x1 r and v")
	}
	if dt <= 0 {
		return nil, fmt.Errorf("non-positive time step %f", dt)
	}
	if control == nil {
		return nil, fmt.Errorf("nil steering law")
	}
	if _, isCoast := control.(*Coast); !isCoast && v.MassFlow <= 0 {
		return nil, fmt.Errorf("powered run with mass flow %f", v.MassFlow)
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Simulation{ctx: ctx, Vehicle: v, Initial: initial, Control: control, dt: dt, logger: logger}, nil
}

// StreamTo exports every computed step as CSV to the given config. Must be
// called before Propagate.
func (s *Simulation) StreamTo(conf ExportConfig) {
	if conf.IsUseless() {
		return
	}
	s.histChan = make(chan (TrajPoint), 1000) // a 1k entry buffer
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		StreamTrajectory(conf, s.histChan)
	}()
}

// Propagate runs the simulation until fuel exhaustion, guidance cutoff or
// the end of the allocated window, and assembles the results.
func (s *Simulation) Propagate() (Results, error) {
	ctx := s.ctx
	body := ctx.Body

	maxT := s.Vehicle.MaxBurn - s.Vehicle.GroundBurn
	window := maxT
	if c, isCoast := s.Control.(*Coast); isCoast {
		window = c.Length
	}
	if window <= 0 {
		return Results{}, fmt.Errorf("empty simulation window")
	}
	n := int(math.Floor(window/s.dt)) + 1

	st := &loopState{
		t0:   s.Initial.Time,
		maxT: maxT,
		dt:   s.dt,
		P:    newPlots(n),
		mass: make([]float64, n),
		eng:  EngRunning,
	}

	// Step 1: initial conditions.
	switch s.Initial.Kind {
	case FromSite:
		lon := s.Initial.LonDeg * deg2rad
		lat := s.Initial.LatDeg * deg2rad
		rm := body.Radius + s.Initial.Altitude
		r := []float64{rm * math.Cos(lat) * math.Cos(lon), rm * math.Cos(lat) * math.Sin(lon), rm * math.Sin(lat)}
		copy(st.P.R[0], r)
		copy(st.P.V[0], SurfaceSpeedInit(ctx, r))
		st.t0 = 0
	case FromState:
		copy(st.P.R[0], s.Initial.R)
		copy(st.P.V[0], s.Initial.V)
		st.P.T[0] = s.Initial.Time
	}
	// The pre-release ground burn is applied once at initialization.
	st.mass[0] = s.Vehicle.Mass - s.Vehicle.GroundBurn*s.Vehicle.MassFlow
	st.P.T[0] = st.t0
	st.P.RMag[0] = norm(st.P.R[0])
	st.P.VMag[0] = norm(st.P.V[0])
	s.rebuildFrames(st, 0)
	s.derivedAngles(st, 0)

	if err := s.Control.setup(ctx, s, st); err != nil {
		if s.histChan != nil {
			close(s.histChan)
			s.wg.Wait()
		}
		return Results{}, err
	}

	s.logger.Log("level", "info", "subsys", "ascent", "status", "start",
		"law", s.Control.Type(), "m(kg)", st.mass[0], "alt(km)", (st.P.RMag[0]-body.Radius)/1000, "dt(s)", s.dt)

	if s.histChan != nil {
		s.histChan <- trajPoint(st, 0)
	}

	// Main loop writes steps 1..n-1; on early termination at step k the
	// series are truncated to the last completed step k-1.
	k := n
	for i := 1; i < n; i++ {
		st.i = i
		cmd := s.Control.commands(ctx, s, st)
		if cmd.done {
			st.eng = cmd.eng
			k = i
			break
		}
		st.eng = cmd.eng
		s.step(st, cmd)
		if s.Hook != nil {
			s.Hook(i, st.P, st.mass[i])
		}
		if s.histChan != nil {
			s.histChan <- trajPoint(st, i)
		}
	}
	if s.histChan != nil {
		close(s.histChan)
	}

	st.P.truncate(k)
	res := s.assemble(st, k-1)
	s.wg.Wait() // Don't return until the trajectory file is written out.
	s.logger.Log("level", "notice", "subsys", "ascent", "status", "finished",
		"eng", res.ENG, "alt(km)", res.AltitudeKm, "ap(km)", res.Apoapsis, "pe(km)", res.Periapsis,
		"lostGravity(m/s)", res.LostGravity, "lostDrag(m/s)", res.LostDrag)
	return res, nil
}

// step advances mass, position and velocity by one fixed Euler step with a
// semi-implicit position update (the new position uses the new velocity).
func (s *Simulation) step(st *loopState, cmd steerCmd) {
	ctx := s.ctx
	body := ctx.Body
	i, prev := st.i, st.i-1
	P := st.P

	P.Pitch[i] = cmd.pitch
	P.Yaw[i] = cmd.yaw

	// Atmosphere at the previous altitude.
	altKm := (P.RMag[prev] - body.Radius) / 1000
	p := ApproxFromCurve(altKm, ctx.AtmPressure)

	// Thrust. The bundled pressure table stores 1.0 at sea level, so the
	// blend yields the sea-level impulse there and the vacuum one above.
	var F, a float64
	acv := []float64{0, 0, 0}
	if cmd.powered {
		isp := s.Vehicle.IspVac + (s.Vehicle.IspSL-s.Vehicle.IspVac)*p
		F = isp * ctx.G0 * s.Vehicle.MassFlow
		a = F / st.mass[prev]
		acv = scale(a, MakeVector(st.nav, cmd.pitch, cmd.yaw))
	}
	P.F[i] = F
	P.A[i] = a

	// Gravity.
	rm3 := P.RMag[prev] * P.RMag[prev] * P.RMag[prev]
	G := scale(body.GM()/rm3, P.R[prev])
	st.gloss += norm(G) * st.dt

	// Drag against the surface-relative airspeed.
	cd := ApproxFromCurve(st.vairMag, s.Vehicle.DragCurve)
	tK := ApproxFromCurve(altKm, ctx.AtmTemperature) + 273.15
	ρ := AirDensity(p*SeaLevelPressure, tK)
	q := 0.5 * ρ * st.vairMag * st.vairMag
	P.Q[i] = q
	D := s.Vehicle.Area * cd * q / st.mass[prev]
	st.dloss += D * st.dt

	// Velocity, then semi-implicit position.
	v := add(P.V[prev], scale(st.dt, sub(acv, G)))
	v = sub(v, scale(D*st.dt, unit(st.vair)))
	copy(P.V[i], v)
	copy(P.R[i], add(P.R[prev], scale(st.dt, v)))
	P.RMag[i] = norm(P.R[i])
	P.VMag[i] = norm(v)

	s.rebuildFrames(st, i)
	s.derivedAngles(st, i)

	if cmd.powered {
		st.mass[i] = st.mass[prev] - s.Vehicle.MassFlow*st.dt
	} else {
		st.mass[i] = st.mass[prev]
	}
	P.T[i] = P.T[prev] + st.dt
}

// rebuildFrames refreshes both local frames and the guarded airspeed vector
// from the state at step i.
func (s *Simulation) rebuildFrames(st *loopState, i int) {
	st.nav = NavballFrame(st.P.R[i], st.P.V[i])
	st.rnc = CircumFrame(st.P.R[i], st.P.V[i])
	st.vair = sub(st.P.V[i], SurfaceSpeed(s.ctx, st.P.R[i], st.nav))
	st.vairMag = math.Max(norm(st.vair), 1)
}

// derivedAngles stores the surface-relative and orbital flight path angles
// of the commanded axes at step i.
func (s *Simulation) derivedAngles(st *loopState, i int) {
	P := st.P
	uAir := unit(st.vair)
	uV := unit(P.V[i])
	P.AnglePSrf[i] = math.Acos(clamp(dot(uAir, st.nav.Up), -1, 1)) * rad2deg
	P.AngleYSrf[i] = math.Acos(clamp(dot(uAir, st.nav.East), -1, 1)) * rad2deg
	P.AnglePObt[i] = math.Acos(clamp(dot(uV, st.nav.Up), -1, 1)) * rad2deg
	P.AngleYObt[i] = math.Acos(clamp(dot(uV, st.nav.East), -1, 1)) * rad2deg
	P.VY[i] = dot(P.V[i], st.rnc.Radial())
	P.VT[i] = dot(P.V[i], st.rnc.Circum())
}

// assemble builds the results record from the last completed step.
func (s *Simulation) assemble(st *loopState, last int) Results {
	P := st.P
	qIdx, qMax := getMaxValue(P.Q)
	res := Results{
		AltitudeKm:   (P.RMag[last] - s.ctx.Body.Radius) / 1000,
		Velocity:     P.VMag[last],
		VelocityY:    P.VY[last],
		VelocityT:    P.VT[last],
		MaxQv:        qMax,
		MaxQt:        P.T[qIdx],
		LostGravity:  st.gloss,
		LostDrag:     st.dloss,
		LostTotal:    st.gloss + st.dloss,
		BurnTimeLeft: st.maxT - (P.T[last] - st.t0),
		ENG:          st.eng,
		Orbit:        GetOrbitalElements(s.ctx, P.R[last], P.V[last]),
		Plots:        P,
	}
	res.Apoapsis = res.Orbit.AP
	res.Periapsis = res.Orbit.PE
	switch c := s.Control.(type) {
	case *PEGControl:
		res.DebugPEG = &c.debug
	case *UPFGControl:
		res.DebugUPFG = &c.debug
	}
	return res
}

// getMaxValue returns the index and value of the series maximum.
func getMaxValue(series []float64) (int, float64) {
	if len(series) == 0 {
		return 0, 0
	}
	idx := floats.MaxIdx(series)
	return idx, series[idx]
}
