package pegas

import (
	"fmt"

	"github.com/spf13/viper"
)

// Scenario is a fully loaded run definition.
type Scenario struct {
	Vehicle Vehicle
	Initial Initial
	Control Steering
	Dt      float64
}

// LoadScenario reads a TOML scenario file defining the vehicle, the initial
// conditions and the control law.
func LoadScenario(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%s: %s", path, err)
	}

	sc := &Scenario{}
	sc.Vehicle = Vehicle{
		Name:       v.GetString("vehicle.name"),
		Mass:       v.GetFloat64("vehicle.mass"),
		IspVac:     v.GetFloat64("vehicle.isp_vac"),
		IspSL:      v.GetFloat64("vehicle.isp_sl"),
		MassFlow:   v.GetFloat64("vehicle.mass_flow"),
		MaxBurn:    v.GetFloat64("vehicle.max_burn"),
		GroundBurn: v.GetFloat64("vehicle.ground_burn"),
		Area:       v.GetFloat64("vehicle.area"),
	}
	var err error
	if sc.Vehicle.DragCurve, err = curveFromConfig(v.Get("vehicle.drag")); err != nil {
		return nil, fmt.Errorf("vehicle.drag: %s", err)
	}

	switch kind := v.GetString("initial.type"); kind {
	case "site":
		sc.Initial = NewLaunchSite(v.GetFloat64("initial.lon"), v.GetFloat64("initial.lat"), v.GetFloat64("initial.alt"))
	case "state":
		r, errR := floatsFromConfig(v.Get("initial.r"))
		vel, errV := floatsFromConfig(v.Get("initial.v"))
		if errR != nil || len(r) != 3 {
			return nil, fmt.Errorf("initial.r must be a 3-vector")
		}
		if errV != nil || len(vel) != 3 {
			return nil, fmt.Errorf("initial.v must be a 3-vector")
		}
		sc.Initial = NewStateVector(v.GetFloat64("initial.time"), r, vel)
	default:
		return nil, fmt.Errorf("invalid initial conditions type %q", kind)
	}

	switch law := v.GetString("control.law"); law {
	case "gravityTurn":
		sc.Control = &GravityTurn{
			PitchoverAngle:    v.GetFloat64("control.pitchover_angle"),
			PitchoverVelocity: v.GetFloat64("control.pitchover_velocity"),
		}
	case "pitchProgram":
		program, err := curveFromConfig(v.Get("control.program"))
		if err != nil {
			return nil, fmt.Errorf("control.program: %s", err)
		}
		sc.Control = &PitchProgram{Program: program, AzimuthDeg: v.GetFloat64("control.azimuth")}
	case "peg":
		sc.Control = &PEGControl{
			TargetAltitude: v.GetFloat64("control.target_altitude"),
			AzimuthDeg:     v.GetFloat64("control.azimuth"),
			MajorCycle:     v.GetFloat64("control.major_cycle"),
		}
	case "upfg":
		normal, err := floatsFromConfig(v.Get("control.target_normal"))
		if err != nil || len(normal) != 3 {
			return nil, fmt.Errorf("control.target_normal must be a 3-vector")
		}
		sc.Control = &UPFGControl{
			Target: UPFGTarget{
				Radius:             v.GetFloat64("control.target_radius"),
				Normal:             normal,
				Velocity:           v.GetFloat64("control.target_velocity"),
				FlightPathAngleDeg: v.GetFloat64("control.target_angle"),
			},
			MajorCycle: v.GetFloat64("control.major_cycle"),
		}
	case "coast":
		sc.Control = &Coast{Length: v.GetFloat64("control.length")}
	default:
		return nil, fmt.Errorf("unknown control law %q", law)
	}

	sc.Dt = v.GetFloat64("simulation.dt")
	if sc.Dt == 0 {
		sc.Dt = 0.1
	}
	return sc, nil
}

// curveFromConfig converts a TOML array of pairs into a Curve.
func curveFromConfig(raw interface{}) (Curve, error) {
	if raw == nil {
		return nil, nil
	}
	rows, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an array of [x, y] pairs")
	}
	curve := make(Curve, 0, len(rows))
	for _, row := range rows {
		pair, err := floatsFromConfig(row)
		if err != nil || len(pair) != 2 {
			return nil, fmt.Errorf("expected an array of [x, y] pairs")
		}
		curve = append(curve, [2]float64{pair[0], pair[1]})
	}
	return curve, nil
}

// floatsFromConfig converts a TOML array into a float slice.
func floatsFromConfig(raw interface{}) ([]float64, error) {
	vals, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a numeric array")
	}
	out := make([]float64, len(vals))
	for i, val := range vals {
		switch x := val.(type) {
		case float64:
			out[i] = x
		case int64:
			out[i] = float64(x)
		case int:
			out[i] = float64(x)
		default:
			return nil, fmt.Errorf("expected a numeric array")
		}
	}
	return out, nil
}
