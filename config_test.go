package pegas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gonum/floats"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenarioGravityTurn(t *testing.T) {
	path := writeScenario(t, `
[vehicle]
name = "booster"
mass = 50000.0
isp_vac = 300.0
isp_sl = 260.0
mass_flow = 250.0
max_burn = 180.0
ground_burn = 2.0
area = 5.0
drag = [[0.0, 0.2], [340.0, 0.8], [1000.0, 0.4]]

[initial]
type = "site"
lon = -80.6
lat = 28.5
alt = 0.0

[control]
law = "gravityTurn"
pitchover_angle = 5.0
pitchover_velocity = 50.0

[simulation]
dt = 0.25
`)
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Vehicle.Name != "booster" || sc.Vehicle.Mass != 50000 || sc.Vehicle.GroundBurn != 2 {
		t.Fatalf("vehicle %+v", sc.Vehicle)
	}
	if len(sc.Vehicle.DragCurve) != 3 || sc.Vehicle.DragCurve[1][1] != 0.8 {
		t.Fatalf("drag curve %v", sc.Vehicle.DragCurve)
	}
	if sc.Initial.Kind != FromSite || !floats.EqualWithinAbs(sc.Initial.LatDeg, 28.5, 1e-12) {
		t.Fatalf("initial %+v", sc.Initial)
	}
	gt, ok := sc.Control.(*GravityTurn)
	if !ok {
		t.Fatalf("control %T", sc.Control)
	}
	if gt.PitchoverAngle != 5 || gt.PitchoverVelocity != 50 {
		t.Fatalf("gravity turn %+v", gt)
	}
	if sc.Dt != 0.25 {
		t.Fatalf("dt %f", sc.Dt)
	}
}

func TestLoadScenarioUPFGState(t *testing.T) {
	path := writeScenario(t, `
[vehicle]
name = "upper"
mass = 20000.0
isp_vac = 340.0
isp_sl = 300.0
mass_flow = 60.0
max_burn = 120.0

[initial]
type = "state"
time = 100.0
r = [6551000.0, 0.0, 0.0]
v = [80.0, 7600.0, 0.0]

[control]
law = "upfg"
target_radius = 6571000.0
target_normal = [0.0, 0.0, -1.0]
target_velocity = 7788.0
target_angle = 0.0
major_cycle = 2.0
`)
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Initial.Kind != FromState || sc.Initial.Time != 100 || sc.Initial.R[0] != 6551000 {
		t.Fatalf("initial %+v", sc.Initial)
	}
	upfg, ok := sc.Control.(*UPFGControl)
	if !ok {
		t.Fatalf("control %T", sc.Control)
	}
	if upfg.Target.Radius != 6571000 || upfg.Target.Normal[2] != -1 || upfg.MajorCycle != 2 {
		t.Fatalf("target %+v", upfg.Target)
	}
	if sc.Dt != 0.1 {
		t.Fatalf("default dt %f", sc.Dt)
	}
}

func TestLoadScenarioRejectsUnknownLaw(t *testing.T) {
	path := writeScenario(t, `
[vehicle]
mass = 1.0

[initial]
type = "site"

[control]
law = "slingshot"
`)
	if _, err := LoadScenario(path); err == nil {
		t.Fatal("unknown control law must fail")
	}
}

func TestLoadScenarioRejectsBadInitial(t *testing.T) {
	path := writeScenario(t, `
[vehicle]
mass = 1.0

[initial]
type = "orbit"

[control]
law = "coast"
length = 60.0
`)
	if _, err := LoadScenario(path); err == nil {
		t.Fatal("invalid initial type must fail")
	}
}
