package pegas

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFlightGauges(t *testing.T) {
	ctx := DefaultContext()
	reg := prometheus.NewRegistry()
	g := NewFlightGauges(reg)
	hook := g.Hook(ctx)

	p := newPlots(2)
	p.RMag[1] = ctx.Body.Radius + 1500
	p.VMag[1] = 42
	p.A[1] = 12.5
	p.Q[1] = 3200
	p.F[1] = 640e3
	p.Pitch[1] = 10
	p.Yaw[1] = -2
	hook(1, p, 999)

	if v := testutil.ToFloat64(g.altitude); v != 1500 {
		t.Fatalf("altitude gauge %f", v)
	}
	if v := testutil.ToFloat64(g.velocity); v != 42 {
		t.Fatalf("velocity gauge %f", v)
	}
	if v := testutil.ToFloat64(g.mass); v != 999 {
		t.Fatalf("mass gauge %f", v)
	}
	if v := testutil.ToFloat64(g.yaw); v != -2 {
		t.Fatalf("yaw gauge %f", v)
	}
}

func TestFlightGaugesRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewFlightGauges(reg)
	defer func() {
		if recover() == nil {
			t.Fatal("double registration must panic")
		}
	}()
	NewFlightGauges(reg)
}
