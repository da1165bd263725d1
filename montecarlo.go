package pegas

import (
	"fmt"
	"math/rand"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat"
	"github.com/gonum/stat/distmv"
)

// Dispersion holds the 1-sigma dispersions applied to the vehicle in a
// Monte Carlo campaign. The three axes are sampled jointly from a diagonal
// multivariate normal.
type Dispersion struct {
	Mass     float64 // kg
	MassFlow float64 // kg/s
	Isp      float64 // s, applied to both impulses
}

// MCSummary is the insertion statistics of a campaign.
type MCSummary struct {
	Runs     int
	Cutoffs  int // runs that reached a guidance scheduled cutoff
	ApMean   float64
	ApStdDev float64
	PeMean   float64
	PeStdDev float64
}

// MonteCarlo runs dispersed copies of the same scenario. NewControl must
// return a fresh steering law per run because guidance laws carry state.
type MonteCarlo struct {
	Vehicle    Vehicle
	Initial    Initial
	NewControl func() Steering
	Dt         float64

	logger kitlog.Logger
}

// NewMonteCarlo returns a dispersion campaign over the given scenario.
func NewMonteCarlo(v Vehicle, initial Initial, newControl func() Steering, dt float64, logger kitlog.Logger) *MonteCarlo {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &MonteCarlo{Vehicle: v, Initial: initial, NewControl: newControl, Dt: dt, logger: logger}
}

// Run executes n dispersed simulations and summarizes the insertions.
func (mc *MonteCarlo) Run(ctx *Context, n int, disp Dispersion, seed *rand.Rand) (MCSummary, error) {
	cov := mat64.NewSymDense(3, []float64{
		disp.Mass * disp.Mass, 0, 0,
		0, disp.MassFlow * disp.MassFlow, 0,
		0, 0, disp.Isp * disp.Isp})
	dist, ok := distmv.NewNormal([]float64{0, 0, 0}, cov, seed)
	if !ok {
		return MCSummary{}, fmt.Errorf("singular dispersion covariance")
	}

	aps := make([]float64, 0, n)
	pes := make([]float64, 0, n)
	cutoffs := 0
	for i := 0; i < n; i++ {
		δ := dist.Rand(nil)
		v := mc.Vehicle
		v.Mass += δ[0]
		v.MassFlow += δ[1]
		v.IspVac += δ[2]
		v.IspSL += δ[2]
		sim, err := NewSimulation(ctx, v, mc.Initial, mc.NewControl(), mc.Dt, kitlog.NewNopLogger())
		if err != nil {
			return MCSummary{}, fmt.Errorf("run %d: %s", i, err)
		}
		res, err := sim.Propagate()
		if err != nil {
			return MCSummary{}, fmt.Errorf("run %d: %s", i, err)
		}
		if res.ENG == EngCutoff {
			cutoffs++
		}
		aps = append(aps, res.Apoapsis)
		pes = append(pes, res.Periapsis)
		mc.logger.Log("level", "debug", "subsys", "mc", "run", i, "eng", res.ENG,
			"ap(km)", res.Apoapsis, "pe(km)", res.Periapsis)
	}

	summary := MCSummary{
		Runs:     n,
		Cutoffs:  cutoffs,
		ApMean:   stat.Mean(aps, nil),
		ApStdDev: stat.StdDev(aps, nil),
		PeMean:   stat.Mean(pes, nil),
		PeStdDev: stat.StdDev(pes, nil),
	}
	mc.logger.Log("level", "notice", "subsys", "mc", "status", "finished", "runs", n,
		"cutoffs", cutoffs, "ap(km)", summary.ApMean, "±", summary.ApStdDev,
		"pe(km)", summary.PeMean, "±", summary.PeStdDev)
	return summary, nil
}
