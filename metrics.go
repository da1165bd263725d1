package pegas

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FlightGauges exposes the live flight state of a run as Prometheus gauges.
type FlightGauges struct {
	altitude     prometheus.Gauge
	velocity     prometheus.Gauge
	acceleration prometheus.Gauge
	mass         prometheus.Gauge
	dynPressure  prometheus.Gauge
	thrust       prometheus.Gauge
	pitch        prometheus.Gauge
	yaw          prometheus.Gauge
}

// NewFlightGauges registers the flight gauges on the given registerer.
func NewFlightGauges(reg prometheus.Registerer) *FlightGauges {
	g := &FlightGauges{
		altitude:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "ascent_altitude_meters"}),
		velocity:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "ascent_velocity_mps"}),
		acceleration: prometheus.NewGauge(prometheus.GaugeOpts{Name: "ascent_acceleration_mps2"}),
		mass:         prometheus.NewGauge(prometheus.GaugeOpts{Name: "ascent_mass_kg"}),
		dynPressure:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "ascent_dynamic_pressure_pa"}),
		thrust:       prometheus.NewGauge(prometheus.GaugeOpts{Name: "ascent_thrust_newton"}),
		pitch:        prometheus.NewGauge(prometheus.GaugeOpts{Name: "ascent_pitch_degrees"}),
		yaw:          prometheus.NewGauge(prometheus.GaugeOpts{Name: "ascent_yaw_degrees"}),
	}
	reg.MustRegister(g.altitude, g.velocity, g.acceleration, g.mass, g.dynPressure, g.thrust, g.pitch, g.yaw)
	return g
}

// Hook returns a StepHook updating the gauges from each completed step.
func (g *FlightGauges) Hook(ctx *Context) StepHook {
	radius := ctx.Body.Radius
	return func(i int, p *Plots, mass float64) {
		g.altitude.Set(p.RMag[i] - radius)
		g.velocity.Set(p.VMag[i])
		g.acceleration.Set(p.A[i])
		g.mass.Set(mass)
		g.dynPressure.Set(p.Q[i])
		g.thrust.Set(p.F[i])
		g.pitch.Set(p.Pitch[i])
		g.yaw.Set(p.Yaw[i])
	}
}
