package pegas

// CelestialObject defines the central body of a simulation.
// Only the parameters an ascent needs: no ephemerides, no higher harmonics.
type CelestialObject struct {
	Name           string
	Radius         float64 // reference (mean) radius, m
	μ              float64 // gravitational parameter, m³/s²
	RotationPeriod float64 // s
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Earth is home.
var Earth = CelestialObject{"Earth", 6371000, 3.986004418e14, 86400}

const (
	// G0 is standard gravity, m/s².
	G0 = 9.80665
	// SeaLevelPressure in Pa.
	SeaLevelPressure = 101325
	// RAir is the specific gas constant of air, J/(kg·K).
	RAir = 287.053
)

// Context carries the read-only constants of a simulation: central body,
// standard gravity and the atmosphere lookup tables. It is assembled once and
// passed down explicitly so runs are re-entrant and other bodies are trivial
// to simulate.
type Context struct {
	Body           CelestialObject
	G0             float64
	AtmPressure    Curve // altitude km → pressure as a 0..1 ratio of sea level
	AtmTemperature Curve // altitude km → temperature °C
}

// DefaultContext returns an Earth context with the bundled atmosphere tables.
func DefaultContext() *Context {
	return &Context{
		Body:           Earth,
		G0:             G0,
		AtmPressure:    earthPressure,
		AtmTemperature: earthTemperature,
	}
}

// Bundled Earth atmosphere, US Standard 1976 sampled every few km.
// Pressure stores the ratio with 1.0 at sea level; the isp blend in the
// integrator relies on this orientation.
var earthPressure = Curve{
	{0, 1}, {2.5, 0.737}, {5, 0.533}, {7.5, 0.376}, {10, 0.261},
	{12.5, 0.175}, {15, 0.1195}, {17.5, 0.0785}, {20, 0.0550},
	{25, 0.0251}, {30, 0.0118}, {40, 0.00283}, {50, 7.87e-4},
	{60, 2.17e-4}, {70, 5.15e-5}, {80, 1.03e-5}, {90, 1.62e-6},
	{100, 3.14e-7}, {120, 0},
}

var earthTemperature = Curve{
	{0, 15}, {2.5, -1.2}, {5, -17.5}, {7.5, -33.7}, {10, -50},
	{12.5, -56.5}, {20, -56.5}, {25, -51.6}, {30, -46.6},
	{40, -22.8}, {50, -2.5}, {60, -26.1}, {70, -53.6},
	{80, -74.5}, {90, -86.3}, {100, -73.6}, {120, -50},
}
