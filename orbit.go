package pegas

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
)

// OrbitalElements holds the classical elements of a terminal state. Angles
// are in degrees, apsides in km above the body surface, SMA in meters.
type OrbitalElements struct {
	SMA float64 // semi-major axis, m
	ECC float64 // eccentricity
	INC float64 // inclination, deg
	LAN float64 // longitude of the ascending node, deg
	AOP float64 // argument of periapsis, deg
	TAN float64 // true anomaly, deg
	AP  float64 // apoapsis altitude, km
	PE  float64 // periapsis altitude, km
}

// String implements the Stringer interface.
func (oe OrbitalElements) String() string {
	return fmt.Sprintf("%.1fx%.1f km i=%.2f° Ω=%.2f° ω=%.2f° ν=%.2f°", oe.AP, oe.PE, oe.INC, oe.LAN, oe.AOP, oe.TAN)
}

// GetOrbitalElements returns the classical orbital elements of an ECI state
// vector. From Vallado's RV2COE, page 113.
func GetOrbitalElements(ctx *Context, R, V []float64) OrbitalElements {
	μ := ctx.Body.GM()
	hVec := cross(R, V)
	n := cross([]float64{0, 0, 1}, hVec)
	v := norm(V)
	r := norm(R)
	ξ := (v*v)/2 - μ/r
	a := -μ / (2 * ξ)
	eVec := make([]float64, 3)
	for i := 0; i < 3; i++ {
		eVec[i] = ((v*v-μ/r)*R[i] - dot(R, V)*V[i]) / μ
	}
	e := norm(eVec)
	i := math.Acos(hVec[2] / norm(hVec))
	ω := math.Acos(dot(n, eVec) / (norm(n) * e))
	if math.IsNaN(ω) {
		ω = 0
	}
	if eVec[2] < 0 {
		ω = 2*math.Pi - ω
	}
	Ω := math.Acos(n[0] / norm(n))
	if math.IsNaN(Ω) {
		Ω = 0
	}
	if n[1] < 0 {
		Ω = 2*math.Pi - Ω
	}
	cosν := dot(eVec, R) / (e * r)
	if abscosν := math.Abs(cosν); abscosν > 1 && floats.EqualWithinAbs(abscosν, 1, 1e-12) {
		cosν = sign(cosν)
	}
	ν := math.Acos(cosν)
	if math.IsNaN(ν) {
		ν = 0
	}
	if dot(R, V) < 0 {
		ν = 2*math.Pi - ν
	}
	return OrbitalElements{
		SMA: a,
		ECC: e,
		INC: Rad2deg(i),
		LAN: Rad2deg(Ω),
		AOP: Rad2deg(ω),
		TAN: Rad2deg(ν),
		AP:  (a*(1+e) - ctx.Body.Radius) / 1000,
		PE:  (a*(1-e) - ctx.Body.Radius) / 1000,
	}
}
