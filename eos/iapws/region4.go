package iapws

import "math"

var region4 = [...]float64{
	0, // coefficients are 1-based
	0.11670521452767e4,
	-0.72421316703206e6,
	-0.17073846940092e2,
	0.12020824702470e5,
	-0.32325550322333e7,
	0.14915108613530e2,
	-0.48232657361591e4,
	0.40511340542057e6,
	-0.23855557567849,
	0.65017534844798e3,
}

// SaturationPressure returns the saturation pressure (Pa) at temperature t
// (K). Valid from 273.15 K to the critical temperature.
func SaturationPressure(t float64) float64 {
	n := region4
	theta := t + n[9]/(t-n[10])
	a := theta*theta + n[1]*theta + n[2]
	b := n[3]*theta*theta + n[4]*theta + n[5]
	c := n[6]*theta*theta + n[7]*theta + n[8]
	x := 2 * c / (-b + math.Sqrt(b*b-4*a*c))
	return x * x * x * x * 1e6
}

// SaturationTemperature returns the saturation temperature (K) at pressure p
// (Pa). Valid from the triple-point pressure to the critical pressure.
func SaturationTemperature(p float64) float64 {
	n := region4
	beta := math.Pow(p/1e6, 0.25)
	e := beta*beta + n[3]*beta + n[6]
	f := n[1]*beta*beta + n[4]*beta + n[7]
	g := n[2]*beta*beta + n[5]*beta + n[8]
	d := 2 * g / (-f - math.Sqrt(f*f-4*e*g))
	return (n[10] + d - math.Sqrt((n[10]+d)*(n[10]+d)-4*(n[9]+n[10]*d))) / 2
}

var b23 = [...]float64{
	0,
	0.34805185628969e3,
	-0.11671859879975e1,
	0.10192970039326e-2,
	0.57254459862746e3,
	0.13918839778870e2,
}

// b23Pressure returns the pressure (Pa) on the region 2/3 boundary at t (K).
func b23Pressure(t float64) float64 {
	return (b23[1] + b23[2]*t + b23[3]*t*t) * 1e6
}

// b23Temperature returns the temperature (K) on the region 2/3 boundary at p (Pa).
func b23Temperature(p float64) float64 {
	return b23[4] + math.Sqrt((p/1e6-b23[5])/b23[3])
}
