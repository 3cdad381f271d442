// Package frac defines the engine's fixed-point time unit. Simulation
// rates are expressed in fractional units per frame; a node fires one
// discrete tick each time its accumulator crosses Unit.
package frac

import "math"

// Bits is the number of fractional bits in a frac value
const Bits = 12

// Unit is one whole tick in frac units. A time factor equal to Unit
// advances a node by exactly one tick per nominal frame.
const Unit int64 = 1 << Bits

// FromFloat converts a float value to frac units, rounding to nearest
func FromFloat(f float64) int64 {
	return int64(math.Round(f * float64(Unit)))
}

// ToFloat converts a frac value back to a float
func ToFloat(f int64) float64 {
	return float64(f) / float64(Unit)
}

// Mul multiplies two frac values, keeping the result in frac units
func Mul(a, b int64) int64 {
	return (a * b) >> Bits
}

// Whole returns the number of complete units contained in f.
// f must be non-negative; accumulators never go below zero.
func Whole(f int64) int64 {
	return f >> Bits
}

// Remainder returns the fractional part of f below one unit
func Remainder(f int64) int64 {
	return f & (Unit - 1)
}
