// Package notchian converts the numeric encodings used on the wire by the
// reference game protocol into radians and blocks per tick.
//
// The protocol measures yaw clockwise from +z and pitch positive downwards,
// both quantized to 1/256 of a turn. Canonical values here are yaw in [0, 2π)
// and pitch in [-π, π).
package notchian

import "math"

const (
	// DegToRad multiplies degrees into radians
	DegToRad = math.Pi / 180
	// RadToDeg multiplies radians into degrees
	RadToDeg = 180 / math.Pi
	// ByteToDeg is the size of one angle byte step, in degrees
	ByteToDeg = 360.0 / 256.0
	// ByteToRad is the size of one angle byte step, in radians
	ByteToRad = ByteToDeg * DegToRad

	// VelocityUnit is the number of wire velocity units per block per tick
	VelocityUnit = 8000

	twoPi = 2 * math.Pi
)

// EuclideanMod returns n mod d with the sign of d, unlike math.Mod which keeps
// the sign of n.
func EuclideanMod(n, d float64) float64 {
	r := math.Mod(n, d)
	if r < 0 {
		r += d
	}
	// -tiny + d rounds to d itself
	if r >= d {
		r = 0
	}
	return r
}

// ToRadians converts degrees to radians
func ToRadians(deg float64) float64 {
	return deg * DegToRad
}

// ToDegrees converts radians to degrees
func ToDegrees(rad float64) float64 {
	return rad * RadToDeg
}

// DecodeYaw converts a protocol yaw in degrees to radians in [0, 2π).
func DecodeYaw(deg float64) float64 {
	return EuclideanMod(math.Pi-ToRadians(deg), twoPi)
}

// DecodeYawByte converts a quantized protocol yaw to radians in [0, 2π).
func DecodeYawByte(b int) float64 {
	return DecodeYaw(float64(b) * ByteToDeg)
}

// DecodePitch converts a protocol pitch in degrees to radians in [-π, π).
func DecodePitch(deg float64) float64 {
	return EuclideanMod(ToRadians(-deg)+math.Pi, twoPi) - math.Pi
}

// DecodePitchByte converts a quantized protocol pitch to radians in [-π, π).
func DecodePitchByte(b int) float64 {
	return DecodePitch(float64(b) * ByteToDeg)
}

// DecodeVelocity converts a wire velocity component to blocks per tick.
func DecodeVelocity(v int) float64 {
	return float64(v) / VelocityUnit
}

// EncodeYawByte is the inverse of DecodeYawByte, rounded to the nearest step.
func EncodeYawByte(rad float64) int {
	deg := ToDegrees(math.Pi - rad)
	return int(EuclideanMod(math.Round(deg/ByteToDeg), 256))
}

// EncodePitchByte is the inverse of DecodePitchByte, rounded to the nearest step.
func EncodePitchByte(rad float64) int {
	deg := ToDegrees(-rad)
	return int(EuclideanMod(math.Round(deg/ByteToDeg), 256))
}
