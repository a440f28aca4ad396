// Package pose turns raw pose payloads into canonical positions, deltas,
// orientations and velocities. The wire encoding of coordinates depends on the
// negotiated protocol version; a Strategy captures that choice once per session.
package pose

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tutumagi/mcentity/notchian"
)

// Protocol features that gate coordinate encodings
const (
	FeatureFixedPointPosition = "fixedPointPosition"
	FeatureDoublePosition     = "doublePosition"
	FeatureFixedPointDelta    = "fixedPointDelta"
)

const (
	// FixedPointScale is the number of fixed-point units per block
	FixedPointScale = 32
	// LegacyDeltaScale is the extra precision of deltas on versions without fixedPointDelta
	LegacyDeltaScale = 128
)

// FeatureQuerier answers whether a protocol feature is active
type FeatureQuerier interface {
	SupportFeature(name string) bool
}

// PositionEncoding is how absolute coordinates are sent on the wire
type PositionEncoding int8

const (
	// PositionUnsupported means no known absolute encoding, positions are not applied
	PositionUnsupported PositionEncoding = iota
	// PositionFixedPoint is 1/32 block integers
	PositionFixedPoint
	// PositionDouble is native floating point blocks
	PositionDouble
)

func (p PositionEncoding) String() string {
	switch p {
	case PositionFixedPoint:
		return "fixed-point"
	case PositionDouble:
		return "double"
	case PositionUnsupported:
		return "unsupported"
	}
	return fmt.Sprintf("PositionEncoding(%d)", int8(p))
}

// DeltaEncoding is how relative moves are sent on the wire
type DeltaEncoding int8

const (
	// DeltaLegacy is 1/(128*32) block integers
	DeltaLegacy DeltaEncoding = iota
	// DeltaFixedPoint is 1/32 block integers
	DeltaFixedPoint
)

func (d DeltaEncoding) String() string {
	switch d {
	case DeltaFixedPoint:
		return "fixed-point"
	case DeltaLegacy:
		return "legacy"
	}
	return fmt.Sprintf("DeltaEncoding(%d)", int8(d))
}

// Strategy is the pose encoding negotiated for one session
type Strategy struct {
	PositionEncoding PositionEncoding
	DeltaEncoding    DeltaEncoding
}

// Select picks the encodings for the active feature set. First match wins:
// fixedPointPosition, then doublePosition.
func Select(features FeatureQuerier) Strategy {
	s := Strategy{
		PositionEncoding: PositionUnsupported,
		DeltaEncoding:    DeltaLegacy,
	}

	if features.SupportFeature(FeatureFixedPointPosition) {
		s.PositionEncoding = PositionFixedPoint
	} else if features.SupportFeature(FeatureDoublePosition) {
		s.PositionEncoding = PositionDouble
	}

	if features.SupportFeature(FeatureFixedPointDelta) {
		s.DeltaEncoding = DeltaFixedPoint
	}

	return s
}

func (s Strategy) String() string {
	return fmt.Sprintf("position:%s delta:%s", s.PositionEncoding, s.DeltaEncoding)
}

// Position decodes absolute wire coordinates. ok is false when the strategy has
// no position encoding; the caller must leave the position untouched.
func (s Strategy) Position(x, y, z float64) (pos mgl64.Vec3, ok bool) {
	switch s.PositionEncoding {
	case PositionFixedPoint:
		return mgl64.Vec3{x, y, z}.Mul(1.0 / FixedPointScale), true
	case PositionDouble:
		return mgl64.Vec3{x, y, z}, true
	}
	return mgl64.Vec3{}, false
}

// Delta decodes a relative move, to be applied with a translate
func (s Strategy) Delta(dx, dy, dz int) mgl64.Vec3 {
	d := mgl64.Vec3{float64(dx), float64(dy), float64(dz)}
	if s.DeltaEncoding == DeltaFixedPoint {
		return d.Mul(1.0 / FixedPointScale)
	}
	return d.Mul(1.0 / (LegacyDeltaScale * FixedPointScale))
}

// Look decodes quantized yaw and pitch into radians
func Look(yaw, pitch int) (float64, float64) {
	return notchian.DecodeYawByte(yaw), notchian.DecodePitchByte(pitch)
}

// Velocity decodes wire velocity components into blocks per tick
func Velocity(vx, vy, vz int) mgl64.Vec3 {
	return mgl64.Vec3{
		notchian.DecodeVelocity(vx),
		notchian.DecodeVelocity(vy),
		notchian.DecodeVelocity(vz),
	}
}
