package notchian

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const epsilon = 1e-9

func angularDistance(a, b float64) float64 {
	d := EuclideanMod(a-b, twoPi)
	return math.Min(d, twoPi-d)
}

func TestEuclideanMod(t *testing.T) {
	t.Parallel()

	tables := map[string]struct {
		n, d, expected float64
	}{
		"positive":          {n: 7, d: 3, expected: 1},
		"negative":          {n: -7, d: 3, expected: 2},
		"exact multiple":    {n: -6, d: 3, expected: 0},
		"fractional":        {n: -0.5, d: 2 * math.Pi, expected: 2*math.Pi - 0.5},
		"smaller than d":    {n: 1.25, d: 4, expected: 1.25},
		"tiny negative":     {n: -1e-18, d: 2 * math.Pi, expected: 0},
		"large negative":    {n: -1000.5, d: 10, expected: 9.5},
		"large positive":    {n: 1000.5, d: 10, expected: 0.5},
		"zero":              {n: 0, d: 5, expected: 0},
		"negative multiple": {n: -720, d: 360, expected: 0},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, table.expected, EuclideanMod(table.n, table.d), epsilon)
		})
	}
}

func TestEuclideanModProperties(t *testing.T) {
	t.Parallel()

	for n := -50.0; n <= 50; n += 0.75 {
		for _, d := range []float64{0.5, 1, 3, 2 * math.Pi, 360} {
			r := EuclideanMod(n, d)
			assert.GreaterOrEqual(t, r, 0.0)
			assert.Less(t, r, d)

			k := (n - r) / d
			assert.InDelta(t, math.Round(k), k, epsilon, "n=%v d=%v", n, d)
		}
	}
}

func TestDecodeYawByteRange(t *testing.T) {
	t.Parallel()

	for b := -128; b <= 255; b++ {
		yaw := DecodeYawByte(b)
		assert.GreaterOrEqual(t, yaw, 0.0, "byte %d", b)
		assert.Less(t, yaw, twoPi, "byte %d", b)
	}
}

func TestDecodePitchByteRange(t *testing.T) {
	t.Parallel()

	for b := -128; b <= 255; b++ {
		pitch := DecodePitchByte(b)
		assert.GreaterOrEqual(t, pitch, -math.Pi, "byte %d", b)
		assert.Less(t, pitch, math.Pi, "byte %d", b)
	}
}

func TestDecodeKnownAngles(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, math.Pi, DecodeYawByte(0), epsilon)
	assert.InDelta(t, math.Pi/2, DecodeYawByte(64), epsilon)
	assert.InDelta(t, 0, DecodeYawByte(128), epsilon)
	assert.InDelta(t, 3*math.Pi/2, DecodeYawByte(192), epsilon)
	// signed and unsigned wire bytes agree
	assert.InDelta(t, DecodeYawByte(192), DecodeYawByte(-64), epsilon)

	assert.InDelta(t, 0, DecodePitchByte(0), epsilon)
	assert.InDelta(t, -math.Pi/2, DecodePitchByte(64), epsilon)
	assert.InDelta(t, -math.Pi, DecodePitchByte(128), epsilon)
	assert.InDelta(t, math.Pi/2, DecodePitchByte(-64), epsilon)

	assert.InDelta(t, math.Pi/2, DecodeYaw(90), epsilon)
	assert.InDelta(t, -math.Pi/4, DecodePitch(45), epsilon)
}

func TestAngleByteRoundTrip(t *testing.T) {
	t.Parallel()

	for b := 0; b < 256; b++ {
		assert.Equal(t, b, EncodeYawByte(DecodeYawByte(b)))
		assert.Equal(t, b, EncodePitchByte(DecodePitchByte(b)))
	}
}

func TestAngleRoundTripWithinOneStep(t *testing.T) {
	t.Parallel()

	for yaw := 0.0; yaw < twoPi; yaw += 0.013 {
		decoded := DecodeYawByte(EncodeYawByte(yaw))
		assert.LessOrEqual(t, angularDistance(yaw, decoded), ByteToRad, "yaw %v", yaw)
	}

	for pitch := -math.Pi; pitch < math.Pi; pitch += 0.013 {
		decoded := DecodePitchByte(EncodePitchByte(pitch))
		assert.LessOrEqual(t, angularDistance(pitch, decoded), ByteToRad, "pitch %v", pitch)
	}
}

func TestDecodeVelocity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, DecodeVelocity(0))
	assert.Equal(t, 1.0, DecodeVelocity(8000))
	assert.Equal(t, -0.5, DecodeVelocity(-4000))
	assert.InDelta(t, 32767.0/8000, DecodeVelocity(32767), epsilon)
}

func TestUnitConstants(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, DegToRad*RadToDeg, epsilon)
	assert.InDelta(t, 2*math.Pi/256, ByteToRad, epsilon)
	assert.InDelta(t, math.Pi, ToRadians(180), epsilon)
	assert.InDelta(t, 180, ToDegrees(math.Pi), epsilon)
}
