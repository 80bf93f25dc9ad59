// Package halffloat converts between IEEE-754 single precision floats and
// 16-bit half precision floats.
//
// Conversion to half precision truncates: mantissa bits that do not fit are
// shifted out, never rounded.
package halffloat

import "math"

// Bit patterns shared by both directions of the conversion.
const (
	// -15 stored using the single precision bias of 127.
	halfMinBiasedExpAsSingle uint32 = 0x38000000
	// Smallest single precision exponent that becomes Inf or NaN as a half.
	halfMaxBiasedExpAsSingle uint32 = 0x47800000
	// 255 is the max biased single precision exponent.
	floatMaxBiasedExp uint32 = 0xFF << 23
	// 31 is the max biased half precision exponent.
	halfMaxBiasedExp uint16 = 0x1F << 10

	singleMantissaMask uint32 = 1<<23 - 1
	halfMantissaMask   uint32 = 1<<10 - 1
)

// Common half precision values.
const (
	PositiveInf uint16 = 0x7C00
	NegativeInf uint16 = 0xFC00
	MaxValue    uint16 = 0x7BFF // 65504
	One         uint16 = 0x3C00
)

// Encode converts f to half precision.
//
// Values too large for a half become Inf, NaN stays NaN, and values below the
// smallest normal half are shifted into a denormal (or zero).
func Encode(f float32) uint16 {
	x := math.Float32bits(f)
	sign := uint16(x>>31) << 15
	mantissa := x & singleMantissaMask
	exp := x & floatMaxBiasedExp

	switch {
	case exp >= halfMaxBiasedExpAsSingle:
		if mantissa != 0 && exp == floatMaxBiasedExp {
			mantissa = singleMantissaMask
		} else {
			mantissa = 0
		}
		return sign | halfMaxBiasedExp | uint16(mantissa>>13)

	case exp <= halfMinBiasedExpAsSingle:
		// Denormal half: restore the implicit leading bit, then shift right by
		// the exponent deficit.
		deficit := (halfMinBiasedExpAsSingle - exp) >> 23
		mantissa |= 1 << 23
		mantissa >>= 14 + deficit
		return sign | uint16(mantissa)

	default:
		return sign | uint16((exp-halfMinBiasedExpAsSingle)>>13) | uint16(mantissa>>13)
	}
}

// Decode converts a half precision value to float32.
func Decode(h uint16) float32 {
	sign := uint32(h>>15) << 31
	mantissa := uint32(h) & halfMantissaMask
	exp := uint32(h & halfMaxBiasedExp)

	switch exp {
	case uint32(halfMaxBiasedExp):
		exp = floatMaxBiasedExp
		if mantissa != 0 {
			mantissa = singleMantissaMask
		}

	case 0:
		if mantissa != 0 {
			// Renormalize: shift until the leading bit reaches the implicit
			// position, lowering the exponent once per shift.
			mantissa <<= 1
			exp = halfMinBiasedExpAsSingle
			for mantissa&(1<<10) == 0 {
				mantissa <<= 1
				exp -= 1 << 23
			}
			mantissa &= halfMantissaMask
			mantissa <<= 13
		}

	default:
		mantissa <<= 13
		exp = (exp << 13) + halfMinBiasedExpAsSingle
	}

	return math.Float32frombits(sign | exp | mantissa)
}

// EncodeSlice converts src into dst and returns dst.
// dst is allocated when it is too small.
func EncodeSlice(dst []uint16, src []float32) []uint16 {
	if cap(dst) < len(src) {
		dst = make([]uint16, len(src))
	}
	dst = dst[:len(src)]
	for i, f := range src {
		dst[i] = Encode(f)
	}
	return dst
}

// DecodeSlice converts src into dst and returns dst.
// dst is allocated when it is too small.
func DecodeSlice(dst []float32, src []uint16) []float32 {
	if cap(dst) < len(src) {
		dst = make([]float32, len(src))
	}
	dst = dst[:len(src)]
	for i, h := range src {
		dst[i] = Decode(h)
	}
	return dst
}
