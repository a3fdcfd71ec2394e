// Package scalar defines the numeric element types a distributed
// vector can hold and the small set of kernels (absolute value,
// conjugation, real part) that arithmetic and reductions need to work
// uniformly across real and complex scalars.
package scalar

import (
	"math"
	"math/cmplx"

	"golang.org/x/exp/constraints"
)

// Scalar is the constraint for vector element types.
type Scalar interface {
	constraints.Float | constraints.Complex
}

// Abs returns |v| as a float64. For complex scalars this is the
// modulus.
func Abs[T Scalar](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return math.Abs(float64(x))
	case float64:
		return math.Abs(x)
	case complex64:
		return cmplx.Abs(complex128(x))
	case complex128:
		return cmplx.Abs(x)
	default:
		panic("scalar: unsupported type")
	}
}

// Real returns the real part of v as a float64. For real scalars this
// is the value itself.
func Real[T Scalar](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	case complex64:
		return float64(real(x))
	case complex128:
		return real(x)
	default:
		panic("scalar: unsupported type")
	}
}

// Conj returns the complex conjugate of v. Real scalars are returned
// unchanged.
func Conj[T Scalar](v T) T {
	switch x := any(v).(type) {
	case complex64:
		return any(complex64(cmplx.Conj(complex128(x)))).(T)
	case complex128:
		return any(cmplx.Conj(x)).(T)
	default:
		return v
	}
}

// FromReal converts a float64 into T with zero imaginary part.
func FromReal[T Scalar](r float64) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(float32(r)).(T)
	case float64:
		return any(r).(T)
	case complex64:
		return any(complex64(complex(r, 0))).(T)
	case complex128:
		return any(complex(r, 0)).(T)
	default:
		panic("scalar: unsupported type")
	}
}

// AbsValue returns |v| as a T with zero imaginary part. Used by
// elementwise absolute-value transforms.
func AbsValue[T Scalar](v T) T {
	return FromReal[T](Abs(v))
}

// Inv returns 1/v. Division by zero follows the underlying type's
// semantics (Inf/NaN), mirroring pointwise reciprocal on raw buffers.
func Inv[T Scalar](v T) T {
	switch x := any(v).(type) {
	case float32:
		return any(1 / x).(T)
	case float64:
		return any(1 / x).(T)
	case complex64:
		return any(1 / x).(T)
	case complex128:
		return any(1 / x).(T)
	default:
		panic("scalar: unsupported type")
	}
}

// IsComplex reports whether T is a complex type.
func IsComplex[T Scalar]() bool {
	var zero T
	switch any(zero).(type) {
	case complex64, complex128:
		return true
	default:
		return false
	}
}
