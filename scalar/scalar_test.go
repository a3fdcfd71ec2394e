package scalar_test

import (
	"math"
	"testing"

	"github.com/hupe1980/distvec/scalar"
	"github.com/stretchr/testify/assert"
)

func TestAbs(t *testing.T) {
	assert.Equal(t, 2.5, scalar.Abs(-2.5))
	assert.Equal(t, 1.5, scalar.Abs(float32(-1.5)))
	assert.InDelta(t, 5.0, scalar.Abs(complex(3.0, 4.0)), 1e-12)
	assert.InDelta(t, 5.0, scalar.Abs(complex64(complex(3, -4))), 1e-6)
}

func TestReal(t *testing.T) {
	assert.Equal(t, -2.5, scalar.Real(-2.5))
	assert.Equal(t, 1.5, scalar.Real(float32(1.5)))
	assert.Equal(t, 3.0, scalar.Real(complex(3.0, 4.0)))
}

func TestConj(t *testing.T) {
	assert.Equal(t, -2.5, scalar.Conj(-2.5))
	assert.Equal(t, complex(3.0, -4.0), scalar.Conj(complex(3.0, 4.0)))
	assert.Equal(t, complex64(complex(1, 2)), scalar.Conj(complex64(complex(1, -2))))
}

func TestFromReal(t *testing.T) {
	assert.Equal(t, 2.5, scalar.FromReal[float64](2.5))
	assert.Equal(t, float32(2.5), scalar.FromReal[float32](2.5))
	assert.Equal(t, complex(2.5, 0), scalar.FromReal[complex128](2.5))
}

func TestAbsValue(t *testing.T) {
	assert.Equal(t, 2.5, scalar.AbsValue(-2.5))
	assert.InDelta(t, 5.0, real(scalar.AbsValue(complex(3.0, -4.0))), 1e-12)
	assert.Zero(t, imag(scalar.AbsValue(complex(3.0, -4.0))))
}

func TestInv(t *testing.T) {
	assert.Equal(t, 0.5, scalar.Inv(2.0))
	assert.Equal(t, complex(0.5, 0), scalar.Inv(complex(2.0, 0)))
	assert.True(t, math.IsInf(scalar.Inv(0.0), 1))
}

func TestIsComplex(t *testing.T) {
	assert.False(t, scalar.IsComplex[float32]())
	assert.False(t, scalar.IsComplex[float64]())
	assert.True(t, scalar.IsComplex[complex64]())
	assert.True(t, scalar.IsComplex[complex128]())
}
