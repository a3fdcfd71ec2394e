// Package matrix defines the contract of the sparse-matrix
// collaborator a distributed vector accumulates products from.
// Matrix storage and assembly live with the implementer; the vector
// side only needs the three accumulating product forms.
package matrix

import (
	"github.com/hupe1980/distvec/engine"
	"github.com/hupe1980/distvec/scalar"
)

// Matrix is the operator side of matrix-vector accumulation.
//
// All three methods compute dst += op(A) * x against engine handles
// whose partition matches the matrix's row/column layout. They are
// collective over the handles' group.
type Matrix[T scalar.Scalar] interface {
	// MultAdd accumulates A*x into dst.
	MultAdd(x, dst engine.Handle[T]) error

	// MultTransposeAdd accumulates Aᵀ*x into dst.
	MultTransposeAdd(x, dst engine.Handle[T]) error

	// MultHermitianTransposeAdd accumulates Aᴴ*x into dst. For real
	// scalars this coincides with MultTransposeAdd.
	MultHermitianTransposeAdd(x, dst engine.Handle[T]) error
}
