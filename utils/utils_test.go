package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix(t *testing.T) {
	// Transpose
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		mNr, mNc := M.Dims()
		A := M.Transpose()
		aNr, aNc := A.Dims()
		assert.Equal(t, aNc, mNr)
		assert.Equal(t, aNr, mNc)
		assert.Equal(t, A.RawMatrix().Data, []float64{1, 4, 2, 5, 3, 6})
	}
	// Inverse
	{
		M := NewMatrix(2, 2, []float64{
			1, 0,
			1, 1,
		})
		MI, err := M.Inverse()
		assert.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 0, -1, 1}, MI.RawMatrix().Data, 1.e-12)
		P := M.Mul(MI)
		assert.InDeltaSlice(t, []float64{1, 0, 0, 1}, P.RawMatrix().Data, 1.e-12)
	}
	// Inverse of a singular matrix fails
	{
		M := NewMatrix(2, 2, []float64{
			1, 1,
			1, 1,
		})
		_, err := M.Inverse()
		assert.Error(t, err)
	}
	// MulVec
	{
		M := NewMatrix(2, 2, []float64{
			1, 0,
			-1, 1,
		})
		v := M.MulVec([]float64{0.7, 1})
		assert.InDeltaSlice(t, []float64{0.7, 0.3}, v, 1.e-12)
	}
	// Slice
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		A := M.Slice(0, 2, 1, 3)
		assert.Equal(t, A.RawMatrix().Data, []float64{2, 3, 5, 6})
	}
}

func TestDOK(t *testing.T) {
	{
		D := NewDOK(3, 3)
		D.Set(0, 0, 2)
		D.Accumulate(0, 0, 1)
		D.Set(2, 1, 5)
		assert.Equal(t, 3., D.At(0, 0))
		assert.Equal(t, 5., D.At(2, 1))
		assert.Equal(t, 2, D.NNZ())
		C := D.ToCSR()
		assert.Equal(t, 3., C.At(0, 0))
		assert.Equal(t, 5., C.At(2, 1))
		assert.Equal(t, 2, C.NNZ())
	}
}

func TestPOW(t *testing.T) {
	assert.Equal(t, 1., POW(2, 0))
	assert.Equal(t, 8., POW(2, 3))
	assert.Equal(t, 0.25, POW(2, -2))
	assert.InDelta(t, 1024., POW(2, 10), 1.e-12)
}

func TestEuclideanDistance(t *testing.T) {
	assert.InDelta(t, 5., EuclideanDistance([]float64{0, 0}, []float64{3, 4}), 1.e-14)
}
