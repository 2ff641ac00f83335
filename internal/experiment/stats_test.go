package experiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChiSquareMatchesReferenceScenario(t *testing.T) {
	// clicked/not-clicked = [[399,112],[362,127]] over arms of 511/489.
	stat, p := ChiSquare2x2(399, 112, 362, 127)
	assert.InDelta(t, 2.04, stat, 0.01)
	assert.InDelta(t, 0.153, p, 0.002)
}

func TestChiSquareDegenerateTables(t *testing.T) {
	stat, p := ChiSquare2x2(0, 0, 0, 0)
	assert.Equal(t, 0.0, stat)
	assert.Equal(t, 1.0, p)

	// Nobody clicked in either arm: no signal.
	stat, p = ChiSquare2x2(0, 50, 0, 50)
	assert.Equal(t, 0.0, stat)
	assert.Equal(t, 1.0, p)
}

func TestChiSquareIdenticalArmsNotSignificant(t *testing.T) {
	_, p := ChiSquare2x2(100, 100, 100, 100)
	assert.Greater(t, p, 0.9)
}

func TestTwoSampleTTest(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2, 3, 4, 5, 6}

	stat, p := TwoSampleTTest(xs, ys)
	assert.InDelta(t, -1.0, stat, 1e-9)
	assert.InDelta(t, 0.3466, p, 0.001)
}

func TestTwoSampleTTestIdenticalSamples(t *testing.T) {
	xs := []float64{3, 3, 3, 3}
	stat, p := TwoSampleTTest(xs, xs)
	assert.Equal(t, 0.0, stat)
	assert.Equal(t, 1.0, p)
}

func TestTwoSampleTTestZeroVarianceDifferentMeans(t *testing.T) {
	xs := []float64{1, 1, 1}
	ys := []float64{2, 2, 2}
	stat, p := TwoSampleTTest(xs, ys)
	assert.True(t, math.IsInf(stat, -1))
	assert.Equal(t, 0.0, p)
}

func TestTwoSampleTTestTooFewSamples(t *testing.T) {
	stat, p := TwoSampleTTest([]float64{1}, []float64{2, 3})
	assert.Equal(t, 0.0, stat)
	assert.Equal(t, 1.0, p)
}

func TestRegularizedIncompleteBetaBounds(t *testing.T) {
	assert.Equal(t, 0.0, regularizedIncompleteBeta(2, 3, 0))
	assert.Equal(t, 1.0, regularizedIncompleteBeta(2, 3, 1))
	// I_0.5(a, a) = 0.5 by symmetry.
	assert.InDelta(t, 0.5, regularizedIncompleteBeta(4, 4, 0.5), 1e-9)
}
