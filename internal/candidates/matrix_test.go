package candidates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMatrixWeightsAndOrdering(t *testing.T) {
	tuples := []PurchaseTuple{
		{CustomerID: "a", ArticleID: "i1"},
		{CustomerID: "a", ArticleID: "i2"},
		{CustomerID: "b", ArticleID: "i1"},
		{CustomerID: "b", ArticleID: "i2"},
		{CustomerID: "b", ArticleID: "i3"},
		{CustomerID: "c", ArticleID: "i2"},
		{CustomerID: "c", ArticleID: "i4"},
	}

	matrix := BuildMatrix(tuples)

	neighbors := matrix.Neighbors("i2")
	require.Len(t, neighbors, 3)
	assert.Equal(t, Neighbor{ArticleID: "i1", Weight: 2}, neighbors[0])
	// Equal weights fall back to article id ascending.
	assert.Equal(t, Neighbor{ArticleID: "i3", Weight: 1}, neighbors[1])
	assert.Equal(t, Neighbor{ArticleID: "i4", Weight: 1}, neighbors[2])

	stats := matrix.Stats()
	assert.Equal(t, 4, stats.Items)
	assert.Equal(t, 3, stats.BuiltFrom)
}

func TestBuildMatrixIgnoresRepeatPurchases(t *testing.T) {
	tuples := []PurchaseTuple{
		{CustomerID: "a", ArticleID: "i1"},
		{CustomerID: "a", ArticleID: "i1"},
		{CustomerID: "a", ArticleID: "i2"},
	}

	matrix := BuildMatrix(tuples)
	neighbors := matrix.Neighbors("i2")
	require.Len(t, neighbors, 1)
	assert.Equal(t, 1, neighbors[0].Weight)
}

func TestNilMatrixIsEmpty(t *testing.T) {
	var matrix *Matrix
	assert.Nil(t, matrix.Neighbors("i1"))
	assert.Equal(t, MatrixStats{}, matrix.Stats())
}
