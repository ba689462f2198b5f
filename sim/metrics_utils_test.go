package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePercentile(t *testing.T) {
	data := []float64{40, 10, 30, 20, 50}

	assert.InDelta(t, 10.0, CalculatePercentile(data, 0), 1e-9)
	assert.InDelta(t, 30.0, CalculatePercentile(data, 50), 1e-9)
	assert.InDelta(t, 50.0, CalculatePercentile(data, 100), 1e-9)
	// rank 0.99*4 = 3.96 → 40 + 0.96*10
	assert.InDelta(t, 49.6, CalculatePercentile(data, 99), 1e-9)

	// input order is preserved
	assert.Equal(t, []float64{40, 10, 30, 20, 50}, data)
}

func TestCalculatePercentile_Edges(t *testing.T) {
	assert.Equal(t, 0.0, CalculatePercentile([]int{}, 50))
	assert.Equal(t, 7.0, CalculatePercentile([]int{7}, 99))
}

func TestCalculateMean(t *testing.T) {
	assert.Equal(t, 0.0, CalculateMean([]uint64{}))
	assert.InDelta(t, 2.5, CalculateMean([]int{1, 2, 3, 4}), 1e-9)
}
