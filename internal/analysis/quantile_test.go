package analysis

import (
	"errors"
	"math"
	"testing"

	"labsolver/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentQuantile_TableValues(t *testing.T) {
	// Two-sided critical values from standard t tables
	tests := []struct {
		level float64
		n     int
		want  float64
	}{
		{0.95, 2, 12.706},
		{0.95, 3, 4.303},
		{0.95, 5, 2.776},
		{0.95, 11, 2.228},
		{0.95, 31, 2.042},
		{0.99, 10, 3.250},
		{0.90, 6, 2.015},
	}
	for _, test := range tests {
		got, err := StudentQuantile(test.level, test.n)
		require.NoError(t, err)
		assert.InDelta(t, test.want, got, 5e-4, "t(%v, %d)", test.level, test.n)
	}
}

func TestStudentQuantileInf_ApproachesNormal(t *testing.T) {
	got, err := StudentQuantileInf(0.95)
	require.NoError(t, err)
	assert.InDelta(t, 1.960, got, 1e-3)
}

func TestStudentQuantile_IncreasingInLevel(t *testing.T) {
	for _, n := range []int{2, 3, 7, 30, InfiniteSampleSize} {
		prev := 0.0
		for _, level := range []float64{0.5, 0.68, 0.8, 0.9, 0.95, 0.99, 0.999} {
			q, err := StudentQuantile(level, n)
			require.NoError(t, err)
			assert.Greater(t, q, prev, "n=%d level=%v", n, level)
			prev = q
		}
	}
}

func TestStudentQuantile_DecreasingInSampleSize(t *testing.T) {
	for _, level := range []float64{0.68, 0.95, 0.99} {
		limit, err := StudentQuantileInf(level)
		require.NoError(t, err)

		prev := math.Inf(1)
		for _, n := range []int{2, 3, 4, 5, 10, 20, 50, 100, 1000} {
			q, err := StudentQuantile(level, n)
			require.NoError(t, err)
			assert.Less(t, q, prev, "level=%v n=%d", level, n)
			assert.Greater(t, q, limit, "level=%v n=%d", level, n)
			prev = q
		}
	}
}

func TestStudentQuantile_InvalidInput(t *testing.T) {
	cases := []struct {
		level float64
		n     int
	}{
		{0, 5},
		{-0.1, 5},
		{1.01, 5},
		{math.NaN(), 5},
		{0.95, 1},
		{0.95, 0},
		{0.95, -3},
	}
	for _, c := range cases {
		_, err := StudentQuantile(c.level, c.n)
		assert.True(t, errors.Is(err, core.ErrInvalidQuantileInput), "level=%v n=%d err=%v", c.level, c.n, err)
	}
}

func TestStudentQuantile_FullConfidence(t *testing.T) {
	q, err := StudentQuantile(1, 5)
	require.NoError(t, err)
	assert.True(t, math.IsInf(q, 1))
}
