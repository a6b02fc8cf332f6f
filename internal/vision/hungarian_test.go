package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHungarianAssign(t *testing.T) {
	t.Parallel()

	t.Run("empty matrix", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, HungarianAssign(nil))
	})

	t.Run("no columns", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []int{-1, -1}, HungarianAssign([][]float64{{}, {}}))
	})

	t.Run("simple diagonal optimum", func(t *testing.T) {
		t.Parallel()
		cost := [][]float64{
			{1, 10},
			{10, 1},
		}
		assert.Equal(t, []int{0, 1}, HungarianAssign(cost))
	})

	t.Run("swapped optimum", func(t *testing.T) {
		t.Parallel()
		cost := [][]float64{
			{10, 1},
			{1, 10},
		}
		assert.Equal(t, []int{1, 0}, HungarianAssign(cost))
	})

	t.Run("globally optimal beats greedy", func(t *testing.T) {
		t.Parallel()
		// Greedy would pair row 0 with col 0 (cost 1), forcing row 1 to
		// col 1 (cost 100, total 101). The optimal total is 2+3=5.
		cost := [][]float64{
			{1, 3},
			{2, 100},
		}
		assert.Equal(t, []int{1, 0}, HungarianAssign(cost))
	})

	t.Run("more rows than columns", func(t *testing.T) {
		t.Parallel()
		cost := [][]float64{
			{5},
			{1},
			{3},
		}
		got := HungarianAssign(cost)
		assert.Len(t, got, 3)
		assert.Equal(t, 0, got[1], "cheapest row should win the only column")
		assert.Equal(t, -1, got[0])
		assert.Equal(t, -1, got[2])
	})

	t.Run("forbidden pairs stay unassigned", func(t *testing.T) {
		t.Parallel()
		cost := [][]float64{
			{ForbiddenCost, ForbiddenCost},
			{1, ForbiddenCost},
		}
		got := HungarianAssign(cost)
		assert.Equal(t, -1, got[0])
		assert.Equal(t, 0, got[1])
	})
}
