package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGovernorBatchWholeOrNotAtAll charges only batches that fit completely.
func TestGovernorBatchWholeOrNotAtAll(t *testing.T) {
	g := NewGovernor(10)

	for _, cost := range []int{4, 4, 4} {
		if g.CanAfford(cost) {
			g.Charge(cost)
		}
	}

	assert.Equal(t, 8, g.Spent())
	assert.Equal(t, 2, g.Remaining())
	assert.False(t, g.CanAfford(3))
	assert.True(t, g.CanAfford(2))
}

// TestGovernorExactBudget allows a batch that consumes the budget exactly.
func TestGovernorExactBudget(t *testing.T) {
	g := NewGovernor(5)

	assert.True(t, g.CanAfford(5))
	g.Charge(5)
	assert.Equal(t, 0, g.Remaining())
	assert.False(t, g.CanAfford(1))
	assert.True(t, g.CanAfford(0))
}

// TestGovernorZeroBudget affords nothing but zero-cost batches.
func TestGovernorZeroBudget(t *testing.T) {
	g := NewGovernor(0)

	assert.False(t, g.CanAfford(1))
	assert.True(t, g.CanAfford(0))
	assert.Equal(t, 0, g.Remaining())
}
