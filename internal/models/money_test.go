package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFeeSplit(t *testing.T) {
	// digital sale: no production cost, 15% platform fee
	split := ComputeFeeSplit(2000, 0, 0.15)

	assert.Equal(t, int64(2000), split.NetProfit)
	assert.Equal(t, int64(300), split.PlatformFee)
	assert.Equal(t, int64(1700), split.CreatorShare)
}

func TestComputeFeeSplitWithProductionCost(t *testing.T) {
	split := ComputeFeeSplit(3500, 1200, 0.15)

	assert.Equal(t, int64(2300), split.NetProfit)
	assert.Equal(t, int64(345), split.PlatformFee)
	assert.Equal(t, int64(1955), split.CreatorShare)
}

func TestComputeFeeSplitConservesTotal(t *testing.T) {
	cases := []struct {
		sale, cost int64
		fee        float64
	}{
		{2000, 0, 0.15},
		{999, 0, 0.15},
		{1, 0, 0.15},
		{3500, 1200, 0.15},
		{101, 100, 0.30},
		{5000, 4999, 0.10},
		{7777, 0, 0.125},
	}

	for _, tc := range cases {
		split := ComputeFeeSplit(tc.sale, tc.cost, tc.fee)
		assert.Equal(t, tc.sale-tc.cost, split.PlatformFee+split.CreatorShare,
			"sale=%d cost=%d fee=%v", tc.sale, tc.cost, tc.fee)
	}
}

func TestComputeFeeSplitRoundsHalfUp(t *testing.T) {
	// net profit 10 at 15% -> fee 1.5 rounds to 2
	split := ComputeFeeSplit(10, 0, 0.15)
	assert.Equal(t, int64(2), split.PlatformFee)
	assert.Equal(t, int64(8), split.CreatorShare)
}

func TestSplitDeductionBonusFirst(t *testing.T) {
	split := SplitDeduction(100, 20, 25)

	assert.Equal(t, int64(20), split.FromBonus)
	assert.Equal(t, int64(5), split.FromBalance)
	assert.Equal(t, int64(0), split.NewBonus)
	assert.Equal(t, int64(95), split.NewBalance)
}

func TestSplitDeductionBonusCoversAll(t *testing.T) {
	split := SplitDeduction(100, 50, 30)

	assert.Equal(t, int64(30), split.FromBonus)
	assert.Equal(t, int64(0), split.FromBalance)
	assert.Equal(t, int64(20), split.NewBonus)
	assert.Equal(t, int64(100), split.NewBalance)
}

func TestSplitDeductionNoBonus(t *testing.T) {
	split := SplitDeduction(80, 0, 80)

	assert.Equal(t, int64(0), split.FromBonus)
	assert.Equal(t, int64(80), split.FromBalance)
	assert.Equal(t, int64(0), split.NewBalance)
}
