package models

import "math"

// FeeSplit is the division of net sale proceeds between platform and creator
type FeeSplit struct {
	NetProfit    int64
	PlatformFee  int64
	CreatorShare int64
}

// ComputeFeeSplit splits a sale between platform and creator after production
// cost. Invariant: PlatformFee + CreatorShare == saleAmount - productionCost.
func ComputeFeeSplit(saleAmount, productionCost int64, feePercent float64) FeeSplit {
	netProfit := saleAmount - productionCost
	platformFee := int64(math.Round(float64(netProfit) * feePercent))
	return FeeSplit{
		NetProfit:    netProfit,
		PlatformFee:  platformFee,
		CreatorShare: netProfit - platformFee,
	}
}

// DeductionSplit is the result of spending credits across the two wallet
// buckets, bonus credits first
type DeductionSplit struct {
	FromBonus   int64
	FromBalance int64
	NewBonus    int64
	NewBalance  int64
}

// SplitDeduction spends amount from the wallet buckets, consuming bonus
// credits before paid balance. The caller must have verified
// amount <= balance + bonus.
func SplitDeduction(balance, bonus, amount int64) DeductionSplit {
	fromBonus := amount
	if fromBonus > bonus {
		fromBonus = bonus
	}
	fromBalance := amount - fromBonus
	return DeductionSplit{
		FromBonus:   fromBonus,
		FromBalance: fromBalance,
		NewBonus:    bonus - fromBonus,
		NewBalance:  balance - fromBalance,
	}
}
