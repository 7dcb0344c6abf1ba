package services

import (
	"fmt"
	"math"

	"github.com/prendasoft/prenda-api/internal/models"
)

// Charge calculators are pure: no I/O, no clock, same inputs always
// produce the same outputs. Callers validate principal > 0 before calling.

// ComputeInterest returns simple, non-compounding interest for the given
// number of periods (interest is collected in advance per term)
func ComputeInterest(principal, rate float64, periods int) float64 {
	return round2(principal * rate * float64(periods))
}

// ComputePenalty returns the penalty owed for daysOverdue days past
// maturity. Within the grace period nothing is owed; below the daily
// threshold the penalty is pro-rated per day; at or beyond the threshold a
// flat month's penalty applies regardless of the exact day count, capped at
// maxMultiplier months.
func ComputePenalty(principal float64, daysOverdue int, cfg *ChargeConfig) float64 {
	if daysOverdue <= cfg.GracePeriodDays {
		return 0
	}

	monthly := principal * cfg.MonthlyPenaltyRate

	var penalty float64
	if daysOverdue < cfg.DailyPenaltyThresholdDays {
		penalty = monthly / 30 * float64(daysOverdue)
	} else {
		penalty = monthly
	}

	cap := monthly * cfg.MaxPenaltyMultiplier
	if penalty > cap {
		penalty = cap
	}

	return round2(penalty)
}

// ComputeServiceCharge returns the flat charge of the first bracket
// containing principal. Brackets must arrive in ascending min-amount order.
// No matching bracket means the configuration has a gap, which is an error,
// not a zero charge.
func ComputeServiceCharge(principal float64, brackets []models.ServiceChargeBracket) (float64, error) {
	for i := range brackets {
		if brackets[i].Contains(principal) {
			return brackets[i].Charge, nil
		}
	}
	return 0, fmt.Errorf("%w: no service charge bracket covers amount %.2f", ErrConfiguration, principal)
}

// round2 rounds to cents
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
