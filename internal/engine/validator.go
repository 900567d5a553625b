package engine

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"reverse-auction/internal/auctionerrors"
	"reverse-auction/internal/models"
)

const monetaryPrecision int32 = 4 // displayed ceilings are floored to 0.0001

var hundred = decimal.NewFromInt(100)

// Verdict is the outcome of validating one proposed bid.
type Verdict struct {
	Accepted bool
	Reason   models.RejectionReason
	// Ceiling is the highest admissible amount, nil for the first bid of an auction.
	Ceiling *float64
}

// ValidateRule checks that rule describes a positive, usable decrement.
func ValidateRule(rule models.DecrementRule) error {
	if math.IsNaN(rule.Value) || math.IsInf(rule.Value, 0) {
		return fmt.Errorf("engine: %w - value must be finite", auctionerrors.ErrInvalidRule)
	}
	switch rule.Kind {
	case models.RulePercent:
		if rule.Value <= 0 || rule.Value >= 100 {
			return fmt.Errorf("engine: %w - percent must be in (0, 100), got %v", auctionerrors.ErrInvalidRule, rule.Value)
		}
	case models.RuleFixed:
		if rule.Value <= 0 {
			return fmt.Errorf("engine: %w - fixed decrement must be positive, got %v", auctionerrors.ErrInvalidRule, rule.Value)
		}
	default:
		return fmt.Errorf("engine: %w - unknown kind %q", auctionerrors.ErrInvalidRule, rule.Kind)
	}
	return nil
}

// Ceiling returns the highest amount a bid may have to beat currentBest under rule,
// rounded down to monetary precision for display. Admission uses the exact value.
func Ceiling(currentBest float64, rule models.DecrementRule) decimal.Decimal {
	best := decimal.NewFromFloat(currentBest)
	value := decimal.NewFromFloat(rule.Value)

	var ceiling decimal.Decimal
	switch rule.Kind {
	case models.RulePercent:
		ceiling = best.Mul(hundred.Sub(value)).Div(hundred)
	case models.RuleFixed:
		ceiling = best.Sub(value)
	default:
		ceiling = best
	}
	return ceiling.RoundFloor(monetaryPrecision)
}

// withinCeiling reports proposed <= ceiling without rounding either side.
// The percent case is compared scaled by 100 so no division is involved.
func withinCeiling(currentBest, proposed float64, rule models.DecrementRule) bool {
	best := decimal.NewFromFloat(currentBest)
	value := decimal.NewFromFloat(rule.Value)
	amount := decimal.NewFromFloat(proposed)

	switch rule.Kind {
	case models.RulePercent:
		return amount.Mul(hundred).LessThanOrEqual(best.Mul(hundred.Sub(value)))
	case models.RuleFixed:
		return amount.LessThanOrEqual(best.Sub(value))
	default:
		return amount.LessThanOrEqual(best)
	}
}

// ValidateBid decides whether proposed is admissible given the auction's current best bid.
// A nil currentBest means no bid has been accepted yet. The comparison is inclusive,
// a bid exactly at the ceiling is accepted. ValidateBid has no side effects.
func ValidateBid(currentBest *float64, proposed float64, rule models.DecrementRule) Verdict {
	if math.IsNaN(proposed) || math.IsInf(proposed, 0) {
		return Verdict{Reason: models.ReasonInvalidAmount}
	}
	if proposed <= 0 {
		return Verdict{Reason: models.ReasonNonPositiveAmount}
	}
	if currentBest == nil {
		return Verdict{Accepted: true}
	}

	limit := Ceiling(*currentBest, rule).InexactFloat64()
	if !withinCeiling(*currentBest, proposed, rule) {
		return Verdict{Reason: models.ReasonInsufficientDecrement, Ceiling: &limit}
	}
	return Verdict{Accepted: true, Ceiling: &limit}
}
