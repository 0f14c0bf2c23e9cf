package split

import "github.com/shopspring/decimal"

// PercentageStrategy divides the expense according to caller-supplied
// percentages summing to 100 (within a cent of tolerance). Cumulative
// rounding drift is reconciled onto the last obligation so the amounts sum
// exactly to the total.
type PercentageStrategy struct{}

// Policy returns the split policy identifier.
func (s *PercentageStrategy) Policy() Policy {
	return PolicyPercentage
}

// Validate checks if the inputs are valid for a percentage split.
func (s *PercentageStrategy) Validate(totalAmount decimal.Decimal, participants []Participant) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	if !totalAmount.IsPositive() {
		return ErrNonPositiveTotal
	}

	sum := decimal.Zero
	for _, p := range participants {
		if p.Percentage == nil {
			return ErrMissingPercentage
		}
		if !p.Percentage.IsPositive() || p.Percentage.GreaterThan(hundred) {
			return ErrPercentageOutOfRange
		}
		sum = sum.Add(*p.Percentage)
	}

	if sum.Sub(hundred).Abs().GreaterThan(tolerance) {
		return ErrInvalidPercentages
	}

	return nil
}

// Compute derives each participant's amount from their percentage of the total.
func (s *PercentageStrategy) Compute(totalAmount decimal.Decimal, participants []Participant) ([]Obligation, error) {
	if err := s.Validate(totalAmount, participants); err != nil {
		return nil, err
	}

	obligations := make([]Obligation, len(participants))
	sum := decimal.Zero
	for i, p := range participants {
		percentage := roundCents(*p.Percentage)
		amount := totalAmount.Mul(percentage).DivRound(hundred, 2)
		sum = sum.Add(amount)
		obligations[i] = Obligation{
			PersonName: p.Name,
			Amount:     amount,
			Percentage: percentage,
		}
	}

	// The supplied percentages stay authoritative; only the last amount
	// absorbs rounding drift.
	diff := totalAmount.Sub(sum)
	if !diff.IsZero() {
		last := &obligations[len(obligations)-1]
		last.Amount = last.Amount.Add(diff)
	}

	return obligations, nil
}
