package split

import "github.com/shopspring/decimal"

// ExactStrategy uses caller-supplied per-person amounts. The boundary layer
// guarantees the amounts sum to the total within a cent; after rounding each
// amount to cents this strategy reconciles any residual drift onto the last
// obligation so the stored amounts sum exactly to the total.
type ExactStrategy struct{}

// Policy returns the split policy identifier.
func (s *ExactStrategy) Policy() Policy {
	return PolicyExact
}

// Validate checks if the inputs are valid for an exact split.
func (s *ExactStrategy) Validate(totalAmount decimal.Decimal, participants []Participant) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	if !totalAmount.IsPositive() {
		return ErrNonPositiveTotal
	}

	sum := decimal.Zero
	for _, p := range participants {
		if p.Amount == nil {
			return ErrMissingExactAmount
		}
		if !p.Amount.IsPositive() {
			return ErrNonPositiveAmount
		}
		sum = sum.Add(*p.Amount)
	}

	if sum.Sub(totalAmount).Abs().GreaterThan(tolerance) {
		return ErrInvalidExactAmounts
	}

	return nil
}

// Compute creates one obligation per participant with the supplied amount
// and a derived percentage.
func (s *ExactStrategy) Compute(totalAmount decimal.Decimal, participants []Participant) ([]Obligation, error) {
	if err := s.Validate(totalAmount, participants); err != nil {
		return nil, err
	}

	obligations := make([]Obligation, len(participants))
	sum := decimal.Zero
	for i, p := range participants {
		amount := roundCents(*p.Amount)
		sum = sum.Add(amount)
		obligations[i] = Obligation{
			PersonName: p.Name,
			Amount:     amount,
			Percentage: amount.Mul(hundred).DivRound(totalAmount, 2),
		}
	}

	// Absorb any rounding drift into the last obligation and recompute
	// its derived percentage, so the stored sum matches the total to the
	// cent.
	diff := totalAmount.Sub(sum)
	if !diff.IsZero() {
		last := &obligations[len(obligations)-1]
		last.Amount = last.Amount.Add(diff)
		last.Percentage = last.Amount.Mul(hundred).DivRound(totalAmount, 2)
	}

	return obligations, nil
}
