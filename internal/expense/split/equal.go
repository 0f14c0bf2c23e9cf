package split

import "github.com/shopspring/decimal"

// EqualStrategy divides the expense evenly among all participants. The
// per-head share is rounded to cents and assigned to the first N-1
// participants; the last participant takes the remainder, so the amounts
// always sum exactly to the total (10.00 / 3 -> 3.33, 3.33, 3.34).
type EqualStrategy struct{}

// Policy returns the split policy identifier.
func (s *EqualStrategy) Policy() Policy {
	return PolicyEqual
}

// Validate checks if the inputs are valid for an equal split.
func (s *EqualStrategy) Validate(totalAmount decimal.Decimal, participants []Participant) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	if !totalAmount.IsPositive() {
		return ErrNonPositiveTotal
	}
	return nil
}

// Compute assigns each participant an equal share of the total.
func (s *EqualStrategy) Compute(totalAmount decimal.Decimal, participants []Participant) ([]Obligation, error) {
	if err := s.Validate(totalAmount, participants); err != nil {
		return nil, err
	}

	n := decimal.NewFromInt(int64(len(participants)))
	share := totalAmount.DivRound(n, 2)

	// The mathematical percentage, rounded independently of the amounts.
	percentage := hundred.DivRound(n, 2)

	// Remainder after the first N-1 shares; lands on the last participant.
	lastShare := totalAmount.Sub(share.Mul(n.Sub(decimal.NewFromInt(1))))

	obligations := make([]Obligation, len(participants))
	for i, p := range participants {
		amount := share
		if i == len(participants)-1 {
			amount = lastShare
		}
		obligations[i] = Obligation{
			PersonName: p.Name,
			Amount:     amount,
			Percentage: percentage,
		}
	}

	return obligations, nil
}
