package split

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Policy identifies the rule used to divide an expense among participants.
type Policy string

const (
	PolicyEqual      Policy = "equal"
	PolicyExact      Policy = "exact"
	PolicyPercentage Policy = "percentage"
)

// Participant is one person's entry in a split request. Amount is set for
// exact splits, Percentage for percentage splits; equal splits need only the
// name. Deduplication is the caller's responsibility.
type Participant struct {
	Name       string
	Amount     *decimal.Decimal
	Percentage *decimal.Decimal
}

// Obligation is the computed share for a single participant. For any policy
// the obligation amounts sum exactly to the expense total.
type Obligation struct {
	PersonName string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// Strategy is the interface all split policies implement.
type Strategy interface {
	// Compute produces one obligation per participant, in input order,
	// whose amounts sum exactly to totalAmount.
	Compute(totalAmount decimal.Decimal, participants []Participant) ([]Obligation, error)

	// Policy returns the policy identifier for this strategy.
	Policy() Policy

	// Validate checks if the inputs are valid for this strategy.
	Validate(totalAmount decimal.Decimal, participants []Participant) error
}

// Factory creates split strategies based on the requested policy.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy implementation for the given policy.
func (f *Factory) Create(policy Policy) (Strategy, error) {
	switch policy {
	case PolicyEqual:
		return &EqualStrategy{}, nil
	case PolicyExact:
		return &ExactStrategy{}, nil
	case PolicyPercentage:
		return &PercentageStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown split method: %s", policy)
	}
}

// CreateFromString creates a strategy from a string policy (useful for API requests).
func (f *Factory) CreateFromString(policy string) (Strategy, error) {
	return f.Create(Policy(policy))
}

var (
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrNonPositiveTotal     = errors.New("total amount must be greater than 0")
	ErrNonPositiveAmount    = errors.New("split amounts must be greater than 0")
	ErrMissingExactAmount   = errors.New("exact amount required for all participants")
	ErrInvalidExactAmounts  = errors.New("exact amounts must sum to the total amount")
	ErrMissingPercentage    = errors.New("percentage value required for all participants")
	ErrPercentageOutOfRange = errors.New("percentages must be between 0 and 100")
	ErrInvalidPercentages   = errors.New("percentages must sum to 100")
)

var (
	hundred = decimal.NewFromInt(100)

	// tolerance is the acceptable rounding slack on sums, one cent.
	tolerance = decimal.New(1, -2)
)

// roundCents rounds to 2 decimal places, half up.
func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
