package expense

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/expense/split"
)

// Error codes returned to the boundary.
const (
	CodeInvalidAmount    = "INVALID_AMOUNT"
	CodeInvalidPolicy    = "INVALID_POLICY"
	CodeValidationFailed = "VALIDATION_FAILED"
)

// sumTolerance is the acceptable slack on split and percentage sums.
var sumTolerance = decimal.New(1, -2)

// ValidationError carries every violated rule, not just the first, so a
// client can fix all issues in one round trip.
type ValidationError struct {
	Code   string
	Issues []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Issues, "; ")
}

// validator collects issues and tracks which error category they belong to.
type validator struct {
	issues []string
	codes  map[string]bool
}

func (v *validator) add(code, format string, args ...interface{}) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
	if v.codes == nil {
		v.codes = make(map[string]bool)
	}
	v.codes[code] = true
}

// err returns the collected failure, or nil. Mixed categories collapse to
// VALIDATION_FAILED.
func (v *validator) err() error {
	if len(v.issues) == 0 {
		return nil
	}
	code := CodeValidationFailed
	if len(v.codes) == 1 {
		for c := range v.codes {
			code = c
		}
	}
	return &ValidationError{Code: code, Issues: v.issues}
}

// validateCreate checks a fully-populated expense request before anything
// reaches the split engine or the store.
func validateCreate(req *CreateExpenseRequest) error {
	v := &validator{}

	if req.Amount == nil {
		v.add(CodeInvalidAmount, "amount is required")
	} else if *req.Amount <= 0 {
		v.add(CodeInvalidAmount, "amount must be greater than 0")
	}

	if strings.TrimSpace(req.Description) == "" {
		v.add(CodeValidationFailed, "description is required and cannot be empty")
	}

	if strings.TrimSpace(req.PaidBy) == "" {
		v.add(CodeValidationFailed, "paid_by is required and cannot be empty")
	}

	method := req.SplitMethod
	if method == "" {
		method = string(split.PolicyEqual)
	}
	switch split.Policy(method) {
	case split.PolicyEqual:
		// Participants are optional; the payer is always included.
	case split.PolicyExact, split.PolicyPercentage:
		if len(req.Splits) == 0 {
			v.add(CodeInvalidPolicy, "splits array is required for %s split method", method)
		} else {
			validateSplits(v, req.Splits, split.Policy(method), req.Amount)
		}
	default:
		v.add(CodeInvalidPolicy, "split_method must be one of: equal, exact, percentage")
	}

	return v.err()
}

// validateSplits checks the splits array for exact and percentage methods.
func validateSplits(v *validator, splits []SplitInput, policy split.Policy, totalAmount *float64) {
	seen := make(map[string]bool)
	for _, s := range splits {
		person := strings.TrimSpace(s.Person)
		if person == "" {
			v.add(CodeValidationFailed, "each split must have a person name")
			continue
		}
		if seen[person] {
			v.add(CodeValidationFailed, "duplicate person '%s' in splits", person)
		}
		seen[person] = true
	}

	switch policy {
	case split.PolicyExact:
		sum := decimal.Zero
		for _, s := range splits {
			if s.Amount == nil || *s.Amount <= 0 {
				v.add(CodeValidationFailed, "split amount for %s must be greater than 0", nameOrUnknown(s.Person))
				continue
			}
			sum = sum.Add(decimal.NewFromFloat(*s.Amount))
		}
		if totalAmount != nil {
			total := decimal.NewFromFloat(*totalAmount)
			if sum.Sub(total).Abs().GreaterThan(sumTolerance) {
				v.add(CodeValidationFailed, "split amounts (%s) must equal total expense amount (%s)", sum, total)
			}
		}

	case split.PolicyPercentage:
		sum := decimal.Zero
		for _, s := range splits {
			if s.Percentage == nil || *s.Percentage <= 0 || *s.Percentage > 100 {
				v.add(CodeValidationFailed, "percentage for %s must be between 0 and 100", nameOrUnknown(s.Person))
				continue
			}
			sum = sum.Add(decimal.NewFromFloat(*s.Percentage))
		}
		if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(sumTolerance) {
			v.add(CodeValidationFailed, "percentages must total 100%% (current total: %s%%)", sum)
		}
	}
}

func nameOrUnknown(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	return name
}
