package split

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func sumAmounts(obligations []Obligation) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range obligations {
		sum = sum.Add(o.Amount)
	}
	return sum
}

func TestEqualStrategy(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []Participant
		wantErr      error
		wantAmounts  []string
		wantPct      string
	}{
		{
			name:         "ten among three, remainder on the last",
			total:        "10.00",
			participants: []Participant{{Name: "A"}, {Name: "B"}, {Name: "C"}},
			wantAmounts:  []string{"3.33", "3.33", "3.34"},
			wantPct:      "33.33",
		},
		{
			name:         "single participant takes everything",
			total:        "42.50",
			participants: []Participant{{Name: "A"}},
			wantAmounts:  []string{"42.50"},
			wantPct:      "100",
		},
		{
			name:         "even division has no remainder",
			total:        "100.00",
			participants: []Participant{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}},
			wantAmounts:  []string{"25", "25", "25", "25"},
			wantPct:      "25",
		},
		{
			name:         "no participants",
			total:        "10.00",
			participants: nil,
			wantErr:      ErrNoParticipants,
		},
		{
			name:         "zero total",
			total:        "0",
			participants: []Participant{{Name: "A"}},
			wantErr:      ErrNonPositiveTotal,
		},
		{
			name:         "negative total",
			total:        "-5.00",
			participants: []Participant{{Name: "A"}},
			wantErr:      ErrNonPositiveTotal,
		},
	}

	strategy := &EqualStrategy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := strategy.Compute(dec(tt.total), tt.participants)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Compute() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if len(got) != len(tt.wantAmounts) {
				t.Fatalf("Compute() returned %d obligations, want %d", len(got), len(tt.wantAmounts))
			}
			for i, want := range tt.wantAmounts {
				if !got[i].Amount.Equal(dec(want)) {
					t.Errorf("obligation[%d].Amount = %s, want %s", i, got[i].Amount, want)
				}
				if !got[i].Percentage.Equal(dec(tt.wantPct)) {
					t.Errorf("obligation[%d].Percentage = %s, want %s", i, got[i].Percentage, tt.wantPct)
				}
				if got[i].PersonName != tt.participants[i].Name {
					t.Errorf("obligation[%d].PersonName = %s, want %s", i, got[i].PersonName, tt.participants[i].Name)
				}
			}
			if !sumAmounts(got).Equal(dec(tt.total)) {
				t.Errorf("sum of amounts = %s, want %s", sumAmounts(got), tt.total)
			}
		})
	}
}

// The sum invariant must hold to the cent for every group size, including
// the awkward divisions.
func TestEqualStrategySumInvariant(t *testing.T) {
	strategy := &EqualStrategy{}
	totals := []string{"10.00", "0.01", "99.99", "1234.56", "0.05"}

	for _, total := range totals {
		for n := 1; n <= 100; n++ {
			participants := make([]Participant, n)
			for i := range participants {
				participants[i] = Participant{Name: fmt.Sprintf("p%d", i)}
			}

			got, err := strategy.Compute(dec(total), participants)
			if err != nil {
				t.Fatalf("Compute(%s, n=%d) error = %v", total, n, err)
			}
			if !sumAmounts(got).Equal(dec(total)) {
				t.Errorf("Compute(%s, n=%d): sum = %s, want %s", total, n, sumAmounts(got), total)
			}
		}
	}
}

func TestExactStrategy(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []Participant
		wantErr      error
		validateFunc func(t *testing.T, got []Obligation)
	}{
		{
			name:  "round trip preserves supplied amounts",
			total: "10.00",
			participants: []Participant{
				{Name: "A", Amount: decPtr("3.33")},
				{Name: "B", Amount: decPtr("3.33")},
				{Name: "C", Amount: decPtr("3.34")},
			},
			validateFunc: func(t *testing.T, got []Obligation) {
				wantAmounts := []string{"3.33", "3.33", "3.34"}
				wantPcts := []string{"33.30", "33.30", "33.40"}
				for i := range got {
					if !got[i].Amount.Equal(dec(wantAmounts[i])) {
						t.Errorf("obligation[%d].Amount = %s, want %s", i, got[i].Amount, wantAmounts[i])
					}
					if !got[i].Percentage.Equal(dec(wantPcts[i])) {
						t.Errorf("obligation[%d].Percentage = %s, want %s", i, got[i].Percentage, wantPcts[i])
					}
				}
			},
		},
		{
			name:  "sub-cent input drift is reconciled onto the last obligation",
			total: "10.00",
			participants: []Participant{
				{Name: "A", Amount: decPtr("3.333")},
				{Name: "B", Amount: decPtr("3.333")},
				{Name: "C", Amount: decPtr("3.333")},
			},
			validateFunc: func(t *testing.T, got []Obligation) {
				if !sumAmounts(got).Equal(dec("10.00")) {
					t.Errorf("sum of amounts = %s, want 10.00", sumAmounts(got))
				}
				// 3.333 rounds to 3.33 three times; the missing cent
				// lands on C.
				if !got[2].Amount.Equal(dec("3.34")) {
					t.Errorf("last amount = %s, want 3.34", got[2].Amount)
				}
			},
		},
		{
			name:  "missing amount",
			total: "10.00",
			participants: []Participant{
				{Name: "A", Amount: decPtr("5.00")},
				{Name: "B"},
			},
			wantErr: ErrMissingExactAmount,
		},
		{
			name:  "non-positive amount",
			total: "10.00",
			participants: []Participant{
				{Name: "A", Amount: decPtr("10.00")},
				{Name: "B", Amount: decPtr("0")},
			},
			wantErr: ErrNonPositiveAmount,
		},
		{
			name:  "amounts beyond tolerance",
			total: "10.00",
			participants: []Participant{
				{Name: "A", Amount: decPtr("5.00")},
				{Name: "B", Amount: decPtr("4.00")},
			},
			wantErr: ErrInvalidExactAmounts,
		},
		{
			name:         "no participants",
			total:        "10.00",
			participants: nil,
			wantErr:      ErrNoParticipants,
		},
	}

	strategy := &ExactStrategy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := strategy.Compute(dec(tt.total), tt.participants)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Compute() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if !sumAmounts(got).Equal(dec(tt.total)) {
				t.Errorf("sum of amounts = %s, want %s", sumAmounts(got), tt.total)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, got)
			}
		})
	}
}

func TestPercentageStrategy(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []Participant
		wantErr      error
		validateFunc func(t *testing.T, got []Obligation)
	}{
		{
			name:  "thirty thirty forty",
			total: "100.00",
			participants: []Participant{
				{Name: "A", Percentage: decPtr("30")},
				{Name: "B", Percentage: decPtr("30")},
				{Name: "C", Percentage: decPtr("40")},
			},
			validateFunc: func(t *testing.T, got []Obligation) {
				wantAmounts := []string{"30.00", "30.00", "40.00"}
				for i := range got {
					if !got[i].Amount.Equal(dec(wantAmounts[i])) {
						t.Errorf("obligation[%d].Amount = %s, want %s", i, got[i].Amount, wantAmounts[i])
					}
				}
			},
		},
		{
			name:  "thirds drift reconciled onto the last obligation",
			total: "100.00",
			participants: []Participant{
				{Name: "A", Percentage: decPtr("33.33")},
				{Name: "B", Percentage: decPtr("33.33")},
				{Name: "C", Percentage: decPtr("33.34")},
			},
			validateFunc: func(t *testing.T, got []Obligation) {
				if !sumAmounts(got).Equal(dec("100.00")) {
					t.Errorf("sum of amounts = %s, want 100.00", sumAmounts(got))
				}
				// The supplied percentages stay untouched.
				if !got[2].Percentage.Equal(dec("33.34")) {
					t.Errorf("last percentage = %s, want 33.34", got[2].Percentage)
				}
			},
		},
		{
			name:  "missing percentage",
			total: "100.00",
			participants: []Participant{
				{Name: "A", Percentage: decPtr("50")},
				{Name: "B"},
			},
			wantErr: ErrMissingPercentage,
		},
		{
			name:  "percentage over 100",
			total: "100.00",
			participants: []Participant{
				{Name: "A", Percentage: decPtr("150")},
			},
			wantErr: ErrPercentageOutOfRange,
		},
		{
			name:  "non-positive percentage",
			total: "100.00",
			participants: []Participant{
				{Name: "A", Percentage: decPtr("100")},
				{Name: "B", Percentage: decPtr("0")},
			},
			wantErr: ErrPercentageOutOfRange,
		},
		{
			name:  "percentages beyond tolerance",
			total: "100.00",
			participants: []Participant{
				{Name: "A", Percentage: decPtr("50")},
				{Name: "B", Percentage: decPtr("40")},
			},
			wantErr: ErrInvalidPercentages,
		},
	}

	strategy := &PercentageStrategy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := strategy.Compute(dec(tt.total), tt.participants)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Compute() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if !sumAmounts(got).Equal(dec(tt.total)) {
				t.Errorf("sum of amounts = %s, want %s", sumAmounts(got), tt.total)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, got)
			}
		})
	}
}

func TestFactory(t *testing.T) {
	f := NewFactory()

	for _, policy := range []Policy{PolicyEqual, PolicyExact, PolicyPercentage} {
		strategy, err := f.Create(policy)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", policy, err)
		}
		if strategy.Policy() != policy {
			t.Errorf("Create(%s).Policy() = %s", policy, strategy.Policy())
		}
	}

	if _, err := f.CreateFromString("median"); err == nil {
		t.Error("CreateFromString(median) expected an error")
	}
}
