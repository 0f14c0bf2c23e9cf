package settlement

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/models"
)

// Balance is a person's net position: total paid across all expenses minus
// the fair share assigned to them by splits. Positive means they are owed
// money, negative means they owe money.
type Balance struct {
	PersonID  int64
	Name      string
	TotalPaid decimal.Decimal
	FairShare decimal.Decimal
	Balance   decimal.Decimal
}

// Settlement is one recommended payment from a debtor to a creditor.
type Settlement struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// settleThreshold is the residual under which a balance counts as settled.
// Anything below a cent is rounding slack, not real debt.
var settleThreshold = decimal.New(1, -2)

// ComputeBalances aggregates every person's position from the full expense
// and split collections. People with no activity still appear with zero
// values. The result preserves the order of the people slice and the
// computation has no side effects.
func ComputeBalances(people []models.Person, expenses []models.Expense, splits []models.ExpenseSplit) []Balance {
	balances := make([]Balance, len(people))
	index := make(map[int64]int, len(people))
	for i, p := range people {
		balances[i] = Balance{
			PersonID:  p.ID,
			Name:      p.Name,
			TotalPaid: decimal.Zero,
			FairShare: decimal.Zero,
		}
		index[p.ID] = i
	}

	for _, e := range expenses {
		if i, ok := index[e.PaidByID]; ok {
			balances[i].TotalPaid = balances[i].TotalPaid.Add(e.Amount)
		}
	}

	for _, s := range splits {
		if i, ok := index[s.PersonID]; ok {
			balances[i].FairShare = balances[i].FairShare.Add(s.Amount)
		}
	}

	for i := range balances {
		balances[i].Balance = balances[i].TotalPaid.Sub(balances[i].FairShare)
	}

	return balances
}

// party is one side of the greedy matching, with the amount still unsettled.
type party struct {
	name   string
	amount decimal.Decimal
}

// ComputeSettlements reduces the balances to an ordered list of payments
// that zero out every position. The greedy largest-first matching emits at
// most creditors+debtors-1 settlements; it does not guarantee the
// theoretical minimum (that problem is NP-hard) but is a standard
// good-enough heuristic. Ties on amount break by name ascending so the
// output is deterministic.
func ComputeSettlements(balances []Balance) []Settlement {
	var creditors, debtors []party

	for _, b := range balances {
		amount := b.Balance.Round(2)
		switch {
		case amount.IsPositive():
			creditors = append(creditors, party{name: b.Name, amount: amount})
		case amount.IsNegative():
			debtors = append(debtors, party{name: b.Name, amount: amount.Abs()})
		}
	}

	byAmountDesc := func(parties []party) func(i, j int) bool {
		return func(i, j int) bool {
			if !parties[i].amount.Equal(parties[j].amount) {
				return parties[i].amount.GreaterThan(parties[j].amount)
			}
			return parties[i].name < parties[j].name
		}
	}
	sort.Slice(creditors, byAmountDesc(creditors))
	sort.Slice(debtors, byAmountDesc(debtors))

	var settlements []Settlement
	i, j := 0, 0

	for i < len(creditors) && j < len(debtors) {
		creditor := &creditors[i]
		debtor := &debtors[j]

		amount := decimal.Min(creditor.amount, debtor.amount)
		if amount.GreaterThan(settleThreshold) {
			settlements = append(settlements, Settlement{
				From:   debtor.name,
				To:     creditor.name,
				Amount: amount,
			})
			creditor.amount = creditor.amount.Sub(amount)
			debtor.amount = debtor.amount.Sub(amount)
		}

		// Both cursors may advance in the same iteration when the
		// amounts were equal.
		if creditor.amount.LessThanOrEqual(settleThreshold) {
			i++
		}
		if debtor.amount.LessThanOrEqual(settleThreshold) {
			j++
		}
	}

	return settlements
}
