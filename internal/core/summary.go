package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the dashboard headline aggregation for one user.
//
// TotalIncome, TotalExpenses and Balance always cover the entire history,
// regardless of any UI time filter: the balance is a running ledger total,
// not a window-scoped number. SpentToday covers expenses since local
// midnight in the app timezone; RemainingToday goes negative on overspend
// and the caller labels that state, it is not clamped here.
type Summary struct {
	TotalIncome    decimal.Decimal `json:"totalIncome"`
	TotalExpenses  decimal.Decimal `json:"totalExpenses"`
	Balance        decimal.Decimal `json:"balance"`
	DailyLimit     decimal.Decimal `json:"dailyLimit"`
	SpentToday     decimal.Decimal `json:"spentToday"`
	RemainingToday decimal.Decimal `json:"remainingToday"`
}

// Summarize computes the Summary for a user over their full transaction
// history. now is the reference instant; loc is the fixed deployment
// timezone the "today" boundary is computed in.
func Summarize(user User, transactions []Transaction, now time.Time, loc *time.Location) Summary {
	midnight := LocalMidnight(now, loc)

	income, expenses := decimal.Zero, decimal.Zero
	spentToday := decimal.Zero
	for _, t := range transactions {
		switch t.Type {
		case Income:
			income = income.Add(t.Amount)
		case Expense:
			expenses = expenses.Add(t.Amount)
			if !t.Date.Before(midnight) {
				spentToday = spentToday.Add(t.Amount)
			}
		}
	}

	return Summary{
		TotalIncome:    income,
		TotalExpenses:  expenses,
		Balance:        user.InitialBalance.Add(income).Sub(expenses),
		DailyLimit:     user.DailyLimit,
		SpentToday:     spentToday,
		RemainingToday: user.DailyLimit.Sub(spentToday),
	}
}
