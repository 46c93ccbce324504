package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// The view builders below are pure functions of a transaction list plus the
// resolved window or filter selections. Nothing here is stateful across
// calls and the input slice is never mutated.

// BalancePoint is one day of the running-balance trend series.
type BalancePoint struct {
	Label    string          `json:"label"`
	FullDate string          `json:"fullDate"`
	Date     time.Time       `json:"date"`
	Balance  decimal.Decimal `json:"balance"`
}

// DailyPoint is one day of the income-vs-expense comparison series.
type DailyPoint struct {
	Label    string          `json:"label"`
	FullDate string          `json:"fullDate"`
	Date     time.Time       `json:"date"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
}

// CategoryTotal is an expense sum for one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// WindowTotals sums transactions whose date falls in [start, end] by type.
// With bounded false the whole list is summed. These are the window-scoped
// Income/Expenses dashboard cards, deliberately distinct from the all-time
// balance shown next to them.
func WindowTotals(transactions []Transaction, start, end time.Time, bounded bool) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, t := range transactions {
		if bounded && (t.Date.Before(start) || t.Date.After(end)) {
			continue
		}
		if t.Type == Income {
			income = income.Add(t.Amount)
		} else {
			expense = expense.Add(t.Amount)
		}
	}
	return income, expense
}

// BalanceSeries builds the running-balance trend over the window from the
// full, unfiltered history. Every transaction dated strictly before the
// window's first day is replayed into a carry-in balance, then each calendar
// day in the window emits one point carrying that day's net. Days without
// transactions still emit a point. Order among same-day transactions is
// irrelevant since only the day's sum matters.
func BalanceSeries(transactions []Transaction, initialBalance decimal.Decimal, w Window) []BalancePoint {
	loc := w.Start.Location()

	sorted := make([]Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	running := initialBalance
	firstDay := startOfDay(w.Start)
	idx := 0
	for ; idx < len(sorted); idx++ {
		if !sorted[idx].Date.In(loc).Before(firstDay) {
			break
		}
		running = running.Add(sorted[idx].signed())
	}
	remaining := sorted[idx:]

	days := w.Days()
	series := make([]BalancePoint, 0, len(days))
	for _, day := range days {
		for _, t := range remaining {
			if sameDay(t.Date.In(loc), day) {
				running = running.Add(t.signed())
			}
		}
		series = append(series, BalancePoint{
			Label:    day.Format(w.LabelFormat),
			FullDate: day.Format(FullDateFormat),
			Date:     day,
			Balance:  running,
		})
	}
	return series
}

// DailySeries builds the per-day income/expense comparison over the window.
// One point per calendar day, zero-valued on quiet days.
func DailySeries(transactions []Transaction, w Window) []DailyPoint {
	loc := w.Start.Location()
	days := w.Days()
	series := make([]DailyPoint, 0, len(days))
	for _, day := range days {
		income, expense := decimal.Zero, decimal.Zero
		for _, t := range transactions {
			if !sameDay(t.Date.In(loc), day) {
				continue
			}
			if t.Type == Income {
				income = income.Add(t.Amount)
			} else {
				expense = expense.Add(t.Amount)
			}
		}
		series = append(series, DailyPoint{
			Label:    day.Format(w.LabelFormat),
			FullDate: day.Format(FullDateFormat),
			Date:     day,
			Income:   income,
			Expense:  expense,
		})
	}
	return series
}

// CategoryTotals sums expense amounts grouped by category over whatever set
// is passed in (typically already window-filtered). Income is ignored and
// categories without expenses are simply absent, no zero padding. Output
// order is first appearance in the input.
func CategoryTotals(transactions []Transaction) []CategoryTotal {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, t := range transactions {
		if t.Type != Expense {
			continue
		}
		if _, seen := totals[t.Category]; !seen {
			order = append(order, t.Category)
		}
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}
	out := make([]CategoryTotal, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryTotal{Category: c, Total: totals[c]})
	}
	return out
}

// TableFilter holds the transaction table's independent predicate filters.
// Zero values mean "all". Month is a "2006-01" tag matched against the
// transaction's calendar month.
type TableFilter struct {
	Month    string
	Type     TransactionType
	Category string
}

// FilterTransactions applies the table filters, AND-composed. The filters
// are independent predicates, so application order never changes the result.
// Month is a calendar concept, so dates resolve in loc before matching; a
// nil loc falls back to UTC.
func FilterTransactions(transactions []Transaction, f TableFilter, loc *time.Location) []Transaction {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]Transaction, 0, len(transactions))
	for _, t := range transactions {
		if f.Month != "" && t.Date.In(loc).Format("2006-01") != f.Month {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SortKey selects the transaction table's total-order sort.
type SortKey string

const (
	SortDateDesc   SortKey = "dateDesc"
	SortDateAsc    SortKey = "dateAsc"
	SortAmountDesc SortKey = "amountDesc"
	SortAmountAsc  SortKey = "amountAsc"
)

// SortTransactions returns a new slice sorted by the given key. The sort is
// stable, so repeating it with the same key is idempotent.
func SortTransactions(transactions []Transaction, key SortKey) []Transaction {
	out := make([]Transaction, len(transactions))
	copy(out, transactions)
	sort.SliceStable(out, func(i, j int) bool {
		switch key {
		case SortDateAsc:
			return out[i].Date.Before(out[j].Date)
		case SortAmountDesc:
			return out[i].Amount.GreaterThan(out[j].Amount)
		case SortAmountAsc:
			return out[i].Amount.LessThan(out[j].Amount)
		default: // dateDesc
			return out[j].Date.Before(out[i].Date)
		}
	})
	return out
}
