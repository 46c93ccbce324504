package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceSeriesScenario(t *testing.T) {
	// initialBalance=1000, +500 on D-2, -200 on D-1, window [D-2, D]
	// expected balances: 1500, 1300, 1300.
	loc := time.UTC
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)
	userID := uuid.New()

	history := []Transaction{
		tx(userID, Income, "500", day.Add(10*time.Hour)),                 // D-2
		tx(userID, Expense, "200", day.AddDate(0, 0, 1).Add(8*time.Hour)), // D-1
	}
	w := Window{Start: day, End: day.AddDate(0, 0, 2).Add(23 * time.Hour), LabelFormat: "Jan 02"}

	series := BalanceSeries(history, dec("1000"), w)
	require.Len(t, series, 3)
	assert.True(t, series[0].Balance.Equal(dec("1500")), "day 0 = %s", series[0].Balance)
	assert.True(t, series[1].Balance.Equal(dec("1300")), "day 1 = %s", series[1].Balance)
	assert.True(t, series[2].Balance.Equal(dec("1300")), "day 2 = %s", series[2].Balance)
}

func TestBalanceSeriesCarryIn(t *testing.T) {
	loc := time.UTC
	start := time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)
	userID := uuid.New()

	history := []Transaction{
		// Strictly before the window: folded into the carry-in balance.
		tx(userID, Income, "900", start.AddDate(0, 0, -5)),
		tx(userID, Expense, "400", start.AddDate(0, 0, -1).Add(12*time.Hour)),
		// Inside the window.
		tx(userID, Expense, "100", start.Add(9*time.Hour)),
	}
	w := Window{Start: start, End: start.Add(23 * time.Hour), LabelFormat: "Jan 02"}

	series := BalanceSeries(history, dec("0"), w)
	require.Len(t, series, 1)
	assert.True(t, series[0].Balance.Equal(dec("400")), "carry-in 500 minus 100 = %s", series[0].Balance)
}

func TestBalanceSeriesLengthAndFinalBalance(t *testing.T) {
	// With end = today and an uncapped window, the last point equals the
	// ledger balance from Summarize.
	loc := time.UTC
	now := time.Date(2025, time.March, 12, 18, 0, 0, 0, loc)
	user := User{ID: uuid.New(), InitialBalance: dec("250")}

	history := []Transaction{
		tx(user.ID, Income, "100", now.AddDate(0, 0, -20)),
		tx(user.ID, Expense, "30", now.AddDate(0, 0, -3)),
		tx(user.ID, Income, "5", now.Add(-time.Hour)),
	}
	w := FilterLast30.ChartWindow(now)

	series := BalanceSeries(history, user.InitialBalance, w)
	require.Len(t, series, len(w.Days()), "one point per calendar day, quiet days included")

	summary := Summarize(user, history, now, loc)
	last := series[len(series)-1]
	assert.True(t, last.Balance.Equal(summary.Balance),
		"series end %s vs ledger balance %s", last.Balance, summary.Balance)
}

func TestBalanceSeriesSameDayOrderIrrelevant(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)
	userID := uuid.New()
	w := Window{Start: day, End: day.Add(23 * time.Hour), LabelFormat: "Jan 02"}

	a := []Transaction{
		tx(userID, Income, "100", day.Add(9*time.Hour)),
		tx(userID, Expense, "40", day.Add(9*time.Hour)),
	}
	b := []Transaction{a[1], a[0]}

	sa := BalanceSeries(a, dec("0"), w)
	sb := BalanceSeries(b, dec("0"), w)
	assert.True(t, sa[0].Balance.Equal(sb[0].Balance), "only the day's sum matters")
	assert.True(t, sa[0].Balance.Equal(dec("60")))
}

func TestWindowTotals(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, time.March, 12, 12, 0, 0, 0, loc)
	userID := uuid.New()
	history := []Transaction{
		tx(userID, Income, "300", now.AddDate(0, 0, -2)),
		tx(userID, Expense, "120", now.AddDate(0, 0, -1)),
		tx(userID, Income, "999", now.AddDate(0, -2, 0)), // outside thisMonth
	}

	start, end, bounded := FilterThisMonth.Range(now)
	income, expense := WindowTotals(history, start, end, bounded)
	assert.True(t, income.Equal(dec("300")))
	assert.True(t, expense.Equal(dec("120")))

	income, expense = WindowTotals(history, time.Time{}, time.Time{}, false)
	assert.True(t, income.Equal(dec("1299")), "unbounded sums everything")
	assert.True(t, expense.Equal(dec("120")))
}

func TestCategoryTotals(t *testing.T) {
	now := time.Now()
	userID := uuid.New()
	in := []Transaction{
		{UserID: userID, Type: Expense, Category: "Food", Amount: dec("30"), Date: now},
		{UserID: userID, Type: Expense, Category: "Transport", Amount: dec("12"), Date: now},
		{UserID: userID, Type: Expense, Category: "Food", Amount: dec("18"), Date: now},
		{UserID: userID, Type: Income, Category: "Salary", Amount: dec("5000"), Date: now},
	}

	totals := CategoryTotals(in)
	require.Len(t, totals, 2, "income categories are absent, not zero-padded")
	assert.Equal(t, "Food", totals[0].Category)
	assert.True(t, totals[0].Total.Equal(dec("48")))
	assert.Equal(t, "Transport", totals[1].Category)
	assert.True(t, totals[1].Total.Equal(dec("12")))

	// Conservation: category sums add up to the expense total of the input.
	sum := decimal.Zero
	for _, ct := range totals {
		sum = sum.Add(ct.Total)
	}
	_, expense := WindowTotals(in, time.Time{}, time.Time{}, false)
	assert.True(t, sum.Equal(expense))
}

func TestFilterTransactionsCommutative(t *testing.T) {
	now := time.Date(2025, time.March, 12, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	list := []Transaction{
		{UserID: userID, Type: Expense, Category: "Food", Amount: dec("10"), Date: now},
		{UserID: userID, Type: Expense, Category: "Food", Amount: dec("20"), Date: now.AddDate(0, -1, 0)},
		{UserID: userID, Type: Income, Category: "Salary", Amount: dec("99"), Date: now},
		{UserID: userID, Type: Expense, Category: "Transport", Amount: dec("5"), Date: now},
	}

	full := TableFilter{Month: "2025-03", Type: Expense, Category: "Food"}
	combined := FilterTransactions(list, full, time.UTC)

	// Apply the same predicates one at a time, in a different order.
	stepwise := FilterTransactions(list, TableFilter{Category: "Food"}, time.UTC)
	stepwise = FilterTransactions(stepwise, TableFilter{Month: "2025-03"}, time.UTC)
	stepwise = FilterTransactions(stepwise, TableFilter{Type: Expense}, time.UTC)

	assert.Equal(t, combined, stepwise, "AND-composed filters commute")
	require.Len(t, combined, 1)
	assert.True(t, combined[0].Amount.Equal(dec("10")))
}

func TestFilterTransactionsZeroValueMeansAll(t *testing.T) {
	now := time.Now()
	list := []Transaction{
		{Type: Expense, Category: "Food", Amount: dec("10"), Date: now},
		{Type: Income, Category: "Salary", Amount: dec("20"), Date: now},
	}
	assert.Len(t, FilterTransactions(list, TableFilter{}, time.UTC), 2)
}

func TestFilterTransactionsMonthUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	// Stored as 2025-03-31T18:00Z, which is April 1st 01:00 local.
	list := []Transaction{
		{Type: Expense, Category: "Food", Amount: dec("10"),
			Date: time.Date(2025, time.April, 1, 1, 0, 0, 0, loc).UTC()},
	}

	april := FilterTransactions(list, TableFilter{Month: "2025-04"}, loc)
	require.Len(t, april, 1, "local April purchase belongs to April")

	march := FilterTransactions(list, TableFilter{Month: "2025-03"}, loc)
	assert.Empty(t, march)
}

func TestSortTransactions(t *testing.T) {
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	list := []Transaction{
		{Amount: dec("30"), Date: base.AddDate(0, 0, 2)},
		{Amount: dec("10"), Date: base},
		{Amount: dec("20"), Date: base.AddDate(0, 0, 1)},
	}

	byDateAsc := SortTransactions(list, SortDateAsc)
	assert.True(t, byDateAsc[0].Amount.Equal(dec("10")))
	assert.True(t, byDateAsc[2].Amount.Equal(dec("30")))

	byDateDesc := SortTransactions(list, SortDateDesc)
	assert.True(t, byDateDesc[0].Amount.Equal(dec("30")))

	byAmountAsc := SortTransactions(list, SortAmountAsc)
	assert.True(t, byAmountAsc[0].Amount.Equal(dec("10")))

	byAmountDesc := SortTransactions(list, SortAmountDesc)
	assert.True(t, byAmountDesc[0].Amount.Equal(dec("30")))

	// Input order untouched.
	assert.True(t, list[0].Amount.Equal(dec("30")), "sort must not mutate its input")

	// Idempotence: sorting an already-sorted slice is a no-op.
	again := SortTransactions(byAmountDesc, SortAmountDesc)
	assert.Equal(t, byAmountDesc, again)
}

func TestDailySeries(t *testing.T) {
	loc := time.UTC
	start := time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)
	userID := uuid.New()
	w := Window{Start: start, End: start.AddDate(0, 0, 1).Add(23 * time.Hour), LabelFormat: "Jan 02"}

	history := []Transaction{
		tx(userID, Income, "100", start.Add(8*time.Hour)),
		tx(userID, Expense, "25", start.Add(12*time.Hour)),
	}

	series := DailySeries(history, w)
	require.Len(t, series, 2)
	assert.True(t, series[0].Income.Equal(dec("100")))
	assert.True(t, series[0].Expense.Equal(dec("25")))
	assert.True(t, series[1].Income.IsZero(), "quiet day still emits a zero point")
	assert.True(t, series[1].Expense.IsZero())
}
