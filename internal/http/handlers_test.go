package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dennis-XXII/expense-tracker/internal/core"
	"github.com/Dennis-XXII/expense-tracker/internal/log"
	"github.com/Dennis-XXII/expense-tracker/internal/services"
	"github.com/Dennis-XXII/expense-tracker/internal/storage"
)

var bangkok, _ = time.LoadLocation("Asia/Bangkok")

// refNow is a fixed Wednesday; the surrounding week runs Mar 9 to Mar 15.
var refNow = time.Date(2025, time.March, 12, 15, 0, 0, 0, bangkok)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.DefaultConfig())
	service := services.NewTransactionService(repo, services.NoopPublisher{}, logger, bangkok)

	s := NewServer(Config{
		Port:        "0",
		CORSOrigins: []string{"http://localhost:3000"},
	}, repo, service, logger, bangkok)
	s.now = func() time.Time { return refNow }
	t.Cleanup(func() { s.authLimiter.Stop() })
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decodeBody[messageResponse](t, rec).Message
}

func register(t *testing.T, s *Server, username string) userResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/auth/register", map[string]any{
		"username":       username,
		"pin":            "1234",
		"firstName":      "John",
		"lastName":       "Smith",
		"initialBalance": 1000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[userResponse](t, rec)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Expense Tracker API is running", message(t, rec))
}

func TestRouteNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", message(t, rec))
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name        string
		body        map[string]any
		wantMessage string
	}{
		{
			name: "short username",
			body: map[string]any{
				"username": "short", "pin": "1234",
				"firstName": "John", "lastName": "Smith", "initialBalance": 1000,
			},
			wantMessage: "Username must be 8-12 characters",
		},
		{
			name: "long username",
			body: map[string]any{
				"username": "waytoolongusername", "pin": "1234",
				"firstName": "John", "lastName": "Smith", "initialBalance": 1000,
			},
			wantMessage: "Username must be 8-12 characters",
		},
		{
			name: "bad pin",
			body: map[string]any{
				"username": "johnsmith1", "pin": "12ab",
				"firstName": "John", "lastName": "Smith", "initialBalance": 1000,
			},
			wantMessage: "PIN must be 4-6 digits",
		},
		{
			name: "missing names",
			body: map[string]any{
				"username": "johnsmith1", "pin": "1234", "initialBalance": 1000,
			},
			wantMessage: "First and Last name are required",
		},
		{
			name: "missing initial balance",
			body: map[string]any{
				"username": "johnsmith1", "pin": "1234",
				"firstName": "John", "lastName": "Smith",
			},
			wantMessage: "Initial balance is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := do(t, s, http.MethodPost, "/api/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantMessage, message(t, rec))
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/auth/register", map[string]any{
		"username":       "  JohnSmith1 ",
		"pin":            "123456",
		"firstName":      "John",
		"lastName":       "Smith",
		"initialBalance": 1000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody[userResponse](t, rec)
	assert.Equal(t, "johnsmith1", created.Username, "username is normalized")
	assert.NotContains(t, rec.Body.String(), "pin", "secret never leaves the server")
	assert.True(t, created.DailySpendingLimit.Equal(decimal.NewFromInt(1000)), "default limit")

	// Duplicate username, case-insensitively.
	rec = do(t, s, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "JOHNSMITH1", "pin": "1234",
		"firstName": "Jane", "lastName": "Doe", "initialBalance": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already exists", message(t, rec))

	rec = do(t, s, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "johnsmith1", "pin": "123456",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeBody[userResponse](t, rec).ID)

	rec = do(t, s, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "johnsmith1", "pin": "999999",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or PIN", message(t, rec))

	rec = do(t, s, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "nosuchuser1", "pin": "1234",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "unknown user looks identical to a bad PIN")

	rec = do(t, s, http.MethodPost, "/api/auth/login", map[string]any{"username": "johnsmith1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username and PIN are required", message(t, rec))
}

func TestUpdateUser(t *testing.T) {
	s := newTestServer(t)
	user := register(t, s, "johnsmith1")

	rec := do(t, s, http.MethodPut, "/api/users/"+user.ID.String(), map[string]any{
		"firstName":          "Jane",
		"dailySpendingLimit": 500,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[userResponse](t, rec)
	assert.Equal(t, "Jane", updated.FirstName)
	assert.Equal(t, "Smith", updated.LastName, "untouched fields survive")
	assert.True(t, updated.DailySpendingLimit.Equal(decimal.NewFromInt(500)))

	rec = do(t, s, http.MethodPut, "/api/users/not-a-uuid", map[string]any{"firstName": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid User ID", message(t, rec))

	rec = do(t, s, http.MethodPut, "/api/users/00000000-0000-0000-0000-000000000001", map[string]any{"firstName": "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", message(t, rec))
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newTestServer(t)
	user := register(t, s, "johnsmith1")

	rec := do(t, s, http.MethodPost, "/api/transactions/", map[string]any{
		"userId": user.ID.String(), "type": "expense", "amount": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Amount must be positive", message(t, rec))

	rec = do(t, s, http.MethodPost, "/api/transactions/", map[string]any{
		"userId": "not-a-uuid", "type": "expense", "amount": 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid user ID required", message(t, rec))

	rec = do(t, s, http.MethodPost, "/api/transactions/", map[string]any{
		"userId": "00000000-0000-0000-0000-000000000001", "type": "expense", "amount": 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid user ID required", message(t, rec))
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)
	user := register(t, s, "johnsmith1")

	rec := do(t, s, http.MethodPost, "/api/transactions/", map[string]any{
		"userId": user.ID.String(),
		"type":   "expense",
		"amount": 12.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[transactionResponse](t, rec)
	assert.Equal(t, core.DefaultCategory, created.Category)
	assert.True(t, created.Amount.Equal(decimal.RequireFromString("12.5")))

	rec = do(t, s, http.MethodGet, "/api/transactions/"+user.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]transactionResponse](t, rec)
	require.Len(t, list, 1)

	rec = do(t, s, http.MethodPut, "/api/transactions/"+created.ID.String(), map[string]any{
		"type":     "income",
		"category": "Refund",
		"amount":   20,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[transactionResponse](t, rec)
	assert.Equal(t, "income", updated.Type)
	assert.Equal(t, "Refund", updated.Category)
	assert.Equal(t, user.ID, updated.User, "ownership never changes")

	rec = do(t, s, http.MethodDelete, "/api/transactions/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Deleted successfully", message(t, rec))

	rec = do(t, s, http.MethodDelete, "/api/transactions/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Transaction not found", message(t, rec))

	rec = do(t, s, http.MethodGet, "/api/transactions/"+user.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]transactionResponse](t, rec))
}

func TestListTransactionsInvalidID(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/transactions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid user ID", message(t, rec))
}

func TestListTransactionsMonthFilterLocalTime(t *testing.T) {
	s := newTestServer(t)
	user := register(t, s, "johnsmith1")

	// 01:00 local on April 1st is still March 31st in UTC.
	rec := do(t, s, http.MethodPost, "/api/transactions/", map[string]any{
		"userId": user.ID.String(), "type": "expense", "amount": 100,
		"date": time.Date(2025, time.April, 1, 1, 0, 0, 0, bangkok),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/transactions/"+user.ID.String()+"?month=2025-04", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]transactionResponse](t, rec), 1, "month buckets resolve in the app timezone")

	rec = do(t, s, http.MethodGet, "/api/transactions/"+user.ID.String()+"?month=2025-03", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]transactionResponse](t, rec))
}

func TestSummary(t *testing.T) {
	s := newTestServer(t)
	user := register(t, s, "johnsmith1")

	for _, body := range []map[string]any{
		{"userId": user.ID.String(), "type": "income", "amount": 800},
		{"userId": user.ID.String(), "type": "expense", "amount": 300},
	} {
		rec := do(t, s, http.MethodPost, "/api/transactions/", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, s, http.MethodGet, "/api/transactions/summary/"+user.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := decodeBody[core.Summary](t, rec)
	assert.True(t, summary.Balance.Equal(decimal.NewFromInt(1500)), "balance = 1000 + 800 - 300")
	assert.True(t, summary.TotalIncome.Equal(decimal.NewFromInt(800)))
	assert.True(t, summary.TotalExpenses.Equal(decimal.NewFromInt(300)))
	assert.True(t, summary.SpentToday.Equal(decimal.NewFromInt(300)), "created now, so spent today")
	assert.True(t, summary.RemainingToday.Equal(decimal.NewFromInt(700)))

	rec = do(t, s, http.MethodGet, "/api/transactions/summary/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", message(t, rec))

	rec = do(t, s, http.MethodGet, "/api/transactions/summary/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid user ID", message(t, rec))
}

func TestSummaryCacheInvalidation(t *testing.T) {
	s := newTestServer(t)
	user := register(t, s, "johnsmith1")

	rec := do(t, s, http.MethodGet, "/api/transactions/summary/"+user.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before := decodeBody[core.Summary](t, rec)
	assert.True(t, before.Balance.Equal(decimal.NewFromInt(1000)))

	rec = do(t, s, http.MethodPost, "/api/transactions/", map[string]any{
		"userId": user.ID.String(), "type": "income", "amount": 250,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/transactions/summary/"+user.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	after := decodeBody[core.Summary](t, rec)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(1250)), "write invalidates the cached summary")
}

func TestBalanceChart(t *testing.T) {
	s := newTestServer(t)
	user := register(t, s, "johnsmith1")

	// Sunday and Monday of the reference week.
	for _, body := range []map[string]any{
		{"userId": user.ID.String(), "type": "income", "amount": 500,
			"date": time.Date(2025, time.March, 9, 10, 0, 0, 0, bangkok)},
		{"userId": user.ID.String(), "type": "expense", "amount": 200,
			"date": time.Date(2025, time.March, 10, 10, 0, 0, 0, bangkok)},
	} {
		rec := do(t, s, http.MethodPost, "/api/transactions/", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, s, http.MethodGet, fmt.Sprintf("/api/charts/balance/%s?filter=thisWeek", user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Filter       string             `json:"filter"`
		TickInterval int                `json:"tickInterval"`
		Points       []core.BalancePoint `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "thisWeek", resp.Filter)
	require.Len(t, resp.Points, 7, "one point per day of the week")
	assert.True(t, resp.Points[0].Balance.Equal(decimal.NewFromInt(1500)), "Sunday: 1000 + 500")
	assert.True(t, resp.Points[1].Balance.Equal(decimal.NewFromInt(1300)), "Monday: minus 200")
	assert.True(t, resp.Points[2].Balance.Equal(decimal.NewFromInt(1300)), "quiet day carries the balance")

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/charts/balance/%s?filter=bogus", user.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid time filter", message(t, rec))
}

func TestDailyChart(t *testing.T) {
	s := newTestServer(t)
	user := register(t, s, "johnsmith1")

	// Sunday and Monday of the reference week.
	for _, body := range []map[string]any{
		{"userId": user.ID.String(), "type": "income", "amount": 500,
			"date": time.Date(2025, time.March, 9, 10, 0, 0, 0, bangkok)},
		{"userId": user.ID.String(), "type": "expense", "amount": 200,
			"date": time.Date(2025, time.March, 10, 10, 0, 0, 0, bangkok)},
	} {
		rec := do(t, s, http.MethodPost, "/api/transactions/", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, s, http.MethodGet, fmt.Sprintf("/api/charts/daily/%s?filter=thisWeek", user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Filter       string           `json:"filter"`
		TickInterval int              `json:"tickInterval"`
		Points       []core.DailyPoint `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "thisWeek", resp.Filter)
	require.Len(t, resp.Points, 7, "one point per day of the week")
	assert.True(t, resp.Points[0].Income.Equal(decimal.NewFromInt(500)), "Sunday income")
	assert.True(t, resp.Points[0].Expense.Equal(decimal.Zero))
	assert.True(t, resp.Points[1].Expense.Equal(decimal.NewFromInt(200)), "Monday expense")
	assert.True(t, resp.Points[2].Income.Equal(decimal.Zero), "quiet day is zero-valued")
	assert.True(t, resp.Points[2].Expense.Equal(decimal.Zero))

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/charts/daily/%s?filter=bogus", user.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid time filter", message(t, rec))
}

func TestCategoryAndTotalsCharts(t *testing.T) {
	s := newTestServer(t)
	user := register(t, s, "johnsmith1")

	for _, body := range []map[string]any{
		{"userId": user.ID.String(), "type": "expense", "amount": 100, "category": "Food"},
		{"userId": user.ID.String(), "type": "expense", "amount": 50, "category": "Food"},
		{"userId": user.ID.String(), "type": "expense", "amount": 30, "category": "Transport"},
		{"userId": user.ID.String(), "type": "income", "amount": 900, "category": "Salary"},
	} {
		rec := do(t, s, http.MethodPost, "/api/transactions/", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, s, http.MethodGet, fmt.Sprintf("/api/charts/categories/%s?filter=allTime", user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var catResp struct {
		Points []core.CategoryTotal `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catResp))
	require.Len(t, catResp.Points, 2, "income categories are absent")

	sum := decimal.Zero
	for _, p := range catResp.Points {
		sum = sum.Add(p.Total)
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(180)), "category sums add up to total expenses")

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/charts/totals/%s?filter=allTime", user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := decodeBody[totalsResponse](t, rec)
	assert.True(t, totals.Income.Equal(decimal.NewFromInt(900)))
	assert.True(t, totals.Expense.Equal(decimal.NewFromInt(180)))
}
