package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Dennis-XXII/expense-tracker/internal/core"
	"github.com/Dennis-XXII/expense-tracker/internal/storage"
)

type chartResponse struct {
	Filter       string `json:"filter"`
	TickInterval int    `json:"tickInterval"`
	Points       any    `json:"points"`
}

type totalsResponse struct {
	Filter  string          `json:"filter"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// chartInput resolves the shared plumbing of every chart endpoint: the
// user, their history, and the requested time filter.
func (s *Server) chartInput(w http.ResponseWriter, r *http.Request) (core.User, []core.Transaction, core.Filter, bool) {
	userID, err := parseUUID(chi.URLParam(r, "userId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user ID")
		return core.User{}, nil, "", false
	}

	filter, err := core.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid time filter")
		return core.User{}, nil, "", false
	}

	user, err := s.repo.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return core.User{}, nil, "", false
		}
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return core.User{}, nil, "", false
	}

	list, err := s.cachedList(r.Context(), userID.String())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return core.User{}, nil, "", false
	}

	return user, list, filter, true
}

func (s *Server) handleBalanceChart(w http.ResponseWriter, r *http.Request) {
	user, list, filter, ok := s.chartInput(w, r)
	if !ok {
		return
	}

	window := filter.ChartWindow(s.localNow())
	writeJSON(w, http.StatusOK, chartResponse{
		Filter:       string(filter),
		TickInterval: window.TickInterval,
		Points:       core.BalanceSeries(list, user.InitialBalance, window),
	})
}

func (s *Server) handleDailyChart(w http.ResponseWriter, r *http.Request) {
	_, list, filter, ok := s.chartInput(w, r)
	if !ok {
		return
	}

	window := filter.ChartWindow(s.localNow())
	writeJSON(w, http.StatusOK, chartResponse{
		Filter:       string(filter),
		TickInterval: window.TickInterval,
		Points:       core.DailySeries(list, window),
	})
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	_, list, filter, ok := s.chartInput(w, r)
	if !ok {
		return
	}

	start, end, bounded := filter.Range(s.localNow())
	writeJSON(w, http.StatusOK, chartResponse{
		Filter: string(filter),
		Points: core.CategoryTotals(windowed(list, start, end, bounded)),
	})
}

func (s *Server) handleWindowTotals(w http.ResponseWriter, r *http.Request) {
	_, list, filter, ok := s.chartInput(w, r)
	if !ok {
		return
	}

	start, end, bounded := filter.Range(s.localNow())
	income, expense := core.WindowTotals(list, start, end, bounded)
	writeJSON(w, http.StatusOK, totalsResponse{
		Filter:  string(filter),
		Income:  income,
		Expense: expense,
	})
}

// localNow is the reference instant in the app timezone. All window
// boundaries resolve against it.
func (s *Server) localNow() time.Time {
	return s.now().In(s.location)
}

func windowed(list []core.Transaction, start, end time.Time, bounded bool) []core.Transaction {
	if !bounded {
		return list
	}
	out := make([]core.Transaction, 0, len(list))
	for _, t := range list {
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}
