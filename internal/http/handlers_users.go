package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Dennis-XXII/expense-tracker/internal/storage"
)

type updateUserRequest struct {
	FirstName          *string          `json:"firstName"`
	LastName           *string          `json:"lastName"`
	InitialBalance     *decimal.Decimal `json:"initialBalance"`
	DailySpendingLimit *decimal.Decimal `json:"dailySpendingLimit"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid User ID")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Blank names are ignored rather than erased; balances update even
	// when set to zero.
	upd := storage.UserUpdate{
		InitialBalance: req.InitialBalance,
		DailyLimit:     req.DailySpendingLimit,
	}
	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) != "" {
		upd.FirstName = req.FirstName
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) != "" {
		upd.LastName = req.LastName
	}

	user, err := s.repo.UpdateUser(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Error updating profile")
		return
	}

	// Balance and limit feed the summary, so cached views are stale now.
	s.invalidateUser(id.String())

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
