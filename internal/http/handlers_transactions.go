package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Dennis-XXII/expense-tracker/internal/cache"
	"github.com/Dennis-XXII/expense-tracker/internal/core"
	"github.com/Dennis-XXII/expense-tracker/internal/log"
	"github.com/Dennis-XXII/expense-tracker/internal/storage"
)

type transactionRequest struct {
	UserID      string          `json:"userId"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        *time.Time      `json:"date"`
	Description string          `json:"description"`
}

// handleListTransactions returns a user's history, date descending.
// Optional query parameters refine the result: month (yyyy-MM), type,
// category, and sort (dateAsc|dateDesc|amountAsc|amountDesc).
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUID(chi.URLParam(r, "userId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	list, err := s.cachedList(r.Context(), userID.String())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Error fetching transactions")
		return
	}

	q := r.URL.Query()
	filtered := core.FilterTransactions(list, core.TableFilter{
		Month:    q.Get("month"),
		Type:     core.TransactionType(q.Get("type")),
		Category: q.Get("category"),
	}, s.location)
	if sortKey := q.Get("sort"); sortKey != "" {
		filtered = core.SortTransactions(filtered, core.SortKey(sortKey))
	}

	writeJSON(w, http.StatusOK, toTransactionResponses(filtered))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUID(chi.URLParam(r, "userId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	key := cache.UserKey("summary", userID.String())
	if summary, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	user, err := s.repo.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	list, err := s.cachedList(r.Context(), userID.String())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	summary := core.Summarize(user, list, s.now(), s.location)
	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, err := parseUUID(req.UserID)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Valid user ID required")
		return
	}
	if !req.Amount.IsPositive() {
		writeMessage(w, http.StatusBadRequest, "Amount must be positive")
		return
	}

	t := core.Transaction{
		UserID:      userID,
		Type:        core.TransactionType(req.Type),
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.Date != nil {
		t.Date = *req.Date
	}

	created, err := s.service.Create(r.Context(), t)
	if err != nil {
		s.writeTransactionError(w, r, err, "Error creating transaction")
		return
	}

	s.invalidateUser(userID.String())
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		writeMessage(w, http.StatusBadRequest, "Amount must be positive")
		return
	}

	// A transaction never moves between users; the stored owner wins.
	existing, err := s.repo.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Transaction not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Error updating transaction")
		return
	}

	t := core.Transaction{
		ID:          id,
		UserID:      existing.UserID,
		Type:        core.TransactionType(req.Type),
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        existing.Date,
	}
	if req.Date != nil {
		t.Date = *req.Date
	}

	updated, err := s.service.Update(r.Context(), t)
	if err != nil {
		s.writeTransactionError(w, r, err, "Error updating transaction")
		return
	}

	s.invalidateUser(existing.UserID.String())
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	existing, err := s.repo.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Transaction not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Error deleting transaction")
		return
	}

	if err := s.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Transaction not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Error deleting transaction")
		return
	}

	s.invalidateUser(existing.UserID.String())
	writeMessage(w, http.StatusOK, "Deleted successfully")
}

// writeTransactionError maps service errors onto the API's status codes
// and messages.
func (s *Server) writeTransactionError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		writeMessage(w, http.StatusBadRequest, "Amount must be positive")
	case errors.Is(err, core.ErrMissingUser), errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusBadRequest, "Valid user ID required")
	case errors.Is(err, core.ErrInvalidType):
		writeMessage(w, http.StatusBadRequest, "Transaction type must be income or expense")
	case errors.Is(err, core.ErrDescriptionTooLong):
		writeMessage(w, http.StatusBadRequest, "Description too long")
	default:
		s.logger.ErrorContext(r.Context(), "Transaction write failed", log.FieldError, err)
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}
