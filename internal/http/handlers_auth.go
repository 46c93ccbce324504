package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dennis-XXII/expense-tracker/internal/core"
	"github.com/Dennis-XXII/expense-tracker/internal/log"
	"github.com/Dennis-XXII/expense-tracker/internal/storage"
)

type registerRequest struct {
	Username           string           `json:"username"`
	PIN                string           `json:"pin"`
	FirstName          string           `json:"firstName"`
	LastName           string           `json:"lastName"`
	InitialBalance     *decimal.Decimal `json:"initialBalance"`
	DailySpendingLimit *decimal.Decimal `json:"dailySpendingLimit"`
}

type loginRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := core.ValidateUsername(req.Username); err != nil {
		writeMessage(w, http.StatusBadRequest, "Username must be 8-12 characters")
		return
	}
	if err := core.ValidatePIN(req.PIN); err != nil {
		writeMessage(w, http.StatusBadRequest, "PIN must be 4-6 digits")
		return
	}
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		writeMessage(w, http.StatusBadRequest, "First and Last name are required")
		return
	}
	if req.InitialBalance == nil {
		writeMessage(w, http.StatusBadRequest, "Initial balance is required")
		return
	}

	// A zero or absent limit falls back to the default of 1000.
	dailyLimit := decimal.NewFromInt(1000)
	if req.DailySpendingLimit != nil && !req.DailySpendingLimit.IsZero() {
		dailyLimit = *req.DailySpendingLimit
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	user, err := s.repo.CreateUser(r.Context(), core.User{
		ID:             uuid.New(),
		Username:       core.NormalizeUsername(req.Username),
		PINHash:        string(hash),
		FirstName:      firstName,
		LastName:       lastName,
		InitialBalance: *req.InitialBalance,
		DailyLimit:     dailyLimit,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateUsername) {
			writeMessage(w, http.StatusBadRequest, "Username already exists")
			return
		}
		s.logger.ErrorContext(r.Context(), "Registration failed",
			log.FieldOperation, log.OpCreate, log.FieldError, err)
		writeMessage(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.PIN == "" {
		writeMessage(w, http.StatusBadRequest, "Username and PIN are required")
		return
	}

	user, err := s.repo.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeMessage(w, http.StatusUnauthorized, "Invalid username or PIN")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(req.PIN)) != nil {
		s.logger.WarnContext(r.Context(), "Failed login attempt",
			log.FieldOperation, log.OpLogin,
			log.FieldUsername, user.Username,
			log.FieldClientIP, clientIP(r))
		writeMessage(w, http.StatusUnauthorized, "Invalid username or PIN")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
