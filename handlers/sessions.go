// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/dojogo/auth"
	"github.com/danielhkuo/dojogo/db"
	"github.com/danielhkuo/dojogo/middleware"
	"github.com/danielhkuo/dojogo/models"
)

type SessionHandler struct {
	store *db.Executor
}

func NewSessionHandler(store *db.Executor) *SessionHandler {
	return &SessionHandler{store: store}
}

// CreateSession handles POST /sessions
// Records a tap-game session, adds its taps to the lifetime total and
// applies the daily streak rule
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req models.CreateTapSessionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	user, err := loadUser(ctx, h.store, p.UserID)
	if err != nil {
		slog.Error("failed to query user", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	// TIMESTAMP keeps microseconds; match it so the stored row compares equal
	now := time.Now().UTC().Truncate(time.Microsecond)

	err = h.store.Exec(ctx, `
		INSERT INTO sessions (id, user_id, tap_count, duration, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, req.ID, p.UserID, *req.TapCount, *req.Duration, now)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Session already exists")
		return
	}
	if db.IsForeignKeyViolation(err) {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to insert session", "user_id", p.UserID, "session_id", req.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	err = h.store.Exec(ctx, `
		UPDATE users SET total_count = total_count + $1, updated_at = $2 WHERE id = $3
	`, *req.TapCount, now, p.UserID)
	if err != nil {
		slog.Error("failed to update total count", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update totals")
		return
	}

	streak, err := updateStreak(ctx, h.store, p.UserID, req.ID, user.Streak, now)
	if err != nil {
		slog.Error("failed to update streak", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update streak")
		return
	}

	updated, err := loadUser(ctx, h.store, p.UserID)
	if err != nil || updated == nil {
		slog.Error("failed to reload user", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve updated user")
		return
	}

	middleware.RecordTaps(*req.TapCount)
	slog.Info("session created",
		"user_id", p.UserID,
		"session_id", req.ID,
		"tap_count", *req.TapCount,
		"streak", streak,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.TapSessionResponse{
		Message:   "Session created successfully",
		SessionID: req.ID,
		User:      *updated,
	})
}

// LogSessionStart handles POST /session-starts
func (h *SessionHandler) LogSessionStart(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	err := h.store.Exec(r.Context(), `
		INSERT INTO session_starts (user_id, started_at) VALUES ($1, $2)
	`, p.UserID, time.Now().UTC())
	if db.IsForeignKeyViolation(err) {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to log session start", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log session start")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SessionStartResponse{
		Message: "Session start logged successfully",
		UserID:  p.UserID,
	})
}
