// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/dojogo/auth"
	"github.com/danielhkuo/dojogo/db"
	"github.com/danielhkuo/dojogo/middleware"
	"github.com/danielhkuo/dojogo/models"
)

const NicknameCooldownDays = 30

// NicknameDaysRemaining returns how many days are left before a nickname
// last changed at lastChanged may change again; 0 means it may change now.
// Only whole elapsed days count.
func NicknameDaysRemaining(lastChanged *time.Time, now time.Time) int {
	if lastChanged == nil {
		return 0
	}
	elapsed := int(now.Sub(*lastChanged) / day)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= NicknameCooldownDays {
		return 0
	}
	return NicknameCooldownDays - elapsed
}

type ProfileHandler struct {
	store *db.Executor
}

func NewProfileHandler(store *db.Executor) *ProfileHandler {
	return &ProfileHandler{store: store}
}

// UpdateNickname handles PATCH /nickname
func (h *ProfileHandler) UpdateNickname(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req models.UpdateNicknameRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	user, err := h.loadNicknameState(ctx, p.UserID)
	if err != nil {
		slog.Error("failed to query user", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	if !h.checkNicknameChange(ctx, w, p.UserID, user, req.Nickname) {
		return
	}

	query, args := db.Update("users").
		Set("nickname", req.Nickname).
		SetNow("nickname_last_changed").
		SetNow("updated_at").
		Build("id", p.UserID)
	if !h.applyUpdate(ctx, w, p.UserID, query, args) {
		return
	}

	slog.Info("nickname updated", "user_id", p.UserID, "nickname", req.Nickname)
	h.respondWithUser(ctx, w, p.UserID, "Nickname updated successfully")
}

// UpdateProfile handles PATCH /profile
// Any subset of nickname, kendoRank, kendoExperienceYears and
// kendoExperienceMonths; nickname follows the same rules as PATCH /nickname
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req models.UpdateProfileRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Nickname == nil && req.KendoRank == nil && req.KendoExperienceYears == nil && req.KendoExperienceMonths == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "No fields to update")
		return
	}

	ctx := r.Context()

	user, err := h.loadNicknameState(ctx, p.UserID)
	if err != nil {
		slog.Error("failed to query user", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	update := db.Update("users")

	// Resubmitting the current nickname leaves it and its cooldown untouched
	if req.Nickname != nil && (user.nickname == nil || *user.nickname != *req.Nickname) {
		if !h.checkNicknameChange(ctx, w, p.UserID, user, *req.Nickname) {
			return
		}
		update.Set("nickname", *req.Nickname).SetNow("nickname_last_changed")
	}
	if req.KendoRank != nil {
		update.Set("kendo_rank", *req.KendoRank)
	}
	if req.KendoExperienceYears != nil {
		update.Set("kendo_experience_years", *req.KendoExperienceYears)
	}
	if req.KendoExperienceMonths != nil {
		update.Set("kendo_experience_months", *req.KendoExperienceMonths)
	}

	if !update.Empty() {
		query, args := update.SetNow("updated_at").Build("id", p.UserID)
		if !h.applyUpdate(ctx, w, p.UserID, query, args) {
			return
		}
	}

	slog.Info("profile updated", "user_id", p.UserID)
	h.respondWithUser(ctx, w, p.UserID, "Profile updated successfully")
}

type nicknameState struct {
	nickname    *string
	lastChanged *time.Time
}

func (h *ProfileHandler) loadNicknameState(ctx context.Context, userID string) (*nicknameState, error) {
	row, err := h.store.QueryOne(ctx, "SELECT nickname, nickname_last_changed FROM users WHERE id = $1", userID)
	if err != nil || row == nil {
		return nil, err
	}
	return &nicknameState{
		nickname:    row.NullString("nickname"),
		lastChanged: row.NullTime("nickname_last_changed"),
	}, nil
}

// checkNicknameChange enforces the cooldown and uniqueness rules and writes
// the error response when the change is not allowed
func (h *ProfileHandler) checkNicknameChange(ctx context.Context, w http.ResponseWriter, userID string, user *nicknameState, nickname string) bool {
	if remaining := NicknameDaysRemaining(user.lastChanged, time.Now().UTC()); remaining > 0 {
		middleware.JSONResponse(w, http.StatusTooManyRequests, models.CooldownErrorResponse{
			Error:         http.StatusText(http.StatusTooManyRequests),
			Message:       fmt.Sprintf("You can change your nickname again in %d days", remaining),
			DaysRemaining: remaining,
		})
		return false
	}

	taken, err := h.store.QueryOne(ctx, "SELECT id FROM users WHERE nickname = $1 AND id != $2", nickname, userID)
	if err != nil {
		slog.Error("failed to check nickname", "user_id", userID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if taken != nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Nickname is already taken")
		return false
	}
	return true
}

func (h *ProfileHandler) applyUpdate(ctx context.Context, w http.ResponseWriter, userID, query string, args []any) bool {
	err := h.store.Exec(ctx, query, args...)
	if db.IsUniqueViolation(err) {
		// Lost a race for the same nickname
		middleware.ErrorResponse(w, http.StatusConflict, "Nickname is already taken")
		return false
	}
	if err != nil {
		slog.Error("failed to update user", "user_id", userID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update profile")
		return false
	}
	return true
}

func (h *ProfileHandler) respondWithUser(ctx context.Context, w http.ResponseWriter, userID, message string) {
	user, err := loadUser(ctx, h.store, userID)
	if err != nil || user == nil {
		slog.Error("failed to reload user", "user_id", userID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve updated user")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UserResponse{
		Message: message,
		User:    *user,
	})
}
