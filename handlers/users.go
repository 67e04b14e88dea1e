// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/dojogo/auth"
	"github.com/danielhkuo/dojogo/db"
	"github.com/danielhkuo/dojogo/middleware"
	"github.com/danielhkuo/dojogo/models"
)

const userColumns = `id, user_number, name, nickname, nickname_last_changed, kendo_rank,
	kendo_experience_years, kendo_experience_months, email, streak, total_count, created_at`

type UserHandler struct {
	store *db.Executor
}

func NewUserHandler(store *db.Executor) *UserHandler {
	return &UserHandler{store: store}
}

// CreateUser handles POST /users
// Returns the existing record (200) when the caller already has one
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req models.CreateUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := loadUser(r.Context(), h.store, p.UserID)
	if err != nil {
		slog.Error("failed to query user", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if existing != nil {
		slog.Info("user already exists", "user_id", p.UserID)
		middleware.JSONResponse(w, http.StatusOK, models.UserResponse{
			Message: "User already exists",
			User:    *existing,
		})
		return
	}

	err = h.store.Exec(r.Context(), `
		INSERT INTO users (id, name, email, streak, total_count)
		VALUES ($1, $2, $3, 0, 0)
	`, p.UserID, req.Name, req.Email)
	if db.IsUniqueViolation(err) {
		// Either the email belongs to another account or a concurrent
		// request created this user first
		if again, lookupErr := loadUser(r.Context(), h.store, p.UserID); lookupErr == nil && again != nil {
			middleware.JSONResponse(w, http.StatusOK, models.UserResponse{
				Message: "User already exists",
				User:    *again,
			})
			return
		}
		middleware.ErrorResponse(w, http.StatusConflict, "Email is already registered to another account")
		return
	}
	if err != nil {
		slog.Error("failed to insert user", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user, err := loadUser(r.Context(), h.store, p.UserID)
	if err != nil || user == nil {
		slog.Error("failed to reload user", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve created user")
		return
	}

	slog.Info("user created", "user_id", p.UserID, "user_number", user.UserNumber)

	middleware.JSONResponse(w, http.StatusCreated, models.UserResponse{
		Message: "User created successfully",
		User:    *user,
	})
}

// GetMe handles GET /users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	user, err := loadUser(r.Context(), h.store, p.UserID)
	if err != nil {
		slog.Error("failed to query user", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UserResponse{User: *user})
}

// loadUser returns nil, nil when the user does not exist
func loadUser(ctx context.Context, store *db.Executor, userID string) (*models.User, error) {
	row, err := store.QueryOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", userID)
	if err != nil || row == nil {
		return nil, err
	}
	user := userFromRow(row)
	return &user, nil
}

func userFromRow(row db.Row) models.User {
	user := models.User{
		ID:                    row.String("id"),
		UserNumber:            row.Int64("user_number"),
		Name:                  row.String("name"),
		Nickname:              row.NullString("nickname"),
		KendoRank:             row.NullString("kendo_rank"),
		KendoExperienceYears:  row.Int("kendo_experience_years"),
		KendoExperienceMonths: row.Int("kendo_experience_months"),
		Email:                 row.String("email"),
		Streak:                row.Int("streak"),
		TotalCount:            row.Int64("total_count"),
		CreatedAt:             row.Time("created_at").Unix(),
	}
	if changed := row.NullTime("nickname_last_changed"); changed != nil {
		epoch := changed.Unix()
		user.NicknameLastChanged = &epoch
	}
	return user
}
