// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/dojogo/db"
	"github.com/danielhkuo/dojogo/middleware"
	"github.com/danielhkuo/dojogo/models"
)

const (
	DefaultLeaderboardLimit = 100
	MaxLeaderboardLimit     = 100
)

// Ordering is fixed per type; never built from request input
var leaderboardQueries = map[string]string{
	models.LeaderboardTotal: `
		SELECT name, nickname, total_count AS score, streak, total_count
		FROM users
		WHERE total_count > 0
		ORDER BY total_count DESC, streak DESC, user_number ASC
		LIMIT $1`,
	models.LeaderboardStreak: `
		SELECT name, nickname, streak AS score, streak, total_count
		FROM users
		WHERE streak > 0
		ORDER BY streak DESC, total_count DESC, user_number ASC
		LIMIT $1`,
}

type LeaderboardHandler struct {
	store *db.Executor
}

func NewLeaderboardHandler(store *db.Executor) *LeaderboardHandler {
	return &LeaderboardHandler{store: store}
}

// GetLeaderboard handles GET /leaderboard?type=total|streak&limit=N
// Public endpoint
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	boardType := r.URL.Query().Get("type")
	if boardType == "" {
		boardType = models.LeaderboardTotal
	}
	query, ok := leaderboardQueries[boardType]
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid leaderboard type. Use 'total' or 'streak'")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"), DefaultLeaderboardLimit, MaxLeaderboardLimit)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	rows, err := h.store.Query(r.Context(), query, limit)
	if err != nil {
		slog.Error("failed to query leaderboard", "type", boardType, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, models.LeaderboardEntry{
			Rank:       i + 1,
			Name:       row.String("name"),
			Nickname:   row.NullString("nickname"),
			Score:      row.Int64("score"),
			Streak:     row.Int("streak"),
			TotalCount: row.Int64("total_count"),
		})
	}

	middleware.JSONResponse(w, http.StatusOK, models.LeaderboardResponse{
		Type:        boardType,
		Leaderboard: entries,
	})
}

// parseLimit reads an optional integer and clamps it into [1, ceiling]
func parseLimit(raw string, def, ceiling int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return min(max(n, 1), ceiling), nil
}
