// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/danielhkuo/dojogo/db"
)

const day = 24 * time.Hour

// NextStreak applies the daily streak rule. Only the first session of a UTC
// calendar day changes the streak: it extends it when the player also played
// the day before and resets it to 1 otherwise.
func NextStreak(current int, firstToday, playedYesterday bool) int {
	if !firstToday {
		return current
	}
	if playedYesterday {
		return current + 1
	}
	return 1
}

// StartOfDay truncates t to midnight of its UTC calendar day
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// updateStreak recomputes the streak after session sessionID was recorded
// at now. Sessions of one day are ordered by (created_at, id), so exactly one
// of them counts as the first even when several land at once.
// Returns the streak stored for the user.
func updateStreak(ctx context.Context, store *db.Executor, userID, sessionID string, current int, now time.Time) (int, error) {
	today := StartOfDay(now)

	row, err := store.QueryOne(ctx, `
		SELECT NOT EXISTS (
			SELECT 1 FROM sessions
			WHERE user_id = $1 AND created_at >= $2
			  AND (created_at < $3 OR (created_at = $3 AND id < $4))
		) AS first_today
	`, userID, today, now, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to check today's sessions: %w", err)
	}
	if !row.Bool("first_today") {
		return current, nil
	}

	row, err = store.QueryOne(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sessions
			WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		) AS played
	`, userID, today.Add(-day), today)
	if err != nil {
		return 0, fmt.Errorf("failed to check yesterday's sessions: %w", err)
	}

	streak := NextStreak(current, true, row.Bool("played"))
	if err := store.Exec(ctx, "UPDATE users SET streak = $1, updated_at = $2 WHERE id = $3", streak, now, userID); err != nil {
		return 0, fmt.Errorf("failed to update streak: %w", err)
	}
	return streak, nil
}
