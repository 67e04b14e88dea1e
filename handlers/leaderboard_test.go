// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/dojogo/models"
	"github.com/danielhkuo/dojogo/testutil"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 100, false},
		{"10", 10, false},
		{"0", 1, false},
		{"-4", 1, false},
		{"500", 100, false},
		{"ten", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseLimit(tt.raw, 100, 100)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetLeaderboard(t *testing.T) {
	conn, store := setupStore(t)
	handler := NewLeaderboardHandler(store)

	// id, total, streak
	seed := []struct {
		id     string
		total  int
		streak int
	}{
		{"auth0|a", 500, 2},
		{"auth0|b", 900, 1},
		{"auth0|c", 500, 7},
		{"auth0|d", 0, 0},
		{"auth0|e", 0, 3},
	}
	for _, s := range seed {
		testutil.CreateTestUser(t, conn, s.id, "Player "+s.id[len(s.id)-1:], s.id[len(s.id)-1:]+"@example.com")
		if _, err := conn.Exec("UPDATE users SET total_count = $1, streak = $2 WHERE id = $3", s.total, s.streak, s.id); err != nil {
			t.Fatalf("Failed to seed %s: %v", s.id, err)
		}
	}
	if _, err := conn.Exec("UPDATE users SET nickname = 'Kote' WHERE id = 'auth0|b'"); err != nil {
		t.Fatalf("Failed to set nickname: %v", err)
	}

	get := func(query string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.GetLeaderboard(w, testutil.MakeRequest("GET", "/leaderboard"+query, nil, nil))
		return w
	}

	t.Run("total by default", func(t *testing.T) {
		w := get("")
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.LeaderboardResponse
		testutil.AssertJSON(t, w, &resp)

		assert.Equal(t, models.LeaderboardTotal, resp.Type)
		require.Len(t, resp.Leaderboard, 3, "zero totals are excluded")

		// Ties on total fall back to streak
		assert.Equal(t, []string{"Player b", "Player c", "Player a"},
			[]string{resp.Leaderboard[0].Name, resp.Leaderboard[1].Name, resp.Leaderboard[2].Name})
		for i, e := range resp.Leaderboard {
			assert.Equal(t, i+1, e.Rank)
			assert.Equal(t, e.TotalCount, e.Score)
		}
		require.NotNil(t, resp.Leaderboard[0].Nickname)
		assert.Equal(t, "Kote", *resp.Leaderboard[0].Nickname)
		assert.Nil(t, resp.Leaderboard[1].Nickname)
	})

	t.Run("streak", func(t *testing.T) {
		w := get("?type=streak")
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.LeaderboardResponse
		testutil.AssertJSON(t, w, &resp)

		require.Len(t, resp.Leaderboard, 4, "zero streaks are excluded")
		assert.Equal(t, "Player c", resp.Leaderboard[0].Name)
		assert.Equal(t, int64(7), resp.Leaderboard[0].Score)
		assert.Equal(t, "Player e", resp.Leaderboard[1].Name)
		assert.Equal(t, "Player b", resp.Leaderboard[3].Name)
	})

	t.Run("limit", func(t *testing.T) {
		w := get("?type=total&limit=2")
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.LeaderboardResponse
		testutil.AssertJSON(t, w, &resp)
		assert.Len(t, resp.Leaderboard, 2)
	})

	t.Run("limit below one clamps", func(t *testing.T) {
		w := get("?limit=0")
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.LeaderboardResponse
		testutil.AssertJSON(t, w, &resp)
		assert.Len(t, resp.Leaderboard, 1)
	})

	t.Run("invalid type", func(t *testing.T) {
		testutil.AssertStatus(t, get("?type=speed"), http.StatusBadRequest)
	})

	t.Run("non-integer limit", func(t *testing.T) {
		testutil.AssertStatus(t, get("?limit=lots"), http.StatusBadRequest)
	})
}

func TestGetLeaderboardEmpty(t *testing.T) {
	_, store := setupStore(t)
	handler := NewLeaderboardHandler(store)

	w := httptest.NewRecorder()
	handler.GetLeaderboard(w, testutil.MakeRequest("GET", "/leaderboard?type=streak", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.LeaderboardResponse
	testutil.AssertJSON(t, w, &resp)
	assert.NotNil(t, resp.Leaderboard)
	assert.Empty(t, resp.Leaderboard)
}
