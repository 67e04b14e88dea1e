// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/dojogo/models"
	"github.com/danielhkuo/dojogo/testutil"
)

// TestFullPlayerWorkflow tests a player's first day end to end:
// 1. Register
// 2. Play two tap sessions
// 3. Appear on both leaderboards
// 4. Pick a nickname
// 5. Record an IMU session and upload its files
// 6. Finalize, then read the session back
func TestFullPlayerWorkflow(t *testing.T) {
	_, store := setupStore(t)
	blobs := testutil.NewFakeStorage()

	userHandler := NewUserHandler(store)
	sessionHandler := NewSessionHandler(store)
	leaderboardHandler := NewLeaderboardHandler(store)
	profileHandler := NewProfileHandler(store)
	imuHandler := NewImuHandler(store, blobs)

	const player = "auth0|workflow"

	// Step 1: Register
	req := testutil.MakeRequest("POST", "/users", models.CreateUserRequest{Name: "Workflow", Email: "workflow@example.com"}, nil)
	w := serveAs(userHandler.CreateUser, player, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Register failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 2: Two sessions
	for i, taps := range []int{120, 80} {
		w = serveAs(sessionHandler.LogSessionStart, player, testutil.MakeRequest("POST", "/session-starts", nil, nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 2 - Session start %d failed: %d - %s", i, w.Code, w.Body.String())
		}

		body := models.CreateTapSessionRequest{ID: fmt.Sprintf("wf-%d", i), TapCount: ptr(taps), Duration: ptr(30.0)}
		w = serveAs(sessionHandler.CreateSession, player, testutil.MakeRequest("POST", "/sessions", body, nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 2 - Session %d failed: %d - %s", i, w.Code, w.Body.String())
		}
	}

	var me models.UserResponse
	w = serveAs(userHandler.GetMe, player, testutil.MakeRequest("GET", "/users/me", nil, nil))
	testutil.AssertJSON(t, w, &me)
	if me.User.TotalCount != 200 || me.User.Streak != 1 {
		t.Fatalf("Step 2 - Expected total 200 and streak 1, got %d and %d", me.User.TotalCount, me.User.Streak)
	}

	// Step 3: Leaderboards
	for _, boardType := range []string{models.LeaderboardTotal, models.LeaderboardStreak} {
		w = httptest.NewRecorder()
		leaderboardHandler.GetLeaderboard(w, testutil.MakeRequest("GET", "/leaderboard?type="+boardType, nil, nil))

		var board models.LeaderboardResponse
		testutil.AssertJSON(t, w, &board)
		if len(board.Leaderboard) != 1 || board.Leaderboard[0].Rank != 1 {
			t.Fatalf("Step 3 - Expected the player alone at rank 1 on %s, got %+v", boardType, board.Leaderboard)
		}
	}

	// Step 4: Nickname
	w = serveAs(profileHandler.UpdateNickname, player,
		testutil.MakeRequest("PATCH", "/nickname", models.UpdateNicknameRequest{Nickname: "Kiai"}, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 4 - Nickname failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 5: IMU session and upload
	w = serveAs(imuHandler.CreateImuSession, player,
		testutil.MakeRequest("POST", "/imu-sessions", imuCreateBody("wf-imu"), nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 5 - IMU create failed: %d - %s", w.Code, w.Body.String())
	}
	var session models.ImuSessionResponse
	testutil.AssertJSON(t, w, &session)

	blobs.PutBlob(session.SASToken.Path+"imu_raw.bin", 2048)
	blobs.PutBlob(session.SASToken.Path+"manifest.json", 256)

	// Step 6: Finalize and read back
	manifest := manifestBody(
		models.ManifestFile{Filename: "imu_raw.bin", Purpose: models.PurposeRaw, BytesSize: 2048, NumSamples: ptr(int64(1000))},
		models.ManifestFile{Filename: "manifest.json", Purpose: models.PurposeManifest, BytesSize: 256},
	)
	w = finalize(imuHandler, player, session.ImuSessionID, manifest)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 6 - Finalize failed: %d - %s", w.Code, w.Body.String())
	}

	id := fmt.Sprint(session.ImuSessionID)
	req = testutil.MakeRequest("GET", "/imu-sessions/"+id, nil, nil)
	req.SetPathValue("id", id)
	w = serveAs(imuHandler.GetImuSession, player, req)

	var detail models.ImuSessionDetail
	testutil.AssertJSON(t, w, &detail)
	if detail.EndTimeUTC == nil || len(detail.Files) != 2 {
		t.Fatalf("Step 6 - Expected a closed session with 2 files, got end=%v files=%d", detail.EndTimeUTC, len(detail.Files))
	}

	w = serveAs(imuHandler.ListImuSessions, player, testutil.MakeRequest("GET", "/imu-sessions", nil, nil))
	var list models.ImuSessionList
	testutil.AssertJSON(t, w, &list)
	if list.Total != 1 || list.Sessions[0].ImuSessionID != session.ImuSessionID {
		t.Fatalf("Step 6 - Expected the session in the list, got %+v", list)
	}
	t.Logf("Workflow complete: imu session %d", session.ImuSessionID)
}

// TestUploadRetryScenario replays the mobile client's happy path including
// the retries it makes on flaky networks
func TestUploadRetryScenario(t *testing.T) {
	conn, store := setupStore(t)
	blobs := testutil.NewFakeStorage()

	userHandler := NewUserHandler(store)
	sessionHandler := NewSessionHandler(store)
	imuHandler := NewImuHandler(store, blobs)

	w := serveAs(userHandler.CreateUser, "u1",
		testutil.MakeRequest("POST", "/users", models.CreateUserRequest{Name: "Aki", Email: "aki@example.com"}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created models.UserResponse
	testutil.AssertJSON(t, w, &created)
	if created.User.Streak != 0 || created.User.TotalCount != 0 {
		t.Fatalf("Expected a fresh user, got streak=%d total=%d", created.User.Streak, created.User.TotalCount)
	}

	var tap models.TapSessionResponse
	w = serveAs(sessionHandler.CreateSession, "u1", testutil.MakeRequest("POST", "/sessions",
		models.CreateTapSessionRequest{ID: "s1", TapCount: ptr(5), Duration: ptr(12.3)}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
	testutil.AssertJSON(t, w, &tap)
	if tap.User.TotalCount != 5 || tap.User.Streak != 1 {
		t.Fatalf("After s1 expected total=5 streak=1, got total=%d streak=%d", tap.User.TotalCount, tap.User.Streak)
	}

	w = serveAs(sessionHandler.CreateSession, "u1", testutil.MakeRequest("POST", "/sessions",
		models.CreateTapSessionRequest{ID: "s2", TapCount: ptr(3), Duration: ptr(4.0)}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
	testutil.AssertJSON(t, w, &tap)
	if tap.User.TotalCount != 8 || tap.User.Streak != 1 {
		t.Fatalf("After s2 expected total=8 streak=1, got total=%d streak=%d", tap.User.TotalCount, tap.User.Streak)
	}

	body := models.CreateImuSessionRequest{
		ClientUploadID: "c1",
		DeviceInfo:     models.DeviceInfo{Platform: models.PlatformIOS},
		StartTimeUTC:   time.Now().UTC().Format(time.RFC3339),
	}
	var first, second models.ImuSessionResponse
	w = serveAs(imuHandler.CreateImuSession, "u1", testutil.MakeRequest("POST", "/imu-sessions", body, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
	testutil.AssertJSON(t, w, &first)
	if !strings.Contains(first.SASToken.Path, fmt.Sprint(first.ImuSessionID)) {
		t.Fatalf("Credential path %q does not contain session %d", first.SASToken.Path, first.ImuSessionID)
	}

	w = serveAs(imuHandler.CreateImuSession, "u1", testutil.MakeRequest("POST", "/imu-sessions", body, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &second)
	if second.ImuSessionID != first.ImuSessionID {
		t.Fatalf("Retry returned session %d, expected %d", second.ImuSessionID, first.ImuSessionID)
	}

	blobs.PutBlob(first.SASToken.Path+"raw.bin", 1024)
	manifest := manifestBody(models.ManifestFile{Filename: "raw.bin", Purpose: models.PurposeRaw, BytesSize: 1024})

	var done, replay models.FinalizeManifestResponse
	w = finalize(imuHandler, "u1", first.ImuSessionID, manifest)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &done)
	if done.TotalFiles != 1 {
		t.Fatalf("Expected total_files=1, got %d", done.TotalFiles)
	}

	w = finalize(imuHandler, "u1", first.ImuSessionID, manifest)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &replay)
	if replay.TotalFiles != done.TotalFiles || replay.TotalBytes != done.TotalBytes || replay.TotalSamples != done.TotalSamples {
		t.Errorf("Replay totals %+v differ from %+v", replay, done)
	}
	if n := countRows(t, conn, "SELECT COUNT(*) FROM imu_session_files WHERE imu_session_id = $1", first.ImuSessionID); n != 1 {
		t.Errorf("Expected 1 file row, got %d", n)
	}
}
