// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/dojogo/auth"
	"github.com/danielhkuo/dojogo/db"
	"github.com/danielhkuo/dojogo/middleware"
	"github.com/danielhkuo/dojogo/models"
	"github.com/danielhkuo/dojogo/storage"
)

const (
	DefaultImuListLimit = 50
	MaxImuListLimit     = 100
)

// Accepted timestamp layouts; values without an offset are UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("expected an ISO-8601 timestamp")
}

type ImuHandler struct {
	store *db.Executor
	blobs storage.Gateway // nil when storage is not configured
}

func NewImuHandler(store *db.Executor, blobs storage.Gateway) *ImuHandler {
	return &ImuHandler{store: store, blobs: blobs}
}

const ledgerLookup = `
	SELECT s.imu_session_id, s.device_id, s.start_time_utc, s.nominal_hz,
	       s.coord_frame, s.game_session_id, s.action_type
	FROM imu_client_uploads u
	JOIN imu_sessions s ON s.imu_session_id = u.imu_session_id
	WHERE u.user_id = $1 AND u.client_upload_id = $2`

// CreateImuSession handles POST /imu-sessions
// Idempotent on (caller, client_upload_id): a retry returns the original
// session with 200 and a fresh upload credential
func (h *ImuHandler) CreateImuSession(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req models.CreateImuSessionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	startTime, err := parseTimestamp(req.StartTimeUTC)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid start_time_utc format: "+err.Error())
		return
	}
	if req.CoordFrame == "" {
		req.CoordFrame = models.CoordFrameDevice
	}
	if req.DeviceInfo.HardwareID == "" {
		req.DeviceInfo.HardwareID = models.DefaultHardwareID
	}

	ctx := r.Context()

	// Step 1: upsert device, hw_id is unique per user
	deviceRow, err := h.store.QueryOne(ctx, `
		INSERT INTO devices (user_id, platform, model, os_version, app_version, hw_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, hw_id) DO UPDATE SET
			platform = EXCLUDED.platform,
			model = EXCLUDED.model,
			os_version = EXCLUDED.os_version,
			app_version = EXCLUDED.app_version
		RETURNING device_id
	`, p.UserID, req.DeviceInfo.Platform, req.DeviceInfo.Model, req.DeviceInfo.OSVersion,
		req.DeviceInfo.AppVersion, req.DeviceInfo.HardwareID)
	if db.IsForeignKeyViolation(err) {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil || deviceRow == nil {
		slog.Error("failed to upsert device", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register device")
		return
	}
	deviceID := deviceRow.Int64("device_id")

	// Step 2: idempotency ledger
	status := http.StatusOK
	session, err := h.store.QueryOne(ctx, ledgerLookup, p.UserID, req.ClientUploadID)
	if err != nil {
		slog.Error("failed to query upload ledger", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if session == nil {
		// Step 3: new session plus its ledger entry
		session, status, err = h.insertSession(ctx, p.UserID, deviceID, startTime, req)
		if err != nil {
			slog.Error("failed to create IMU session", "user_id", p.UserID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create IMU session")
			return
		}
	}

	imuSessionID := session.Int64("imu_session_id")
	if status == http.StatusCreated {
		middleware.RecordImuSession("created")
		slog.Info("IMU session created", "user_id", p.UserID, "imu_session_id", imuSessionID, "device_id", deviceID)
	} else {
		middleware.RecordImuSession("replayed")
		slog.Info("returning existing IMU session (idempotent)", "user_id", p.UserID, "imu_session_id", imuSessionID)
	}

	// Step 4: upload credential. Rows above stay committed on failure; a
	// retry with the same client_upload_id picks them up again.
	if h.blobs == nil {
		slog.Error("blob storage not configured")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Blob storage not configured")
		return
	}
	cred, err := h.blobs.IssueUploadCredential(ctx, p.UserID, imuSessionID)
	if err != nil {
		slog.Error("failed to issue upload credential", "imu_session_id", imuSessionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to generate SAS token: "+err.Error())
		return
	}

	middleware.JSONResponse(w, status, models.ImuSessionResponse{
		ImuSessionID:  imuSessionID,
		UserID:        p.UserID,
		DeviceID:      session.Int64("device_id"),
		StartTimeUTC:  session.Time("start_time_utc"),
		NominalHz:     session.NullFloat64("nominal_hz"),
		CoordFrame:    session.String("coord_frame"),
		GameSessionID: session.NullString("game_session_id"),
		ActionType:    session.NullString("action_type"),
		SASToken:      cred,
	})
}

// insertSession creates the session row and claims the ledger entry. When a
// concurrent request claimed the same client_upload_id first, the fresh row
// is discarded and the winner is returned with 200.
func (h *ImuHandler) insertSession(ctx context.Context, userID string, deviceID int64, startTime time.Time, req models.CreateImuSessionRequest) (db.Row, int, error) {
	session, err := h.store.QueryOne(ctx, `
		INSERT INTO imu_sessions
			(user_id, device_id, start_time_utc, nominal_hz, coord_frame, notes, game_session_id, action_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING imu_session_id, device_id, start_time_utc, nominal_hz, coord_frame, game_session_id, action_type
	`, userID, deviceID, startTime, req.NominalHz, req.CoordFrame, req.Notes, req.GameSessionID, req.ActionType, time.Now().UTC())
	if err != nil {
		return nil, 0, err
	}
	imuSessionID := session.Int64("imu_session_id")

	err = h.store.Exec(ctx, `
		INSERT INTO imu_client_uploads (user_id, client_upload_id, imu_session_id)
		VALUES ($1, $2, $3)
	`, userID, req.ClientUploadID, imuSessionID)
	if err == nil {
		return session, http.StatusCreated, nil
	}
	if !db.IsUniqueViolation(err) {
		return nil, 0, err
	}

	if delErr := h.store.Exec(ctx, "DELETE FROM imu_sessions WHERE imu_session_id = $1", imuSessionID); delErr != nil {
		slog.Warn("failed to discard duplicate IMU session", "imu_session_id", imuSessionID, "error", delErr)
	}
	winner, err := h.store.QueryOne(ctx, ledgerLookup, userID, req.ClientUploadID)
	if err != nil {
		return nil, 0, err
	}
	if winner == nil {
		return nil, 0, errors.New("upload ledger entry vanished")
	}
	return winner, http.StatusOK, nil
}

// FinalizeManifest handles POST /imu-sessions/{id}/finalize
// Verifies the uploaded blobs, registers them and closes the session. A
// session that already has an end time is returned as-is with stored totals.
func (h *ImuHandler) FinalizeManifest(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	imuSessionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "imu_session_id must be a valid integer")
		return
	}

	var req models.FinalizeManifestRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	endTime, err := parseTimestamp(req.EndTimeUTC)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid end_time_utc format: "+err.Error())
		return
	}

	ctx := r.Context()

	// Step 1: ownership
	session, err := h.store.QueryOne(ctx, `
		SELECT imu_session_id, user_id, end_time_utc FROM imu_sessions WHERE imu_session_id = $1
	`, imuSessionID)
	if err != nil {
		slog.Error("failed to query IMU session", "imu_session_id", imuSessionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if session == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "IMU session not found")
		return
	}
	if session.String("user_id") != p.UserID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Session belongs to a different user")
		return
	}

	// Replay: report what is already registered, write nothing
	if finalizedAt := session.NullTime("end_time_utc"); finalizedAt != nil {
		h.respondFinalized(ctx, w, imuSessionID, *finalizedAt)
		return
	}

	// Step 2: every claimed file must be in storage with the claimed size
	sessionPath := storage.SessionPath(p.UserID, imuSessionID)
	if len(req.Files) > 0 {
		if h.blobs == nil {
			slog.Error("blob storage not configured")
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Blob storage not configured")
			return
		}

		report, err := h.verifyBlobs(ctx, sessionPath, req.Files)
		if err != nil {
			slog.Error("failed to verify blobs", "imu_session_id", imuSessionID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to verify blobs: "+err.Error())
			return
		}
		if len(report.MissingFiles) > 0 || len(report.SizeMismatches) > 0 {
			middleware.RecordFinalize("rejected", 0)
			slog.Warn("manifest verification failed",
				"imu_session_id", imuSessionID,
				"missing", len(report.MissingFiles),
				"size_mismatches", len(report.SizeMismatches),
			)
			middleware.JSONResponse(w, http.StatusBadRequest, report)
			return
		}
	}

	// Step 3: register files; repeats are no-ops
	var totalBytes, totalSamples int64
	for _, f := range req.Files {
		err := h.store.Exec(ctx, `
			INSERT INTO imu_session_files
				(imu_session_id, purpose, storage_url, content_type, bytes_size, sha256_hex, num_samples)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (imu_session_id, purpose, storage_url) DO NOTHING
		`, imuSessionID, f.Purpose, sessionPath+f.Filename, f.ContentType, f.BytesSize, f.SHA256Hex, f.NumSamples)
		if err != nil {
			slog.Error("failed to register file", "imu_session_id", imuSessionID, "filename", f.Filename, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register files")
			return
		}
		totalBytes += f.BytesSize
		if f.NumSamples != nil {
			totalSamples += *f.NumSamples
		}
	}

	// Step 4: close the session; an end time once set is never replaced
	var actualMeanHz *float64
	if req.RateStats != nil && req.RateStats.MeanHz > 0 {
		actualMeanHz = &req.RateStats.MeanHz
	}
	closed, err := h.store.QueryOne(ctx, `
		UPDATE imu_sessions SET end_time_utc = $1, actual_mean_hz = $2
		WHERE imu_session_id = $3 AND end_time_utc IS NULL
		RETURNING end_time_utc
	`, endTime, actualMeanHz, imuSessionID)
	if err != nil {
		slog.Error("failed to close IMU session", "imu_session_id", imuSessionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update session")
		return
	}
	if closed == nil {
		// A concurrent finalize closed it first; report the stored outcome
		current, err := h.store.QueryOne(ctx, "SELECT end_time_utc FROM imu_sessions WHERE imu_session_id = $1", imuSessionID)
		if err != nil || current == nil {
			slog.Error("failed to reload IMU session", "imu_session_id", imuSessionID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		h.respondFinalized(ctx, w, imuSessionID, current.Time("end_time_utc"))
		return
	}

	// Step 5: rate stats, at most once per session
	if stats := req.RateStats; stats != nil {
		if !stats.Complete() {
			slog.Warn("incomplete rate_stats, skipping", "imu_session_id", imuSessionID)
		} else {
			err = h.store.Exec(ctx, `
				INSERT INTO imu_session_stats
					(imu_session_id, samples_total, duration_ms, mean_hz, dt_ms_p50, dt_ms_p95, dt_ms_max, dropped_seq_pct)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (imu_session_id) DO NOTHING
			`, imuSessionID, stats.SamplesTotal, stats.DurationMs, stats.MeanHz,
				stats.DtMsP50, stats.DtMsP95, stats.DtMsMax, stats.DroppedSeqPct)
			if err != nil {
				slog.Error("failed to store rate_stats", "imu_session_id", imuSessionID, "error", err)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store rate stats")
				return
			}
		}
	}

	middleware.RecordFinalize("finalized", totalBytes)
	slog.Info("IMU session finalized",
		"imu_session_id", imuSessionID,
		"files", len(req.Files),
		"size", humanize.Bytes(uint64(totalBytes)),
		"samples", humanize.Comma(totalSamples),
	)

	middleware.JSONResponse(w, http.StatusOK, models.FinalizeManifestResponse{
		Message:      "Manifest finalized successfully",
		ImuSessionID: imuSessionID,
		TotalFiles:   int64(len(req.Files)),
		TotalBytes:   totalBytes,
		TotalSamples: totalSamples,
		EndTimeUTC:   endTime,
	})
}

// verifyBlobs checks every file before reporting, so the client learns about
// all missing or mismatched files at once. Only unexpected storage errors
// abort the scan.
func (h *ImuHandler) verifyBlobs(ctx context.Context, sessionPath string, files []models.ManifestFile) (models.ManifestErrorResponse, error) {
	report := models.ManifestErrorResponse{
		Error:          http.StatusText(http.StatusBadRequest),
		Message:        "Some files failed verification against blob storage",
		MissingFiles:   []string{},
		SizeMismatches: []models.SizeMismatch{},
	}

	for _, f := range files {
		size, err := h.blobs.BlobSize(ctx, sessionPath+f.Filename)
		if errors.Is(err, storage.ErrBlobNotFound) {
			report.MissingFiles = append(report.MissingFiles, f.Filename)
			continue
		}
		if err != nil {
			return report, err
		}
		if f.BytesSize > 0 && size != f.BytesSize {
			report.SizeMismatches = append(report.SizeMismatches, models.SizeMismatch{
				Filename:    f.Filename,
				ClaimedSize: f.BytesSize,
				ActualSize:  size,
			})
		}
	}
	return report, nil
}

func (h *ImuHandler) respondFinalized(ctx context.Context, w http.ResponseWriter, imuSessionID int64, endTime time.Time) {
	totals, err := h.store.QueryOne(ctx, `
		SELECT COUNT(*) AS total_files,
		       COALESCE(SUM(bytes_size), 0) AS total_bytes,
		       COALESCE(SUM(num_samples), 0) AS total_samples
		FROM imu_session_files
		WHERE imu_session_id = $1
	`, imuSessionID)
	if err != nil || totals == nil {
		slog.Error("failed to total session files", "imu_session_id", imuSessionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.RecordFinalize("replayed", 0)
	slog.Info("IMU session already finalized (idempotent)", "imu_session_id", imuSessionID)

	middleware.JSONResponse(w, http.StatusOK, models.FinalizeManifestResponse{
		Message:      "Manifest already finalized (idempotent)",
		ImuSessionID: imuSessionID,
		TotalFiles:   totals.Int64("total_files"),
		TotalBytes:   totals.Int64("total_bytes"),
		TotalSamples: totals.Int64("total_samples"),
		EndTimeUTC:   endTime,
	})
}

// GetImuSession handles GET /imu-sessions/{id}
func (h *ImuHandler) GetImuSession(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	imuSessionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "imu_session_id must be a valid integer")
		return
	}

	ctx := r.Context()

	row, err := h.store.QueryOne(ctx, `
		SELECT s.imu_session_id, s.user_id, s.device_id, s.start_time_utc, s.end_time_utc,
		       s.nominal_hz, s.coord_frame, s.gravity_removed, s.notes, s.game_session_id,
		       s.action_type, s.created_at, d.platform, d.model, d.os_version
		FROM imu_sessions s
		LEFT JOIN devices d ON d.device_id = s.device_id
		WHERE s.imu_session_id = $1
	`, imuSessionID)
	if err != nil {
		slog.Error("failed to query IMU session", "imu_session_id", imuSessionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if row == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "IMU session not found")
		return
	}
	if row.String("user_id") != p.UserID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Session belongs to a different user")
		return
	}

	fileRows, err := h.store.Query(ctx, `
		SELECT file_id, purpose, storage_url, content_type, bytes_size, sha256_hex, num_samples, created_at
		FROM imu_session_files
		WHERE imu_session_id = $1
		ORDER BY purpose, created_at, file_id
	`, imuSessionID)
	if err != nil {
		slog.Error("failed to query session files", "imu_session_id", imuSessionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	detail := models.ImuSessionDetail{
		ImuSessionSummary: sessionSummaryFromRow(row),
		GravityRemoved:    row.Bool("gravity_removed"),
		Notes:             row.NullString("notes"),
		GameSessionID:     row.NullString("game_session_id"),
		Files:             make([]models.ImuSessionFile, 0, len(fileRows)),
	}
	detail.Device.OSVersion = row.NullString("os_version")

	for _, f := range fileRows {
		detail.Files = append(detail.Files, models.ImuSessionFile{
			FileID:      f.Int64("file_id"),
			Purpose:     f.String("purpose"),
			StorageURL:  f.String("storage_url"),
			ContentType: f.NullString("content_type"),
			BytesSize:   f.Int64("bytes_size"),
			SHA256Hex:   f.NullString("sha256_hex"),
			NumSamples:  f.NullInt64("num_samples"),
			CreatedAt:   f.Time("created_at"),
		})
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// ListImuSessions handles GET /imu-sessions?limit=&offset=
// Newest first by start time
func (h *ImuHandler) ListImuSessions(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), DefaultImuListLimit, MaxImuListLimit)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
		offset = max(offset, 0)
	}

	ctx := r.Context()

	countRow, err := h.store.QueryOne(ctx, "SELECT COUNT(*) AS total FROM imu_sessions WHERE user_id = $1", p.UserID)
	if err != nil || countRow == nil {
		slog.Error("failed to count IMU sessions", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.store.Query(ctx, `
		SELECT s.imu_session_id, s.user_id, s.device_id, s.start_time_utc, s.end_time_utc,
		       s.nominal_hz, s.coord_frame, s.action_type, s.created_at, d.platform, d.model
		FROM imu_sessions s
		LEFT JOIN devices d ON d.device_id = s.device_id
		WHERE s.user_id = $1
		ORDER BY s.start_time_utc DESC, s.imu_session_id DESC
		LIMIT $2 OFFSET $3
	`, p.UserID, limit, offset)
	if err != nil {
		slog.Error("failed to list IMU sessions", "user_id", p.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	list := models.ImuSessionList{
		Sessions: make([]models.ImuSessionSummary, 0, len(rows)),
		Total:    countRow.Int64("total"),
		Limit:    limit,
		Offset:   offset,
	}
	for _, row := range rows {
		list.Sessions = append(list.Sessions, sessionSummaryFromRow(row))
	}

	middleware.JSONResponse(w, http.StatusOK, list)
}

func sessionSummaryFromRow(row db.Row) models.ImuSessionSummary {
	return models.ImuSessionSummary{
		ImuSessionID: row.Int64("imu_session_id"),
		UserID:       row.String("user_id"),
		DeviceID:     row.Int64("device_id"),
		StartTimeUTC: row.Time("start_time_utc"),
		EndTimeUTC:   row.NullTime("end_time_utc"),
		NominalHz:    row.NullFloat64("nominal_hz"),
		CoordFrame:   row.String("coord_frame"),
		ActionType:   row.NullString("action_type"),
		CreatedAt:    row.Time("created_at"),
		Device: models.DeviceSummary{
			Platform: row.NullString("platform"),
			Model:    row.NullString("model"),
		},
	}
}
