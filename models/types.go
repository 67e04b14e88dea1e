package models

import (
	"time"

	"github.com/danielhkuo/dojogo/storage"
)

// Leaderboard types
const (
	LeaderboardTotal  = "total"
	LeaderboardStreak = "streak"
)

// Device platforms
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformSwitch  = "switch"
	PlatformOther   = "other"
)

// IMU coordinate frames
const (
	CoordFrameDevice = "device"
	CoordFrameWorld  = "world"
)

// File purposes accepted at finalize
const (
	PurposeRaw      = "raw"
	PurposeManifest = "manifest"
	PurposeDevice   = "device"
	PurposeCalib    = "calib"
	PurposeEvents   = "events"
)

const DefaultHardwareID = "unknown"

// KendoRanks lists every accepted rank, lowest first
var KendoRanks = []string{
	"unranked",
	"9kyu", "8kyu", "7kyu", "6kyu", "5kyu", "4kyu", "3kyu", "2kyu", "1kyu",
	"1dan", "2dan", "3dan", "4dan", "5dan", "6dan", "7dan", "8dan",
}

// Request types

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

type CreateTapSessionRequest struct {
	ID       string   `json:"id" validate:"required,max=255"`
	TapCount *int     `json:"tapCount" validate:"required,min=0"`
	Duration *float64 `json:"duration" validate:"required,min=0"`
}

type UpdateNicknameRequest struct {
	Nickname string `json:"nickname" validate:"required,min=3,max=50"`
}

// All fields optional; at least one must be present
type UpdateProfileRequest struct {
	Nickname              *string `json:"nickname" validate:"omitnil,min=3,max=50"`
	KendoRank             *string `json:"kendoRank" validate:"omitnil,kendorank"`
	KendoExperienceYears  *int    `json:"kendoExperienceYears" validate:"omitnil,min=0,max=100"`
	KendoExperienceMonths *int    `json:"kendoExperienceMonths" validate:"omitnil,min=0,max=11"`
}

type DeviceInfo struct {
	Platform   string  `json:"platform" validate:"required,oneof=ios android switch other"`
	Model      *string `json:"model" validate:"omitempty,max=255"`
	OSVersion  *string `json:"os_version" validate:"omitempty,max=100"`
	AppVersion *string `json:"app_version" validate:"omitempty,max=100"`
	HardwareID string  `json:"hw_id" validate:"max=255"`
}

type CreateImuSessionRequest struct {
	ClientUploadID string     `json:"client_upload_id" validate:"required,max=255"`
	DeviceInfo     DeviceInfo `json:"device_info"`
	StartTimeUTC   string     `json:"start_time_utc" validate:"required"`
	NominalHz      *float64   `json:"nominal_hz" validate:"omitempty,gt=0"`
	CoordFrame     string     `json:"coord_frame" validate:"omitempty,oneof=device world"`
	Notes          *string    `json:"notes"`
	GameSessionID  *string    `json:"game_session_id" validate:"omitempty,max=255"`
	ActionType     *string    `json:"action_type" validate:"omitempty,max=50"`
}

type ManifestFile struct {
	Filename    string  `json:"filename" validate:"required,max=255,blobname"`
	Purpose     string  `json:"purpose" validate:"required,oneof=raw manifest device calib events"`
	SHA256Hex   *string `json:"sha256_hex" validate:"omitempty,sha256hex"`
	BytesSize   int64   `json:"bytes_size" validate:"min=0"`
	NumSamples  *int64  `json:"num_samples" validate:"omitempty,min=0"`
	ContentType *string `json:"content_type" validate:"omitempty,max=100"`
}

type RateStats struct {
	SamplesTotal  int64    `json:"samples_total"`
	DurationMs    float64  `json:"duration_ms"`
	MeanHz        float64  `json:"mean_hz"`
	DtMsP50       *float64 `json:"dt_ms_p50"`
	DtMsP95       *float64 `json:"dt_ms_p95"`
	DtMsMax       *float64 `json:"dt_ms_max"`
	DroppedSeqPct *float64 `json:"dropped_seq_pct"`
}

// Complete reports whether the stats carry enough to be stored
func (s RateStats) Complete() bool {
	return s.SamplesTotal > 0 && s.DurationMs > 0 && s.MeanHz > 0
}

type FinalizeManifestRequest struct {
	EndTimeUTC string         `json:"end_time_utc" validate:"required"`
	Files      []ManifestFile `json:"files" validate:"dive"`
	RateStats  *RateStats     `json:"rate_stats"`
}

// Response types

type UserResponse struct {
	Message string `json:"message,omitempty"`
	User    User   `json:"user"`
}

type TapSessionResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	User      User   `json:"user"`
}

type SessionStartResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	Name       string  `json:"name"`
	Nickname   *string `json:"nickname"`
	Score      int64   `json:"score"`
	Streak     int     `json:"streak"`
	TotalCount int64   `json:"total_count"`
}

type LeaderboardResponse struct {
	Type        string             `json:"type"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type ImuSessionResponse struct {
	ImuSessionID  int64              `json:"imu_session_id"`
	UserID        string             `json:"user_id"`
	DeviceID      int64              `json:"device_id"`
	StartTimeUTC  time.Time          `json:"start_time_utc"`
	NominalHz     *float64           `json:"nominal_hz"`
	CoordFrame    string             `json:"coord_frame"`
	GameSessionID *string            `json:"game_session_id"`
	ActionType    *string            `json:"action_type"`
	SASToken      storage.Credential `json:"sas_token"`
}

type FinalizeManifestResponse struct {
	Message      string    `json:"message"`
	ImuSessionID int64     `json:"imu_session_id"`
	TotalFiles   int64     `json:"total_files"`
	TotalBytes   int64     `json:"total_bytes"`
	TotalSamples int64     `json:"total_samples"`
	EndTimeUTC   time.Time `json:"end_time_utc"`
}

type SizeMismatch struct {
	Filename    string `json:"filename"`
	ClaimedSize int64  `json:"claimed_size"`
	ActualSize  int64  `json:"actual_size"`
}

// ManifestErrorResponse reports every file that failed blob verification
type ManifestErrorResponse struct {
	Error          string         `json:"error"`
	Message        string         `json:"message"`
	MissingFiles   []string       `json:"missing_files"`
	SizeMismatches []SizeMismatch `json:"size_mismatches"`
}

type CooldownErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	DaysRemaining int    `json:"daysRemaining"`
}

type ImuSessionList struct {
	Sessions []ImuSessionSummary `json:"sessions"`
	Total    int64               `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
}

type DBHealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Domain types

type User struct {
	ID                    string  `json:"id"`
	UserNumber            int64   `json:"userNumber"`
	Name                  string  `json:"name"`
	Nickname              *string `json:"nickname"`
	NicknameLastChanged   *int64  `json:"nicknameLastChanged"` // epoch seconds
	KendoRank             *string `json:"kendoRank"`
	KendoExperienceYears  int     `json:"kendoExperienceYears"`
	KendoExperienceMonths int     `json:"kendoExperienceMonths"`
	Email                 string  `json:"email"`
	Streak                int     `json:"streak"`
	TotalCount            int64   `json:"totalCount"`
	CreatedAt             int64   `json:"createdAt"` // epoch seconds
}

type DeviceSummary struct {
	Platform  *string `json:"platform"`
	Model     *string `json:"model"`
	OSVersion *string `json:"os_version,omitempty"`
}

type ImuSessionFile struct {
	FileID      int64     `json:"file_id"`
	Purpose     string    `json:"purpose"`
	StorageURL  string    `json:"storage_url"`
	ContentType *string   `json:"content_type"`
	BytesSize   int64     `json:"bytes_size"`
	SHA256Hex   *string   `json:"sha256_hex"`
	NumSamples  *int64    `json:"num_samples"`
	CreatedAt   time.Time `json:"created_at"`
}

type ImuSessionSummary struct {
	ImuSessionID int64         `json:"imu_session_id"`
	UserID       string        `json:"user_id"`
	DeviceID     int64         `json:"device_id"`
	StartTimeUTC time.Time     `json:"start_time_utc"`
	EndTimeUTC   *time.Time    `json:"end_time_utc"`
	NominalHz    *float64      `json:"nominal_hz"`
	CoordFrame   string        `json:"coord_frame"`
	ActionType   *string       `json:"action_type"`
	CreatedAt    time.Time     `json:"created_at"`
	Device       DeviceSummary `json:"device"`
}

type ImuSessionDetail struct {
	ImuSessionSummary
	GravityRemoved bool             `json:"gravity_removed"`
	Notes          *string          `json:"notes"`
	GameSessionID  *string          `json:"game_session_id"`
	Files          []ImuSessionFile `json:"files"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
