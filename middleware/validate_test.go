// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielhkuo/dojogo/models"
)

func ptr[T any](v T) *T { return &v }

func TestValidate_ImuSession(t *testing.T) {
	valid := func() models.CreateImuSessionRequest {
		return models.CreateImuSessionRequest{
			ClientUploadID: "upload-1",
			DeviceInfo:     models.DeviceInfo{Platform: "ios"},
			StartTimeUTC:   "2025-01-01T00:00:00Z",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*models.CreateImuSessionRequest)
		wantErr string
	}{
		{"valid", func(r *models.CreateImuSessionRequest) {}, ""},
		{"missing upload id", func(r *models.CreateImuSessionRequest) { r.ClientUploadID = "" }, "client_upload_id is required"},
		{"missing platform", func(r *models.CreateImuSessionRequest) { r.DeviceInfo.Platform = "" }, "device_info.platform is required"},
		{"bad platform", func(r *models.CreateImuSessionRequest) { r.DeviceInfo.Platform = "windows" }, "device_info.platform must be one of: ios, android, switch, other"},
		{"bad coord frame", func(r *models.CreateImuSessionRequest) { r.CoordFrame = "body" }, "coord_frame must be one of: device, world"},
		{"missing start", func(r *models.CreateImuSessionRequest) { r.StartTimeUTC = "" }, "start_time_utc is required"},
		{"long action type", func(r *models.CreateImuSessionRequest) { r.ActionType = ptr(strings.Repeat("m", 51)) }, "action_type must be at most 50 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := Validate(req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestValidate_ManifestFiles(t *testing.T) {
	goodHash := strings.Repeat("ab", 32)

	tests := []struct {
		name    string
		file    models.ManifestFile
		wantErr string
	}{
		{"valid", models.ManifestFile{Filename: "raw.csv", Purpose: "raw", SHA256Hex: &goodHash, BytesSize: 10}, ""},
		{"no hash", models.ManifestFile{Filename: "raw.csv", Purpose: "raw"}, ""},
		{"missing filename", models.ManifestFile{Purpose: "raw"}, "files[0].filename is required"},
		{"bad purpose", models.ManifestFile{Filename: "x", Purpose: "video"}, "files[0].purpose must be one of: raw, manifest, device, calib, events"},
		{"uppercase hash", models.ManifestFile{Filename: "raw.csv", Purpose: "raw", SHA256Hex: ptr(strings.Repeat("AB", 32))}, ""},
		{"short hash", models.ManifestFile{Filename: "x", Purpose: "raw", SHA256Hex: ptr("abc")}, "files[0].sha256_hex must be 64 hexadecimal characters"},
		{"non hex hash", models.ManifestFile{Filename: "x", Purpose: "raw", SHA256Hex: ptr(strings.Repeat("zz", 32))}, "files[0].sha256_hex must be 64 hexadecimal characters"},
		{"0x prefixed hash", models.ManifestFile{Filename: "x", Purpose: "raw", SHA256Hex: ptr("0x" + strings.Repeat("a", 62))}, "files[0].sha256_hex must be 64 hexadecimal characters"},
		{"empty hash", models.ManifestFile{Filename: "x", Purpose: "raw", SHA256Hex: ptr("")}, "files[0].sha256_hex must be 64 hexadecimal characters"},
		{"nested filename", models.ManifestFile{Filename: "chunks/raw-001.bin", Purpose: "raw"}, ""},
		{"parent segment", models.ManifestFile{Filename: "../7/raw.bin", Purpose: "raw"}, "files[0].filename must be a relative path without empty, '.' or '..' segments"},
		{"absolute filename", models.ManifestFile{Filename: "/users/other/raw.bin", Purpose: "raw"}, "files[0].filename must be a relative path without empty, '.' or '..' segments"},
		{"negative size", models.ManifestFile{Filename: "x", Purpose: "raw", BytesSize: -1}, "files[0].bytes_size must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := models.FinalizeManifestRequest{
				EndTimeUTC: "2025-01-01T00:10:00Z",
				Files:      []models.ManifestFile{tt.file},
			}
			err := Validate(req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestValidBlobName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"raw.bin", true},
		{"chunks/raw-001.bin", true},
		{"..raw", true},
		{"", false},
		{"/raw.bin", false},
		{"raw/", false},
		{"a//b", false},
		{"./raw.bin", false},
		{"..", false},
		{"chunks/../../x", false},
		{`..\x`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validBlobName(tt.name))
		})
	}
}

func TestValidate_Profile(t *testing.T) {
	tests := []struct {
		name    string
		req     models.UpdateProfileRequest
		wantErr string
	}{
		{"empty is valid here", models.UpdateProfileRequest{}, ""},
		{"rank", models.UpdateProfileRequest{KendoRank: ptr("3dan")}, ""},
		{"unranked", models.UpdateProfileRequest{KendoRank: ptr("unranked")}, ""},
		{"bad rank", models.UpdateProfileRequest{KendoRank: ptr("9dan")}, "kendoRank must be one of: " + strings.Join(models.KendoRanks, ", ")},
		{"years too high", models.UpdateProfileRequest{KendoExperienceYears: ptr(101)}, "kendoExperienceYears must be at most 100"},
		{"months too high", models.UpdateProfileRequest{KendoExperienceMonths: ptr(12)}, "kendoExperienceMonths must be at most 11"},
		{"zero months", models.UpdateProfileRequest{KendoExperienceMonths: ptr(0)}, ""},
		{"short nickname", models.UpdateProfileRequest{Nickname: ptr("ab")}, "nickname must be at least 3 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
