// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Request structs carry `validate` tags checked by middleware.Validate before a
handler touches the database:

  - CreateUserRequest: name, email
  - CreateTapSessionRequest: id, tapCount, duration
  - UpdateNicknameRequest: nickname (3-50 chars)
  - UpdateProfileRequest: nickname, kendoRank, kendoExperienceYears, kendoExperienceMonths
  - CreateImuSessionRequest: client_upload_id, device_info, start_time_utc, ...
  - FinalizeManifestRequest: end_time_utc, files, rate_stats

Timestamps in IMU requests stay strings here; handlers parse them so naive
values can be read as UTC.

# Response Types

User uses camelCase keys and epoch-second timestamps, matching what the
mobile client already stores. IMU responses use snake_case keys and RFC 3339
UTC timestamps.

Errors use ErrorResponse:

	{"error": "Bad Request", "message": "nickname must be at least 3 characters"}

with two specialized bodies: CooldownErrorResponse (daysRemaining) and
ManifestErrorResponse (missing_files, size_mismatches).

# Enumerations

  - Leaderboard: total, streak
  - Platform: ios, android, switch, other
  - CoordFrame: device, world
  - Purpose: raw, manifest, device, calib, events
  - KendoRanks: unranked, 9kyu..1kyu, 1dan..8dan
*/
package models
