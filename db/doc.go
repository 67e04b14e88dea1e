// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db owns the PostgreSQL connection, schema migrations and the
Query Executor every handler goes through.

# Connecting

Open dials the database and verifies it with a ping. Migrate applies the
SQL migrations embedded from migrations/ using golang-migrate:

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal(err)
	}

Migrate is safe to call on every start.

# Executor

Executor runs one parameterized statement per call. Each call takes its own
connection from the pool and releases it on every exit path. Results are
returned as []Row, a column-name keyed map with typed accessors:

	rows, err := exec.Query(ctx, "SELECT id, streak FROM users WHERE id = $1", id)
	streak := rows[0].Int("streak")

All timestamps come back in UTC. Errors wrap ErrQueryFailed; constraint
violations can be classified with IsUniqueViolation and
IsForeignKeyViolation.

# Partial updates

Update builds an UPDATE from column names chosen by handler code. Values
always travel as bind parameters:

	q, args := db.Update("users").
		Set("kendo_rank", "2dan").
		SetNow("updated_at").
		Build("id", userID)

# Tables

	users 1──* sessions
	users 1──* session_starts
	users 1──* devices 1──* imu_sessions
	users 1──* imu_sessions 1──* imu_session_files
	imu_sessions 1──1 imu_session_stats
	(user_id, client_upload_id) ──1 imu_sessions (imu_client_uploads)

Device hardware ids are unique per user, not globally.
*/
package db
