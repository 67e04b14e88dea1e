// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first when present, so local
development can keep secrets out of the shell history.

# CLI Flags

	-p              Server port (default: 7071)
	-d              Database URL
	-log-level      debug, info, warn or error
	-storage        Blob storage connection string
	-auth-domain    Identity provider domain
	-auth-audience  Expected token audience

# Environment Variables

Flags fall back to environment variables:

	PORT                            → -p
	DATABASE_URL                    → -d
	LOG_LEVEL                       → -log-level
	AZURE_STORAGE_CONNECTION_STRING → -storage
	AUTH0_DOMAIN                    → -auth-domain
	AUTH0_AUDIENCE                  → -auth-audience
	IMU_CONTAINER                   (default: imu-alpha)
	CORS_ORIGINS                    (comma separated, default: *)

When DATABASE_URL is empty the URL is assembled from DB_HOST, DB_PORT,
DB_USER, DB_PASSWORD, DB_NAME and DB_SSLMODE.

CLI flags take precedence over environment variables.

# Time Zone

Every database URL gets timezone=UTC appended so timestamps written with
NOW() and read back as time.Time are always UTC.

# Validation

ParseFlags returns an error if the database URL, AUTH0_DOMAIN or
AUTH0_AUDIENCE is missing. The storage connection string is optional at
startup.
*/
package cliparse
