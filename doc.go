// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the dojogo API server.

dojogo is the backend of a kendo training game: players tap through
sessions, build daily streaks, compete on leaderboards and record IMU
motion captures that upload straight to blob storage.

# Starting the Server

The server reads CLI flags, then the environment (and .env):

	DATABASE_URL=postgres://... AUTH0_DOMAIN=... AUTH0_AUDIENCE=... go run .

Or with flags:

	go run . -p 7071 -d "postgres://..." -auth-domain tenant.auth0.com -auth-audience https://api.dojogo

# Configuration

Required settings:

  - DATABASE_URL (-d), or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD
  - AUTH0_DOMAIN (-auth-domain): Token issuer domain
  - AUTH0_AUDIENCE (-auth-audience): Expected token audience

Optional settings:

  - PORT (-p): Server port (default: 7071)
  - LOG_LEVEL (-log-level): debug, info, warn, error
  - AZURE_STORAGE_CONNECTION_STRING (-storage): Blob storage account
  - IMU_CONTAINER: Upload container (default: imu-alpha)
  - CORS_ORIGINS: Comma separated allowed origins (default: *)

# Architecture

  - handlers: HTTP request handlers (users, sessions, leaderboard, profile, imu)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Auth gate, CORS, logging, metrics, validation, JSON helpers
  - models: Request/response types
  - auth: Bearer token verification against the provider's key set
  - storage: Blob storage upload credentials and blob checks
  - db: Query executor, partial updates and migrations
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
