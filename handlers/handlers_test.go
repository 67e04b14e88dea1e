// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/dojogo/auth"
	"github.com/danielhkuo/dojogo/db"
	"github.com/danielhkuo/dojogo/testutil"
)

// setupStore returns a fresh schema and an executor over it
func setupStore(t *testing.T) (*sql.DB, *db.Executor) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	t.Cleanup(func() { conn.Close() })
	return conn, db.NewExecutor(conn)
}

// serveAs invokes an authenticated handler for userID
func serveAs(h func(http.ResponseWriter, *http.Request, auth.Principal), userID string, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, req, auth.Principal{UserID: userID})
	return w
}

func ptr[T any](v T) *T {
	return &v
}
