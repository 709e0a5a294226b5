// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
)

func testContext() context.Context {
	return context.Background()
}

// requireDatabase skips tests that need Postgres when TestMain did not
// connect one.
func requireDatabase(t *testing.T) {
	t.Helper()

	if pool == nil {
		t.Skip("DATABASE_URL not set")
	}
}

func resetSessions(t *testing.T) {
	t.Helper()
	requireDatabase(t)

	if _, err := pool.Exec(testContext(), "TRUNCATE flamego_sessions"); err != nil {
		t.Fatalf("failed to reset sessions: %v", err)
	}
}
