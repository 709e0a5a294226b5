// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"testing"
)

func TestInitRequiresDatabaseURL(t *testing.T) {
	if err := Init(testContext(), "  "); !errors.Is(err, ErrDatabaseURLNotSet) {
		t.Fatalf("expected ErrDatabaseURLNotSet, got %v", err)
	}
}

func TestOpenMigrationDBRequiresURL(t *testing.T) {
	if _, err := OpenMigrationDB(""); !errors.Is(err, ErrDatabaseURLNotSet) {
		t.Fatalf("expected ErrDatabaseURLNotSet, got %v", err)
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := GetEmbeddedMigrations().ReadDir(MigrationsDir())
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one migration")
	}
}

func TestSyncSchemaIsIdempotent(t *testing.T) {
	requireDatabase(t)

	if err := SyncSchema(testContext()); err != nil {
		t.Fatalf("SyncSchema failed: %v", err)
	}
}
