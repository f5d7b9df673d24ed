package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/routinelog/internal/catalog"
)

func TestOpenCreatesSQLiteFileAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "routine.db")

	gdb, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { Close(gdb) })

	migrator := gdb.Migrator()
	if !migrator.HasTable(&User{}) {
		t.Fatal("expected users table")
	}
	if !migrator.HasTable(&ScheduleEntry{}) {
		t.Fatal("expected schedule_entries table")
	}
	if !migrator.HasIndex(&ScheduleEntry{}, "idx_schedule_entry_unique") {
		t.Fatal("expected natural key index on schedule_entries")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if _, err := Open(DriverPostgres, ""); err == nil {
		t.Fatal("expected error for postgres without DSN")
	}
}

func TestScheduleEntryNaturalKeyIsUnique(t *testing.T) {
	gdb, err := Open(DriverSQLite, "file:db-unique?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { Close(gdb) })

	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	first := ScheduleEntry{UserID: 1, Date: day, Activity: catalog.Exercise}
	if err := gdb.Create(&first).Error; err != nil {
		t.Fatalf("failed to insert entry: %v", err)
	}

	dup := ScheduleEntry{UserID: 1, Date: day, Activity: catalog.Exercise}
	if err := gdb.Create(&dup).Error; err == nil {
		t.Fatal("expected unique index violation")
	}

	other := ScheduleEntry{UserID: 2, Date: day, Activity: catalog.Exercise}
	if err := gdb.Create(&other).Error; err != nil {
		t.Fatalf("different account should be allowed: %v", err)
	}

	if got := first.Label(); got != "1: exercise" {
		t.Fatalf("unexpected label %q", got)
	}
}
