package storage

import (
	"bytes"
	"testing"
)

func TestOpenTempExecAndQuery(t *testing.T) {
	db, err := OpenTemp()
	if err != nil {
		t.Fatalf("OpenTemp returned an unexpected error: %v", err)
	}
	defer db.Close()

	if err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		t.Fatalf("Exec returned an unexpected error: %v", err)
	}
	if err := db.Exec(`INSERT INTO t VALUES (?, ?)`, 7, "seven"); err != nil {
		t.Fatalf("Exec returned an unexpected error: %v", err)
	}

	id, ok, err := db.QueryInt64(`SELECT id FROM t WHERE name = ?`, "seven")
	if err != nil || !ok {
		t.Fatalf("QueryInt64 failed: ok=%v err=%v", ok, err)
	}
	if id != 7 {
		t.Errorf("Expected id 7, got %d", id)
	}

	name, ok, err := db.QueryString(`SELECT name FROM t WHERE id = ?`, 7)
	if err != nil || !ok {
		t.Fatalf("QueryString failed: ok=%v err=%v", ok, err)
	}
	if name != "seven" {
		t.Errorf("Expected name %q, got %q", "seven", name)
	}

	if _, ok, err := db.QueryInt64(`SELECT id FROM t WHERE id = 99`); err != nil {
		t.Fatalf("QueryInt64 returned an unexpected error: %v", err)
	} else if ok {
		t.Error("Expected no rows for a missing id")
	}
}

func TestExportReturnsSQLiteSnapshot(t *testing.T) {
	db, err := OpenTemp()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatal(err)
	}
	if err := db.Exec(`INSERT INTO t VALUES (1)`); err != nil {
		t.Fatal(err)
	}

	data, err := db.Export()
	if err != nil {
		t.Fatalf("Export returned an unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("SQLite format 3\x00")) {
		t.Error("Expected the snapshot to start with the SQLite magic header")
	}
}

func TestEngineClosedAfterExport(t *testing.T) {
	db, err := OpenTemp()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Export(); err != nil {
		t.Fatalf("Export returned an unexpected error: %v", err)
	}

	if err := db.Exec(`CREATE TABLE late (id INTEGER)`); err != ErrClosed {
		t.Errorf("Expected ErrClosed from Exec, got %v", err)
	}
	if _, err := db.Export(); err != ErrClosed {
		t.Errorf("Expected ErrClosed from second Export, got %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close after Export returned an unexpected error: %v", err)
	}
}
