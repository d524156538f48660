package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pxk/model"
)

func newMemDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// one connection, otherwise every pool connection gets its own empty :memory: db
	db.SetMaxOpenConns(1)
	if err := ApplySchema(db); err != nil {
		t.Fatalf("ApplySchema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPrintLog_RecordAndRecent(t *testing.T) {
	pl := NewPrintLog(newMemDB(t))
	base := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)

	first, err := pl.Record(model.PrintLogEntry{RecordID: "recM1", SoPhieu: "PX-1", ItemCount: 3, Strategy: "link"}, base)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == uuid.Nil || first.PrintedAt != "2024-03-09 08:00:00" || first.Format != "pdf" {
		t.Fatalf("defaults not filled: %+v", first)
	}
	if _, err := pl.Record(model.PrintLogEntry{RecordID: "recM2", SoPhieu: "PX-2", Format: "html"}, base.Add(time.Minute)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	third, err := pl.Record(model.PrintLogEntry{RecordID: "recM1", SoPhieu: "PX-1"}, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := pl.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].PrintedAt != "2024-03-09 08:02:00" || got[1].RecordID != "recM2" || got[1].Format != "html" {
		t.Fatalf("unexpected recent entries: %+v", got)
	}
	if got[0].ID != third.ID {
		t.Fatalf("id did not round-trip: got %s, want %s", got[0].ID, third.ID)
	}

	n, err := pl.CountByRecord("recM1")
	if err != nil || n != 2 {
		t.Fatalf("CountByRecord = %d, %v; want 2", n, err)
	}
}

func TestPrintLog_DuplicateID(t *testing.T) {
	pl := NewPrintLog(newMemDB(t))
	e := model.PrintLogEntry{ID: uuid.MustParse("6f1c2b9e-3d4a-4c5b-8e7f-0a1b2c3d4e5f"), RecordID: "recM1"}
	if _, err := pl.Record(e, time.Now()); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := pl.Record(e, time.Now()); err == nil {
		t.Fatalf("expected primary key violation")
	}
}

func TestOpenPrintLog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pxk.db")
	db, err := OpenPrintLog(path)
	if err != nil {
		t.Fatalf("OpenPrintLog: %v", err)
	}
	defer db.Close()
	entries, err := NewPrintLog(db).Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("fresh journal should be empty, got %d", len(entries))
	}
}
