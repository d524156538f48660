package database

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"pxk/model"
)

//go:embed schema.sql
var schemaSQL string

const printedAtLayout = "2006-01-02 15:04:05"

// OpenPrintLog opens (or creates) the sqlite journal and applies the schema.
func OpenPrintLog(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open print log %s: %w", path, err)
	}
	if err := ApplySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ApplySchema creates the journal tables if they do not exist.
func ApplySchema(db *sqlx.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// PrintLog appends printed slips to the journal.
type PrintLog struct {
	db *sqlx.DB
}

func NewPrintLog(db *sqlx.DB) *PrintLog {
	return &PrintLog{db: db}
}

// Record stores one print. ID and PrintedAt are filled in when empty.
func (p *PrintLog) Record(entry model.PrintLogEntry, at time.Time) (model.PrintLogEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.PrintedAt == "" {
		entry.PrintedAt = at.Format(printedAtLayout)
	}
	if entry.Format == "" {
		entry.Format = "pdf"
	}
	const q = `
		INSERT INTO print_log (id, record_id, so_phieu, item_count, strategy, format, printed_at)
		VALUES (:id, :record_id, :so_phieu, :item_count, :strategy, :format, :printed_at)`
	if _, err := p.db.NamedExec(q, entry); err != nil {
		return entry, fmt.Errorf("insert print log (record %s): %w", entry.RecordID, err)
	}
	return entry, nil
}

// Recent returns the newest entries first.
func (p *PrintLog) Recent(limit int) ([]model.PrintLogEntry, error) {
	entries := []model.PrintLogEntry{}
	const q = `
		SELECT id, record_id, so_phieu, item_count, strategy, format, printed_at
		FROM print_log
		ORDER BY printed_at DESC, rowid DESC
		LIMIT ?`
	if err := p.db.Select(&entries, q, limit); err != nil {
		return nil, fmt.Errorf("failed to list print log: %w", err)
	}
	return entries, nil
}

// CountByRecord returns how many times a master record has been printed.
func (p *PrintLog) CountByRecord(recordID string) (int, error) {
	var n int
	if err := p.db.Get(&n, `SELECT COUNT(*) FROM print_log WHERE record_id = ?`, recordID); err != nil {
		return 0, fmt.Errorf("count print log for %s: %w", recordID, err)
	}
	return n, nil
}
