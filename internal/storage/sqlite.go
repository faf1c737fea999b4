package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/garrettladley/csverify/internal/migrations"
)

var _ ReceiptStore = (*SQLiteStore)(nil)

// SQLiteStore keeps receipts in a local database file. Times are stored as
// unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time; avoids SQLITE_BUSY under the CLI's concurrent verifies
	db.SetMaxOpenConns(1)

	if err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Add(ctx context.Context, r Receipt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO receipts (`+receiptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Module,
		r.Event,
		r.APIKey,
		r.EntryUID,
		unixMilli(r.TriggeredAt),
		r.ReceivedAt.UnixMicro(),
		nullString(r.Payload),
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSince(ctx context.Context, since time.Time, limit int) ([]Receipt, error) {
	return s.query(ctx, `
		SELECT `+receiptColumns+`
		FROM receipts
		WHERE received_at > ?
		ORDER BY received_at, id
		LIMIT ?`,
		since.UnixMicro(), clampLimit(limit),
	)
}

// Recent returns the newest limit receipts, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Receipt, error) {
	return s.query(ctx, `
		SELECT `+receiptColumns+`
		FROM receipts
		ORDER BY received_at DESC, id DESC
		LIMIT ?`,
		clampLimit(limit),
	)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]Receipt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var receipts []Receipt
	for rows.Next() {
		var (
			r           Receipt
			triggeredAt sql.NullInt64
			receivedAt  int64
			payload     sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Module, &r.Event, &r.APIKey, &r.EntryUID, &triggeredAt, &receivedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		if triggeredAt.Valid {
			r.TriggeredAt = time.UnixMilli(triggeredAt.Int64)
		}
		r.ReceivedAt = time.UnixMicro(receivedAt)
		if payload.Valid {
			r.Payload = []byte(payload.String)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return receipts, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func unixMilli(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func nullString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
