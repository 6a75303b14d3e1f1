package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ruteri/contract-analysis-backend/interfaces"
)

// SQLiteLedger stores the ledger in a single SQLite database file.
type SQLiteLedger struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// NewSQLiteLedger opens (creating if needed) the database at dbPath and applies
// the schema.
func NewSQLiteLedger(dbPath string, log *slog.Logger) (*SQLiteLedger, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite ledger: %w", err)
	}
	// A single connection keeps :memory: databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	l := &SQLiteLedger{db: db, path: dbPath, log: log}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLiteLedger) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS transactions (
			user_id TEXT NOT NULL,
			transaction_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			timestamp INTEGER NOT NULL,
			preference_id TEXT NOT NULL DEFAULT '',
			payment_id TEXT NOT NULL DEFAULT '',
			checkout_url TEXT NOT NULL DEFAULT '',
			user_email TEXT NOT NULL DEFAULT '',
			raw BLOB,
			PRIMARY KEY (user_id, transaction_id)
		);

		CREATE INDEX IF NOT EXISTS idx_transactions_user_ts
			ON transactions(user_id, timestamp DESC);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate sqlite ledger: %w", err)
	}
	return nil
}

// Put upserts tx, keeping stored values for any empty field of tx.
func (l *SQLiteLedger) Put(ctx context.Context, tx interfaces.Transaction) error {
	if err := validateKey(tx); err != nil {
		return err
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	var raw any
	if len(tx.RawPayload) > 0 {
		raw = []byte(tx.RawPayload)
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO transactions
			(user_id, transaction_id, status, timestamp, preference_id, payment_id, checkout_url, user_email, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, transaction_id) DO UPDATE SET
			status = COALESCE(NULLIF(excluded.status, ''), transactions.status),
			timestamp = excluded.timestamp,
			preference_id = COALESCE(NULLIF(excluded.preference_id, ''), transactions.preference_id),
			payment_id = COALESCE(NULLIF(excluded.payment_id, ''), transactions.payment_id),
			checkout_url = COALESCE(NULLIF(excluded.checkout_url, ''), transactions.checkout_url),
			user_email = COALESCE(NULLIF(excluded.user_email, ''), transactions.user_email),
			raw = COALESCE(excluded.raw, transactions.raw)
	`,
		tx.UserID, tx.TransactionID, string(tx.Status), tx.Timestamp.UnixNano(),
		tx.PreferenceID, tx.PaymentID, tx.CheckoutURL, tx.UserEmail, raw)
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrLedgerUnavailable, err)
	}
	return nil
}

// LatestApproved returns the newest approved transaction of the user.
func (l *SQLiteLedger) LatestApproved(ctx context.Context, userID string) (*interfaces.Transaction, error) {
	return l.queryOne(ctx, `
		SELECT user_id, transaction_id, status, timestamp, preference_id, payment_id, checkout_url, user_email, raw
		FROM transactions
		WHERE user_id = ? AND status = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`, userID, string(interfaces.StatusApproved))
}

// Latest returns the newest transaction of the user regardless of status.
func (l *SQLiteLedger) Latest(ctx context.Context, userID string) (*interfaces.Transaction, error) {
	return l.queryOne(ctx, `
		SELECT user_id, transaction_id, status, timestamp, preference_id, payment_id, checkout_url, user_email, raw
		FROM transactions
		WHERE user_id = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`, userID)
}

func (l *SQLiteLedger) queryOne(ctx context.Context, query string, args ...any) (*interfaces.Transaction, error) {
	var (
		tx     interfaces.Transaction
		status string
		ts     int64
		raw    []byte
	)
	err := l.db.QueryRowContext(ctx, query, args...).Scan(
		&tx.UserID, &tx.TransactionID, &status, &ts,
		&tx.PreferenceID, &tx.PaymentID, &tx.CheckoutURL, &tx.UserEmail, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrLedgerUnavailable, err)
	}

	tx.Status = interfaces.TransactionStatus(status)
	tx.Timestamp = time.Unix(0, ts).UTC()
	if len(raw) > 0 {
		tx.RawPayload = raw
	}
	return &tx, nil
}

// Available pings the database.
func (l *SQLiteLedger) Available(ctx context.Context) bool {
	if err := l.db.PingContext(ctx); err != nil {
		l.log.Warn("SQLite ledger unavailable", slog.String("path", l.path), "err", err)
		return false
	}
	return true
}

// Name returns the backend identifier.
func (l *SQLiteLedger) Name() string { return "sqlite-" + l.path }

// Close releases the database handle.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
