package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ruteri/contract-analysis-backend/interfaces"
)

var errMissingKey = errors.New("transaction requires user id and transaction id")

// MemoryLedger keeps the ledger in process memory. It backs local development
// and tests; its contents are lost on restart.
type MemoryLedger struct {
	mu    sync.RWMutex
	users map[string]map[string]interfaces.Transaction
	log   *slog.Logger
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger(log *slog.Logger) *MemoryLedger {
	return &MemoryLedger{
		users: make(map[string]map[string]interfaces.Transaction),
		log:   log,
	}
}

// Put merges tx into the stored record for (UserID, TransactionID).
func (l *MemoryLedger) Put(ctx context.Context, tx interfaces.Transaction) error {
	if err := validateKey(tx); err != nil {
		return err
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txs, ok := l.users[tx.UserID]
	if !ok {
		txs = make(map[string]interfaces.Transaction)
		l.users[tx.UserID] = txs
	}
	txs[tx.TransactionID] = merge(txs[tx.TransactionID], tx)

	l.log.Debug("Stored transaction",
		slog.String("user_id", tx.UserID),
		slog.String("transaction_id", tx.TransactionID),
		slog.String("status", string(tx.Status)))
	return nil
}

// LatestApproved returns the newest approved transaction of the user.
func (l *MemoryLedger) LatestApproved(ctx context.Context, userID string) (*interfaces.Transaction, error) {
	return latest(l.snapshot(userID), isApproved), nil
}

// Latest returns the newest transaction of the user regardless of status.
func (l *MemoryLedger) Latest(ctx context.Context, userID string) (*interfaces.Transaction, error) {
	return latest(l.snapshot(userID), nil), nil
}

// Available always reports true.
func (l *MemoryLedger) Available(ctx context.Context) bool { return true }

// Name returns the backend identifier.
func (l *MemoryLedger) Name() string { return "memory" }

func (l *MemoryLedger) snapshot(userID string) []interfaces.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	txs := l.users[userID]
	out := make([]interfaces.Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx)
	}
	return out
}
