package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/contract-analysis-backend/interfaces"
)

// Policy selects how the ledger is read when no bypass voucher matches.
type Policy string

const (
	// PolicyEverApproved allows any user with at least one approved transaction.
	PolicyEverApproved Policy = "ever_approved"

	// PolicyLatest allows a user only when their most recent transaction is approved.
	PolicyLatest Policy = "latest"
)

// ParsePolicy maps a flag value onto a Policy. The empty string selects the default.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyEverApproved:
		return PolicyEverApproved, nil
	case PolicyLatest:
		return PolicyLatest, nil
	default:
		return "", fmt.Errorf("unknown gate policy %q", s)
	}
}

// NormalizeVoucher trims and case-folds a voucher value.
func NormalizeVoucher(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Gate decides whether a request may proceed to analysis.
type Gate struct {
	bypass string
	policy Policy
	ledger interfaces.PaymentLedger
	log    *slog.Logger
}

// NewGate creates a gate. An empty bypassSecret disables the bypass path; a nil
// ledger makes every non-bypass check fail with ErrLedgerUnavailable.
func NewGate(bypassSecret string, policy Policy, ledger interfaces.PaymentLedger, log *slog.Logger) *Gate {
	if policy == "" {
		policy = PolicyEverApproved
	}
	return &Gate{
		bypass: NormalizeVoucher(bypassSecret),
		policy: policy,
		ledger: ledger,
		log:    log,
	}
}

// Policy returns the configured ledger policy.
func (g *Gate) Policy() Policy { return g.policy }

// Authorize checks the voucher first and then the ledger. The returned error
// is only ever an operational failure wrapping ErrLedgerUnavailable; a denial
// is a Decision with Allow=false.
func (g *Gate) Authorize(ctx context.Context, userID, voucher, party string) (interfaces.Decision, error) {
	if g.IsBypass(voucher) {
		g.log.Info("Access granted by voucher", slog.String("user_id", userID), slog.String("party", party))
		return interfaces.Decision{Allow: true, Path: interfaces.PathBypass, Reason: "bypass voucher accepted"}, nil
	}

	tx, err := g.lookup(ctx, userID, g.policy)
	if err != nil {
		return interfaces.Decision{}, err
	}

	if tx == nil || tx.Status != interfaces.StatusApproved {
		g.log.Info("Access denied", slog.String("user_id", userID), slog.String("policy", string(g.policy)))
		return interfaces.Decision{Allow: false, Path: interfaces.PathDenied, Reason: "no approved payment found"}, nil
	}

	g.log.Info("Access granted by payment",
		slog.String("user_id", userID),
		slog.String("transaction_id", tx.TransactionID))
	return interfaces.Decision{Allow: true, Path: interfaces.PathPaid, Reason: "approved payment found", Transaction: tx}, nil
}

// IsBypass reports whether voucher matches the configured bypass secret.
func (g *Gate) IsBypass(voucher string) bool {
	return g.bypass != "" && NormalizeVoucher(voucher) == g.bypass
}

// Status returns the transaction a status check reports on under the given
// policy: the latest approved one, or the latest of any status. A nil
// transaction means the user has none.
func (g *Gate) Status(ctx context.Context, userID string, policy Policy) (*interfaces.Transaction, error) {
	return g.lookup(ctx, userID, policy)
}

func (g *Gate) lookup(ctx context.Context, userID string, policy Policy) (*interfaces.Transaction, error) {
	if g.ledger == nil {
		return nil, interfaces.ErrLedgerUnavailable
	}

	var (
		tx  *interfaces.Transaction
		err error
	)
	if policy == PolicyLatest {
		tx, err = g.ledger.Latest(ctx, userID)
	} else {
		tx, err = g.ledger.LatestApproved(ctx, userID)
	}
	if err != nil {
		g.log.Error("Ledger query failed", slog.String("user_id", userID), slog.String("ledger", g.ledger.Name()), "err", err)
		if errors.Is(err, interfaces.ErrLedgerUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", interfaces.ErrLedgerUnavailable, err)
	}
	return tx, nil
}
