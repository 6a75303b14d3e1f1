package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ruteri/contract-analysis-backend/interfaces"
	"github.com/ruteri/contract-analysis-backend/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLedger implements interfaces.PaymentLedger for testing
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Put(ctx context.Context, tx interfaces.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockLedger) LatestApproved(ctx context.Context, userID string) (*interfaces.Transaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Transaction), args.Error(1)
}

func (m *MockLedger) Latest(ctx context.Context, userID string) (*interfaces.Transaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Transaction), args.Error(1)
}

func (m *MockLedger) Available(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockLedger) Name() string { return "mock" }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthorizeBypassPrecedence(t *testing.T) {
	vouchers := []string{"jfm2!", "JFM2!", "  Jfm2!\t", "\njfm2!  "}

	for _, voucher := range vouchers {
		t.Run("nil ledger/"+voucher, func(t *testing.T) {
			g := NewGate(" JFM2! ", PolicyEverApproved, nil, quietLogger())

			d, err := g.Authorize(context.Background(), "any-user", voucher, "contratante")
			require.NoError(t, err)
			assert.True(t, d.Allow)
			assert.Equal(t, interfaces.PathBypass, d.Path)
		})

		t.Run("ledger never queried/"+voucher, func(t *testing.T) {
			m := new(MockLedger)
			g := NewGate("jfm2!", PolicyLatest, m, quietLogger())

			d, err := g.Authorize(context.Background(), "any-user", voucher, "contratado")
			require.NoError(t, err)
			assert.True(t, d.Allow)
			assert.Equal(t, interfaces.PathBypass, d.Path)
			m.AssertNotCalled(t, "LatestApproved", mock.Anything, mock.Anything)
			m.AssertNotCalled(t, "Latest", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthorizeDeniesOnEmptyLedger(t *testing.T) {
	vouchers := []string{"", "wrong", "jfm2"}

	for _, voucher := range vouchers {
		t.Run(voucher, func(t *testing.T) {
			g := NewGate("jfm2!", PolicyEverApproved, ledger.NewMemoryLedger(quietLogger()), quietLogger())

			d, err := g.Authorize(context.Background(), "user-1", voucher, "contratante")
			require.NoError(t, err)
			assert.False(t, d.Allow)
			assert.Equal(t, interfaces.PathDenied, d.Path)
			assert.Nil(t, d.Transaction)
		})
	}
}

func TestAuthorizeEmptyBypassSecretDisablesBypass(t *testing.T) {
	g := NewGate("   ", PolicyEverApproved, ledger.NewMemoryLedger(quietLogger()), quietLogger())

	d, err := g.Authorize(context.Background(), "user-1", "", "contratante")
	require.NoError(t, err)
	assert.False(t, d.Allow)
}

func TestAuthorizePolicies(t *testing.T) {
	now := time.Now().UTC()

	testCases := []struct {
		name      string
		policy    Policy
		txs       []interfaces.Transaction
		wantAllow bool
	}{
		{
			name:   "ever approved grants despite later rejection",
			policy: PolicyEverApproved,
			txs: []interfaces.Transaction{
				{UserID: "u", TransactionID: "t1", Status: interfaces.StatusApproved, Timestamp: now.Add(-2 * time.Minute)},
				{UserID: "u", TransactionID: "t2", Status: interfaces.StatusRejected, Timestamp: now.Add(-time.Minute)},
			},
			wantAllow: true,
		},
		{
			name:   "latest policy masks earlier approval",
			policy: PolicyLatest,
			txs: []interfaces.Transaction{
				{UserID: "u", TransactionID: "t1", Status: interfaces.StatusApproved, Timestamp: now.Add(-2 * time.Minute)},
				{UserID: "u", TransactionID: "t2", Status: interfaces.StatusRejected, Timestamp: now.Add(-time.Minute)},
			},
			wantAllow: false,
		},
		{
			name:   "latest policy grants when newest is approved",
			policy: PolicyLatest,
			txs: []interfaces.Transaction{
				{UserID: "u", TransactionID: "t1", Status: interfaces.StatusPending, Timestamp: now.Add(-2 * time.Minute)},
				{UserID: "u", TransactionID: "t2", Status: interfaces.StatusApproved, Timestamp: now.Add(-time.Minute)},
			},
			wantAllow: true,
		},
		{
			name:   "pending only",
			policy: PolicyEverApproved,
			txs: []interfaces.Transaction{
				{UserID: "u", TransactionID: "t1", Status: interfaces.StatusPending, Timestamp: now},
			},
			wantAllow: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := ledger.NewMemoryLedger(quietLogger())
			for _, tx := range tc.txs {
				require.NoError(t, l.Put(context.Background(), tx))
			}

			g := NewGate("jfm2!", tc.policy, l, quietLogger())
			d, err := g.Authorize(context.Background(), "u", "", "contratante")
			require.NoError(t, err)
			assert.Equal(t, tc.wantAllow, d.Allow)
			if tc.wantAllow {
				assert.Equal(t, interfaces.PathPaid, d.Path)
				require.NotNil(t, d.Transaction)
				assert.Equal(t, interfaces.StatusApproved, d.Transaction.Status)
			} else {
				assert.Equal(t, interfaces.PathDenied, d.Path)
			}
		})
	}
}

func TestAuthorizeLedgerUnavailable(t *testing.T) {
	t.Run("nil ledger", func(t *testing.T) {
		g := NewGate("jfm2!", PolicyEverApproved, nil, quietLogger())

		_, err := g.Authorize(context.Background(), "u", "", "contratante")
		assert.ErrorIs(t, err, interfaces.ErrLedgerUnavailable)
	})

	t.Run("query failure", func(t *testing.T) {
		m := new(MockLedger)
		m.On("LatestApproved", mock.Anything, "u").Return(nil, errors.New("connection refused"))

		g := NewGate("jfm2!", PolicyEverApproved, m, quietLogger())
		_, err := g.Authorize(context.Background(), "u", "wrong", "contratante")
		assert.ErrorIs(t, err, interfaces.ErrLedgerUnavailable)
		m.AssertExpectations(t)
	})
}

func TestStatus(t *testing.T) {
	m := new(MockLedger)
	approved := &interfaces.Transaction{UserID: "u", TransactionID: "t1", Status: interfaces.StatusApproved}
	pending := &interfaces.Transaction{UserID: "u", TransactionID: "t2", Status: interfaces.StatusPending}
	m.On("LatestApproved", mock.Anything, "u").Return(approved, nil)
	m.On("Latest", mock.Anything, "u").Return(pending, nil)

	g := NewGate("", PolicyEverApproved, m, quietLogger())

	got, err := g.Status(context.Background(), "u", PolicyEverApproved)
	require.NoError(t, err)
	assert.Equal(t, "t1", got.TransactionID)

	got, err = g.Status(context.Background(), "u", PolicyLatest)
	require.NoError(t, err)
	assert.Equal(t, "t2", got.TransactionID)

	m.AssertExpectations(t)
}

func TestParsePolicy(t *testing.T) {
	testCases := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "", want: PolicyEverApproved},
		{in: "ever_approved", want: PolicyEverApproved},
		{in: " LATEST ", want: PolicyLatest},
		{in: "sometimes", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePolicy(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
