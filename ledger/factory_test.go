package ledger

import (
	"path/filepath"
	"testing"

	"github.com/ruteri/contract-analysis-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerFactory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	testCases := []struct {
		name     string
		uri      string
		wantNil  bool
		wantName string
		wantErr  error
	}{
		{name: "empty uri yields no ledger", uri: "", wantNil: true},
		{name: "memory", uri: "memory://", wantName: "memory"},
		{name: "sqlite absolute path", uri: "sqlite://" + dbPath, wantName: "sqlite-" + dbPath},
		{name: "dynamodb", uri: "dynamodb://payments?region=sa-east-1", wantName: "dynamodb-payments"},
		{name: "dynamodb without table", uri: "dynamodb://?region=sa-east-1", wantErr: interfaces.ErrInvalidLocationURI},
		{name: "unsupported scheme", uri: "redis://localhost:6379", wantErr: interfaces.ErrInvalidLocationURI},
		{name: "malformed uri", uri: "::not a uri", wantErr: interfaces.ErrInvalidLocationURI},
	}

	factory := NewLedgerFactory(quietLogger())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := factory.LedgerFor(tc.uri)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.wantNil {
				assert.Nil(t, l)
				return
			}
			require.NotNil(t, l)
			assert.Equal(t, tc.wantName, l.Name())
		})
	}
}
