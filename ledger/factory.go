package ledger

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/contract-analysis-backend/interfaces"
)

// LedgerFactory creates payment ledgers from URI strings.
type LedgerFactory struct {
	log *slog.Logger
}

// NewLedgerFactory creates a factory that logs through logger.
func NewLedgerFactory(logger *slog.Logger) *LedgerFactory {
	return &LedgerFactory{log: logger}
}

// LedgerFor creates a ledger from a location URI.
//
// Supported schemes:
//   - memory:// - process-local ledger, lost on restart
//   - sqlite:///absolute/path.db or sqlite://./relative/path.db
//   - dynamodb://table?region=us-east-1&endpoint=http://localhost:8000
//
// An empty URI yields a nil ledger and no error: the service then runs with
// no ledger and every non-bypass request is reported as unavailable.
func (lf *LedgerFactory) LedgerFor(locationURI string) (interfaces.PaymentLedger, error) {
	if locationURI == "" {
		return nil, nil
	}

	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "memory":
		lf.log.Debug("Creating memory ledger")
		return NewMemoryLedger(lf.log), nil
	case "sqlite":
		return lf.createSQLiteLedger(u)
	case "dynamodb":
		return lf.createDynamoDBLedger(u)
	default:
		return nil, fmt.Errorf("%w: unsupported ledger scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

func (lf *LedgerFactory) createSQLiteLedger(u *url.URL) (interfaces.PaymentLedger, error) {
	lf.log.Debug("Creating sqlite ledger", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in sqlite URI", interfaces.ErrInvalidLocationURI)
	}

	return NewSQLiteLedger(path, lf.log)
}

// URI format: dynamodb://[ACCESS_KEY:SECRET_KEY@]table?region=us-east-1&endpoint=...
func (lf *LedgerFactory) createDynamoDBLedger(u *url.URL) (interfaces.PaymentLedger, error) {
	lf.log.Debug("Creating DynamoDB ledger", slog.String("table", u.Host))

	table := u.Host
	if table == "" {
		return nil, fmt.Errorf("%w: missing table name in dynamodb URI", interfaces.ErrInvalidLocationURI)
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewDynamoDBLedger(table, region, query.Get("endpoint"), accessKey, secretKey, lf.log)
}
