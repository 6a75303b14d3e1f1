package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/ruteri/contract-analysis-backend/interfaces"
)

const (
	userKeyPrefix = "USER#"
	txnKeyPrefix  = "TXN#"
)

// DynamoDBLedger stores transactions in a single DynamoDB table keyed by
// PK=USER#<user_id> and SK=TXN#<transaction_id>.
type DynamoDBLedger struct {
	db    dynamodbiface.DynamoDBAPI
	table string
	log   *slog.Logger
}

// NewDynamoDBLedger creates a ledger on table. Credentials fall back to the
// default AWS chain when accessKey is empty.
func NewDynamoDBLedger(table, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*DynamoDBLedger, error) {
	cfg := aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewDynamoDBLedgerWithClient(dynamodb.New(sess), table, log), nil
}

// NewDynamoDBLedgerWithClient wraps an existing DynamoDB client.
func NewDynamoDBLedgerWithClient(db dynamodbiface.DynamoDBAPI, table string, log *slog.Logger) *DynamoDBLedger {
	return &DynamoDBLedger{db: db, table: table, log: log}
}

// Put merges tx into its item with an UpdateItem that only sets non-empty fields.
func (l *DynamoDBLedger) Put(ctx context.Context, tx interfaces.Transaction) error {
	if err := validateKey(tx); err != nil {
		return err
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	fields, err := dynamodbattribute.MarshalMap(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	// Sorted for a stable expression, which keeps request logs comparable.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	exprNames := make(map[string]*string, len(names))
	exprValues := make(map[string]*dynamodb.AttributeValue, len(names))
	for i, name := range names {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		sets = append(sets, nameKey+" = "+valueKey)
		exprNames[nameKey] = aws.String(name)
		exprValues[valueKey] = fields[name]
	}

	_, err = l.db.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(l.table),
		Key:                       itemKey(tx.UserID, tx.TransactionID),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrLedgerUnavailable, err)
	}
	return nil
}

// LatestApproved returns the newest approved transaction of the user.
func (l *DynamoDBLedger) LatestApproved(ctx context.Context, userID string) (*interfaces.Transaction, error) {
	txs, err := l.query(ctx, userID)
	if err != nil {
		return nil, err
	}
	return latest(txs, isApproved), nil
}

// Latest returns the newest transaction of the user regardless of status.
func (l *DynamoDBLedger) Latest(ctx context.Context, userID string) (*interfaces.Transaction, error) {
	txs, err := l.query(ctx, userID)
	if err != nil {
		return nil, err
	}
	return latest(txs, nil), nil
}

func (l *DynamoDBLedger) query(ctx context.Context, userID string) ([]interfaces.Transaction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(l.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pk": {S: aws.String(userKeyPrefix + userID)},
			":sk": {S: aws.String(txnKeyPrefix)},
		},
	}

	var (
		txs     []interfaces.Transaction
		pageErr error
	)
	err := l.db.QueryPagesWithContext(ctx, input, func(page *dynamodb.QueryOutput, lastPage bool) bool {
		var items []interfaces.Transaction
		if err := dynamodbattribute.UnmarshalListOfMaps(page.Items, &items); err != nil {
			pageErr = err
			return false
		}
		txs = append(txs, items...)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrLedgerUnavailable, err)
	}
	if pageErr != nil {
		return nil, fmt.Errorf("failed to unmarshal transactions: %w", pageErr)
	}
	return txs, nil
}

// Available checks that the table can be described.
func (l *DynamoDBLedger) Available(ctx context.Context) bool {
	_, err := l.db.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(l.table)})
	if err != nil {
		l.log.Warn("DynamoDB ledger unavailable", slog.String("table", l.table), "err", err)
		return false
	}
	return true
}

// Name returns the backend identifier.
func (l *DynamoDBLedger) Name() string { return "dynamodb-" + l.table }

func itemKey(userID, transactionID string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"PK": {S: aws.String(userKeyPrefix + userID)},
		"SK": {S: aws.String(txnKeyPrefix + transactionID)},
	}
}
