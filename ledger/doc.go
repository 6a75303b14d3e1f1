// Package ledger implements the per-user payment ledger on several backends.
//
// Every backend stores transactions keyed by (user_id, transaction_id) with
// set-with-merge writes and answers "latest approved" and "latest" queries by
// server-assigned timestamp:
//
//   - MemoryLedger: map guarded by an RWMutex, for development and tests
//   - SQLiteLedger: single-file SQLite database with an upsert per write
//   - DynamoDBLedger: one item per transaction under PK=USER#id, SK=TXN#id
//
// LedgerFactory selects the backend from a location URI.
package ledger
