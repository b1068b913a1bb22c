package dynamodb

import (
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/wallet-ledger/pkg/storage"
)

// Store implements the Storage interface using AWS DynamoDB.
//
// Wallets are keyed by user_id (one wallet per user). Transactions are keyed
// by id with a wallet_id/occurred_at GSI for newest-first listing. Every
// balance-touching mutation is a single TransactWriteItems guarded by a
// version condition on the wallet row, so concurrent read-modify-write of
// the balance can never interleave.
type Store struct {
	Client                DynamoDBAPI
	TransactionsTableName string
	WalletsTableName      string
}

// New creates a new Store.
func New(client DynamoDBAPI, transactionsTable, walletsTable string) *Store {
	return &Store{
		Client:                client,
		TransactionsTableName: transactionsTable,
		WalletsTableName:      walletsTable,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// conflictFromTransactError maps a TransactWriteItems failure onto the
// storage error taxonomy. A conditional-check cancellation means an
// optimistic-lock race (or vanished row); everything else is passed through.
func conflictFromTransactError(err error) error {
	var txc *types.TransactionCanceledException
	if errors.As(err, &txc) {
		for _, reason := range txc.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return storage.ErrConflict
			}
		}
	}
	return nil
}

// occurredAtFormat is a fixed-width UTC timestamp. RFC 3339 with variable
// fractional seconds does not string-sort in time order (a whole-second
// value sorts after a sub-second one in the same second), and occurred_at
// is the GSI sort key, so both the stored value and every key-condition
// bound use this format.
const occurredAtFormat = "2006-01-02T15:04:05.000000000Z"

// timeAV renders a timestamp as the sort-key representation.
func timeAV(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: t.UTC().Format(occurredAtFormat)}
}
