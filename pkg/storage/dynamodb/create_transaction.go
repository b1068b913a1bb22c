package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/wallet-ledger/pkg/models"
	"github.com/chris/wallet-ledger/pkg/storage"
	"github.com/google/uuid"
)

// CreateTransaction atomically applies the signed amount to the owning
// wallet and inserts the transaction record as completed.
//
// The new balance is computed here with exact decimal arithmetic and written
// under a version condition on the wallet row; amounts are stored as exact
// number strings, so the update expression cannot add them server-side.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Wallet, *models.Transaction, error) {
	// 1. The caller's sole wallet is the target; an explicit wallet id must
	// match it. A foreign wallet id reads as not found.
	wallet, err := s.GetWallet(ctx, tx.UserId)
	if err != nil {
		return nil, nil, err
	}
	if tx.WalletId != "" && tx.WalletId != wallet.Id {
		return nil, nil, storage.ErrWalletNotFound
	}

	if wallet.Status != models.WalletActive {
		return nil, nil, storage.ErrWalletNotActive
	}

	// Currency is a label, not a conversion system: it must match exactly.
	if tx.Currency == "" {
		tx.Currency = wallet.Currency
	} else if tx.Currency != wallet.Currency {
		return nil, nil, storage.ErrCurrencyMismatch
	}

	// 2. Complete the transaction object with server-side details.
	now := time.Now()
	tx.Id = uuid.NewString()
	tx.WalletId = wallet.Id
	tx.Status = models.COMPLETED
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = now
	}
	tx.CreatedAt = now
	tx.UpdatedAt = now
	tx.Hash = models.ComputeHash(tx.Id, tx.Type, tx.Amount, tx.OccurredAt)

	txAV, err := attributevalue.MarshalMap(tx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}
	// The GSI sort key must be fixed-width or same-second rows misorder.
	txAV["occurred_at"] = timeAV(tx.OccurredAt)

	newBalance := wallet.Balance.Add(tx.SignedAmount())
	newBalanceAV, err := attributevalue.Marshal(newBalance)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal new balance: %w", err)
	}
	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	// 3. Construct the TransactWriteItems input.
	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 1: Apply the balance delta to the wallet.
				Update: &types.Update{
					TableName: aws.String(s.WalletsTableName),
					Key: map[string]types.AttributeValue{
						"user_id": &types.AttributeValueMemberS{Value: tx.UserId},
					},
					UpdateExpression:    aws.String("SET balance = :new_balance, version = version + :inc, updated_at = :now"),
					ConditionExpression: aws.String("version = :version AND #status = :active"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":new_balance": newBalanceAV,
						":version":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", wallet.Version)},
						":inc":         &types.AttributeValueMemberN{Value: "1"},
						":now":         nowAV,
						":active":      &types.AttributeValueMemberS{Value: string(models.WalletActive)},
					},
				},
			},
			{
				// Operation 2: Create the new transaction record.
				Put: &types.Put{
					TableName:           aws.String(s.TransactionsTableName),
					Item:                txAV,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
		},
	}

	// 4. Execute the transaction. On failure nothing was written.
	_, err = s.Client.TransactWriteItems(ctx, input)
	if err != nil {
		if conflict := conflictFromTransactError(err); conflict != nil {
			return nil, nil, conflict
		}
		return nil, nil, fmt.Errorf("failed to execute transaction: %w", err)
	}

	wallet.Balance = newBalance
	wallet.Version++
	wallet.UpdatedAt = now
	return wallet, tx, nil
}
