package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/wallet-ledger/pkg/models"
	"github.com/chris/wallet-ledger/pkg/storage"
)

// DeleteTransaction removes a transaction, reversing its balance effect on
// the owning wallet in the same atomic write. It returns the updated wallet
// so callers can refresh the displayed balance without a second read.
func (s *Store) DeleteTransaction(ctx context.Context, userID, txID string) (*models.Wallet, error) {
	tx, err := s.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Only a completed transaction has touched the balance.
	if tx.Status != models.COMPLETED {
		input := &dynamodb.DeleteItemInput{
			TableName:           aws.String(s.TransactionsTableName),
			Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: txID}},
			ConditionExpression: aws.String("attribute_exists(id) AND user_id = :user_id"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":user_id": &types.AttributeValueMemberS{Value: userID},
			},
		}
		if _, err := s.Client.DeleteItem(ctx, input); err != nil {
			var condCheckFailed *types.ConditionalCheckFailedException
			if errors.As(err, &condCheckFailed) {
				return nil, storage.ErrTransactionNotFound
			}
			return nil, fmt.Errorf("failed to delete transaction from DynamoDB: %w", err)
		}
		return wallet, nil
	}

	now := time.Now()
	newBalance := wallet.Balance.Sub(tx.SignedAmount())
	newBalanceAV, err := attributevalue.Marshal(newBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal new balance: %w", err)
	}
	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 1: Reverse the balance effect on the wallet.
				Update: &types.Update{
					TableName:           aws.String(s.WalletsTableName),
					Key:                 map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: userID}},
					UpdateExpression:    aws.String("SET balance = :new_balance, version = version + :inc, updated_at = :now"),
					ConditionExpression: aws.String("version = :version"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":new_balance": newBalanceAV,
						":version":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", wallet.Version)},
						":inc":         &types.AttributeValueMemberN{Value: "1"},
						":now":         nowAV,
					},
				},
			},
			{
				// Operation 2: Remove the transaction record. The status
				// condition guards against a racing status update.
				Delete: &types.Delete{
					TableName:           aws.String(s.TransactionsTableName),
					Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: txID}},
					ConditionExpression: aws.String("attribute_exists(id) AND user_id = :user_id AND #status = :completed"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":user_id":   &types.AttributeValueMemberS{Value: userID},
						":completed": &types.AttributeValueMemberS{Value: string(models.COMPLETED)},
					},
				},
			},
		},
	}

	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		if conflict := conflictFromTransactError(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to execute reversal transaction: %w", err)
	}

	wallet.Balance = newBalance
	wallet.Version++
	wallet.UpdatedAt = now
	return wallet, nil
}
