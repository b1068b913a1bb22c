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

// UpdateTransaction applies a patch to the caller's transaction.
//
// Description, category and metadata changes never touch the wallet. A
// status transition leaving completed reverses the balance effect, and one
// returning to completed re-applies it, in the same atomic write as the
// status change.
func (s *Store) UpdateTransaction(ctx context.Context, userID, txID string, patch storage.TransactionPatch) (*models.Transaction, error) {
	tx, err := s.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	setExpr := "SET updated_at = :now"
	values := map[string]types.AttributeValue{":now": nowAV}
	names := map[string]string{}

	if patch.Description != nil {
		setExpr += ", description = :description"
		values[":description"] = &types.AttributeValueMemberS{Value: *patch.Description}
		tx.Description = *patch.Description
	}
	if patch.Category != nil {
		setExpr += ", category = :category"
		values[":category"] = &types.AttributeValueMemberS{Value: *patch.Category}
		tx.Category = *patch.Category
	}
	if patch.Metadata != nil {
		metadataAV, err := attributevalue.Marshal(patch.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		setExpr += ", metadata = :metadata"
		values[":metadata"] = metadataAV
		tx.Metadata = patch.Metadata
	}

	oldStatus := tx.Status
	newStatus := oldStatus
	if patch.Status != nil {
		newStatus = *patch.Status
		setExpr += ", #status = :new_status"
		names["#status"] = "status"
		values[":new_status"] = &types.AttributeValueMemberS{Value: string(newStatus)}
	}

	// Balance is affected only when the transition crosses the completed
	// boundary in either direction.
	wasApplied := oldStatus == models.COMPLETED
	willApply := newStatus == models.COMPLETED

	if wasApplied == willApply {
		input := &dynamodb.UpdateItemInput{
			TableName:                 aws.String(s.TransactionsTableName),
			Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: txID}},
			UpdateExpression:          aws.String(setExpr),
			ConditionExpression:       aws.String("attribute_exists(id) AND user_id = :user_id"),
			ExpressionAttributeValues: withUserID(values, userID),
		}
		if len(names) > 0 {
			input.ExpressionAttributeNames = names
		}

		if _, err := s.Client.UpdateItem(ctx, input); err != nil {
			var condCheckFailed *types.ConditionalCheckFailedException
			if errors.As(err, &condCheckFailed) {
				return nil, storage.ErrTransactionNotFound
			}
			return nil, fmt.Errorf("failed to update transaction in DynamoDB: %w", err)
		}

		tx.Status = newStatus
		tx.UpdatedAt = now
		return tx, nil
	}

	// The transition reverses or re-applies the balance effect; wallet and
	// transaction must move together.
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	delta := tx.SignedAmount()
	if wasApplied {
		delta = delta.Neg()
	}
	newBalance := wallet.Balance.Add(delta)
	newBalanceAV, err := attributevalue.Marshal(newBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal new balance: %w", err)
	}

	txValues := withUserID(values, userID)
	txValues[":old_status"] = &types.AttributeValueMemberS{Value: string(oldStatus)}
	names["#status"] = "status"

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
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
				Update: &types.Update{
					TableName:                 aws.String(s.TransactionsTableName),
					Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: txID}},
					UpdateExpression:          aws.String(setExpr),
					ConditionExpression:       aws.String("attribute_exists(id) AND user_id = :user_id AND #status = :old_status"),
					ExpressionAttributeNames:  names,
					ExpressionAttributeValues: txValues,
				},
			},
		},
	}

	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		if conflict := conflictFromTransactError(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to execute status transition: %w", err)
	}

	tx.Status = newStatus
	tx.UpdatedAt = now
	return tx, nil
}

// withUserID copies the value map and adds the :user_id binding, keeping the
// shared map usable for both write shapes.
func withUserID(values map[string]types.AttributeValue, userID string) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(values)+1)
	for k, v := range values {
		out[k] = v
	}
	out[":user_id"] = &types.AttributeValueMemberS{Value: userID}
	return out
}
