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

// CreateWallet creates a new wallet record in DynamoDB.
func (s *Store) CreateWallet(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error) {
	// Marshal the wallet object for the Put operation.
	walletAV, err := attributevalue.MarshalMap(wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet: %w", err)
	}

	// Construct the PutItem input.
	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.WalletsTableName),
		Item:                walletAV,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"), // One wallet per user.
	}

	// Execute the PutItem operation.
	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, storage.ErrWalletExists
		}
		return nil, fmt.Errorf("failed to create wallet in DynamoDB: %w", err)
	}

	return wallet, nil
}

// GetWallet retrieves a user's wallet from DynamoDB by their user ID.
func (s *Store) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet user ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.WalletsTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, storage.ErrWalletNotFound
	}

	var wallet models.Wallet
	if err := attributevalue.UnmarshalMap(result.Item, &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	return &wallet, nil
}

// UpdateWallet applies a name/currency/status patch to the user's wallet
// with a version check, so a concurrent balance mutation cannot be lost.
func (s *Store) UpdateWallet(ctx context.Context, userID string, patch storage.WalletPatch) (*models.Wallet, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	setExpr := "SET version = version + :inc, updated_at = :now"
	values := map[string]types.AttributeValue{
		":inc":     &types.AttributeValueMemberN{Value: "1"},
		":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", wallet.Version)},
	}
	names := map[string]string{}

	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}
	values[":now"] = nowAV

	if patch.Name != nil {
		setExpr += ", #name = :name"
		names["#name"] = "name"
		values[":name"] = &types.AttributeValueMemberS{Value: *patch.Name}
		wallet.Name = *patch.Name
	}
	if patch.Currency != nil {
		setExpr += ", currency = :currency"
		values[":currency"] = &types.AttributeValueMemberS{Value: *patch.Currency}
		wallet.Currency = *patch.Currency
	}
	if patch.Status != nil {
		setExpr += ", #status = :status"
		names["#status"] = "status"
		values[":status"] = &types.AttributeValueMemberS{Value: string(*patch.Status)}
		wallet.Status = *patch.Status
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.WalletsTableName),
		Key:                       map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: userID}},
		UpdateExpression:          aws.String(setExpr),
		ConditionExpression:       aws.String("attribute_exists(user_id) AND version = :version"),
		ExpressionAttributeValues: values,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("failed to update wallet in DynamoDB: %w", err)
	}

	wallet.Version++
	wallet.UpdatedAt = now
	return wallet, nil
}

// DeleteWallet removes a wallet that has no transactions referencing it.
// Deletion is blocked, not cascaded: silently dropping ledger history in a
// cascade would be unrecoverable data loss.
//
// The emptiness probe and the delete are separate calls; DynamoDB cannot
// condition a delete on another table's contents, so a transaction that
// commits between them leaves an orphaned ledger row behind the removed
// wallet. The row stays readable by id; no balance is lost with it.
func (s *Store) DeleteWallet(ctx context.Context, userID string) error {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return err
	}

	// Probe the transactions GSI for a single referencing row.
	probe := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		IndexName:              aws.String(walletTransactionsGSI),
		KeyConditionExpression: aws.String("wallet_id = :wallet_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":wallet_id": &types.AttributeValueMemberS{Value: wallet.Id},
		},
		Limit: aws.Int32(1),
	}
	result, err := s.Client.Query(ctx, probe)
	if err != nil {
		return fmt.Errorf("failed to check wallet transactions: %w", err)
	}
	if len(result.Items) > 0 {
		return storage.ErrWalletNotEmpty
	}

	input := &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.WalletsTableName),
		Key:                 map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: userID}},
		ConditionExpression: aws.String("attribute_exists(user_id)"),
	}

	_, err = s.Client.DeleteItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrWalletNotFound
		}
		return fmt.Errorf("failed to delete wallet from DynamoDB: %w", err)
	}

	return nil
}

// ListWallets retrieves all wallets, following scan pagination so the
// reconciliation job audits every wallet regardless of table size.
func (s *Store) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	var wallets []models.Wallet
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:         aws.String(s.WalletsTableName),
			ExclusiveStartKey: startKey,
		}

		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallets table: %w", err)
		}

		var page []models.Wallet
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal wallets: %w", err)
		}
		wallets = append(wallets, page...)

		if result.LastEvaluatedKey == nil {
			return wallets, nil
		}
		startKey = result.LastEvaluatedKey
	}
}
