package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/wallet-ledger/pkg/models"
	"github.com/chris/wallet-ledger/pkg/storage"
)

const walletTransactionsGSI = "wallet_id-occurred_at-index"

// defaultPageSize caps a listing when the caller gives no limit.
const defaultPageSize = int32(20)

// ListTransactions returns the caller's transactions newest-first, narrowed
// and paged by the filter.
//
// DynamoDB has no server-side offset, so skip is applied here: the query
// walks the wallet GSI newest-first until skip+limit matching rows are
// collected, then the first skip rows are discarded. Subsequent calls with a
// larger skip restart the walk; no cursor state is kept between calls.
func (s *Store) ListTransactions(ctx context.Context, userID string, filter storage.TransactionFilter) ([]models.Transaction, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrWalletNotFound) {
			return []models.Transaction{}, nil
		}
		return nil, err
	}

	// A wallet filter that names anything but the caller's own wallet can
	// never match.
	if filter.WalletID != "" && filter.WalletID != wallet.Id {
		return []models.Transaction{}, nil
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}
	wanted := int(skip + limit)

	keyCondition := "wallet_id = :wallet_id"
	values := map[string]types.AttributeValue{
		":wallet_id": &types.AttributeValueMemberS{Value: wallet.Id},
	}
	names := map[string]string{}

	// Time bounds ride the GSI sort key; occurred_at is stored RFC 3339 so
	// string comparison matches time order.
	switch {
	case filter.From != nil && filter.To != nil:
		keyCondition += " AND occurred_at BETWEEN :from AND :to"
		values[":from"] = timeAV(*filter.From)
		values[":to"] = timeAV(*filter.To)
	case filter.From != nil:
		keyCondition += " AND occurred_at >= :from"
		values[":from"] = timeAV(*filter.From)
	case filter.To != nil:
		keyCondition += " AND occurred_at <= :to"
		values[":to"] = timeAV(*filter.To)
	}

	var filterExprs []string
	if filter.Type != nil {
		filterExprs = append(filterExprs, "#type = :type")
		names["#type"] = "type"
		values[":type"] = &types.AttributeValueMemberS{Value: string(*filter.Type)}
	}
	if filter.Status != nil {
		filterExprs = append(filterExprs, "#status = :status")
		names["#status"] = "status"
		values[":status"] = &types.AttributeValueMemberS{Value: string(*filter.Status)}
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.TransactionsTableName),
		IndexName:                 aws.String(walletTransactionsGSI),
		KeyConditionExpression:    aws.String(keyCondition),
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false), // Newest first.
	}
	if len(filterExprs) > 0 {
		input.FilterExpression = aws.String(strings.Join(filterExprs, " AND "))
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	// Walk pages until enough matching rows are collected.
	var collected []models.Transaction
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query transactions: %w", err)
		}

		var page []models.Transaction
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
		}
		collected = append(collected, page...)

		if len(collected) >= wanted || result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	if int(skip) >= len(collected) {
		return []models.Transaction{}, nil
	}
	collected = collected[skip:]
	if len(collected) > int(limit) {
		collected = collected[:limit]
	}
	return collected, nil
}

// ListWalletTransactions retrieves every transaction recorded against a
// wallet. Used by the reconciliation job only.
func (s *Store) ListWalletTransactions(ctx context.Context, walletID string) ([]models.Transaction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		IndexName:              aws.String(walletTransactionsGSI),
		KeyConditionExpression: aws.String("wallet_id = :wallet_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":wallet_id": &types.AttributeValueMemberS{Value: walletID},
		},
	}

	var transactions []models.Transaction
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query wallet transactions: %w", err)
		}

		var page []models.Transaction
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal wallet transactions: %w", err)
		}
		transactions = append(transactions, page...)

		if result.LastEvaluatedKey == nil {
			return transactions, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}
