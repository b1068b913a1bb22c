package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/wallet-ledger/pkg/events"
	"github.com/chris/wallet-ledger/pkg/models"
	"github.com/chris/wallet-ledger/pkg/storage"
	dydbstore "github.com/chris/wallet-ledger/pkg/storage/dynamodb"
	"github.com/joho/godotenv"
)

var store storage.AuditStore
var publisher events.Publisher

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := awsdynamodb.NewFromConfig(cfg)

	transactionsTable := os.Getenv("DYNAMODB_TRANSACTIONS_TABLE_NAME")
	walletsTable := os.Getenv("DYNAMODB_WALLETS_TABLE_NAME")
	store = dydbstore.New(dbClient, transactionsTable, walletsTable)

	if queueURL := os.Getenv("SQS_AUDIT_QUEUE_URL"); queueURL != "" {
		publisher = events.NewSQSPublisher(sqs.NewFromConfig(cfg), queueURL)
	}
}

// HandleRequest is triggered by an EventBridge Schedule. It recomputes every
// wallet's balance from its completed transactions and reports drift: the
// stored balance must equal the opening balance plus the sum of completed
// signed amounts.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting balance reconciliation...")

	wallets, err := store.ListWallets(ctx)
	if err != nil {
		log.Printf("ERROR: failed to list wallets: %v", err)
		return err
	}

	drifted := 0
	for _, wallet := range wallets {
		txs, err := store.ListWalletTransactions(ctx, wallet.Id)
		if err != nil {
			log.Printf("ERROR: failed to list transactions for wallet %s: %v", wallet.Id, err)
			// Continue to the next wallet, don't let one failure stop the whole batch.
			continue
		}

		expected := wallet.OpeningBalance
		for i := range txs {
			if txs[i].Status != models.COMPLETED {
				continue
			}
			expected = expected.Add(txs[i].SignedAmount())
		}

		if expected.Equal(wallet.Balance) {
			continue
		}

		drifted++
		log.Printf("DRIFT: wallet %s balance %s, expected %s", wallet.Id, wallet.Balance.String(), expected.String())

		if publisher != nil {
			event := &events.Event{
				Type:     events.WalletDrift,
				UserId:   wallet.UserId,
				WalletId: wallet.Id,
				Detail: map[string]string{
					"balance":  wallet.Balance.String(),
					"expected": expected.String(),
				},
			}
			if err := publisher.Publish(ctx, event); err != nil {
				log.Printf("ERROR: failed to publish drift event for wallet %s: %v", wallet.Id, err)
			}
		}
	}

	log.Printf("Reconciliation finished: %d wallets checked, %d drifted", len(wallets), drifted)
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
