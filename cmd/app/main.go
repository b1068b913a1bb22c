package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/wallet-ledger/pkg/advisory"
	"github.com/chris/wallet-ledger/pkg/events"
	"github.com/chris/wallet-ledger/pkg/handlers"
	"github.com/chris/wallet-ledger/pkg/handlers/transactions"
	"github.com/chris/wallet-ledger/pkg/handlers/wallets"
	"github.com/chris/wallet-ledger/pkg/middleware"
	dydbstore "github.com/chris/wallet-ledger/pkg/storage/dynamodb"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// AWS Session
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := awsdynamodb.NewFromConfig(cfg)
	transactionsTable := os.Getenv("DYNAMODB_TRANSACTIONS_TABLE_NAME")
	walletsTable := os.Getenv("DYNAMODB_WALLETS_TABLE_NAME")
	if transactionsTable == "" || walletsTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	// Audit event publisher; optional.
	var publisher events.Publisher
	if queueURL := os.Getenv("SQS_AUDIT_QUEUE_URL"); queueURL != "" {
		publisher = events.NewSQSPublisher(sqs.NewFromConfig(cfg), queueURL)
	} else {
		logger.Warn("SQS_AUDIT_QUEUE_URL not set, event publishing disabled")
	}

	// Fraud/policy advisory; optional and never on the critical path.
	var advisor advisory.Advisor
	if advisoryURL := os.Getenv("ADVISORY_SERVICE_URL"); advisoryURL != "" {
		timeout := advisory.DefaultTimeout
		if raw := os.Getenv("ADVISORY_TIMEOUT"); raw != "" {
			if parsed, err := time.ParseDuration(raw); err == nil {
				timeout = parsed
			}
		}
		advisor = advisory.NewHTTPAdvisor(advisoryURL, timeout)
	} else {
		logger.Warn("ADVISORY_SERVICE_URL not set, advisory evaluation disabled")
	}

	// Create our storage implementation
	store := dydbstore.New(dbClient, transactionsTable, walletsTable)

	// Create our handlers and router
	auth := middleware.NewAuth([]byte(jwtSecret))
	walletHandler := wallets.NewHandler(store, publisher, logger)
	transactionHandler := transactions.NewHandler(store, advisor, publisher, logger)
	router := handlers.NewRouter(logger, auth, walletHandler, transactionHandler)

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080" // Default port if not specified
	}

	log.Printf("Starting server on port %s", port)

	// Start the server
	err = http.ListenAndServe(":"+port, router)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
