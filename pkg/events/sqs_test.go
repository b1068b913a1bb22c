package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/wallet-ledger/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestPublish(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		amount, err := models.MoneyFromString("1200.50")
		require.NoError(t, err)

		client := &fakeSQS{}
		publisher := NewSQSPublisher(client, "https://sqs.example/audit")

		err = publisher.Publish(context.Background(), &Event{
			Type:          TransactionCreated,
			UserId:        "test-user",
			WalletId:      "0b663501-33dc-4b36-a4a8-33ec73432b4f",
			TransactionId: "7f3c7658-30a1-4a4c-b5bd-fb1c0cc33e23",
			Amount:        &amount,
		})

		require.NoError(t, err)
		require.NotNil(t, client.input)
		assert.Equal(t, "https://sqs.example/audit", *client.input.QueueUrl)

		var got Event
		require.NoError(t, json.Unmarshal([]byte(*client.input.MessageBody), &got))
		assert.Equal(t, TransactionCreated, got.Type)
		assert.Equal(t, "test-user", got.UserId)
		require.NotNil(t, got.Amount)
		assert.Equal(t, "1200.5", got.Amount.String())
		assert.False(t, got.OccurredAt.IsZero())
	})

	t.Run("Send Failure", func(t *testing.T) {
		client := &fakeSQS{err: errors.New("queue unreachable")}
		publisher := NewSQSPublisher(client, "https://sqs.example/audit")

		err := publisher.Publish(context.Background(), &Event{Type: WalletDeleted, UserId: "test-user"})

		assert.Error(t, err)
	})
}
