package worker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"studymate/internal/model"
)

type MessageStore interface {
	Create(ctx context.Context, message *model.Message) error
}

// MessagePersistWorker writes chat messages queued by the chat service.
type MessagePersistWorker struct {
	consumer
}

func NewMessagePersistWorker(conn *amqp.Connection, store MessageStore, queueName string) *MessagePersistWorker {
	return &MessagePersistWorker{consumer{
		name:      "message persist worker",
		conn:      conn,
		queueName: queueName,
		handle:    persistMessageHandler(store),
	}}
}

func persistMessageHandler(store MessageStore) handlerFunc {
	return func(ctx context.Context, body []byte) error {
		var msg model.Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("decode message failed: %w", err)
		}
		if err := store.Create(ctx, &msg); err != nil {
			return fmt.Errorf("persist message failed: %w", err)
		}
		return nil
	}
}
