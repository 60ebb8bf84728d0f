package ports

import (
	"context"

	"github.com/rabbitmq/amqp091-go"

	"localdrop/internal/domain/media"
	"localdrop/internal/infrastructure/mq"
)

type RabbitMQ interface {
	Connect(ctx context.Context, dsn string) error
	Init() error
	PublisherWorker(ctx context.Context)
	RelayWorker(ctx context.Context, bus media.EventBus)
	GetInputChan() chan mq.Event
	GetConn() *amqp091.Connection
}
