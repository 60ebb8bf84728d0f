package mq

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"localdrop/config"
	"localdrop/internal/domain/media"
	"localdrop/internal/infrastructure/eventbus"
)

const (
	bufferSize = 128

	ActionFileAdded     = "FileAdded"
	RoutingKeyFileAdded = "file.added"
)

type (
	InputCh  = chan Event
	RabbitMQ struct {
		cfg   config.MQ
		log   *zap.Logger
		conn  *amqp091.Connection
		pubCh *amqp091.Channel
		in    InputCh
	}
	Event struct {
		Id          uuid.UUID `json:"event_id"`
		TS          time.Time `json:"time_stamp"`
		Action      string    `json:"event_action"`
		Identifier  string    `json:"identifier"`
		DisplayName string    `json:"name"`
		Kind        string    `json:"kind"`
		Seq         uint64    `json:"seq"`
	}
)

func New(cfg config.MQ, logger *zap.Logger) *RabbitMQ {
	return &RabbitMQ{
		cfg: cfg,
		log: logger,
		in:  make(chan Event, bufferSize),
	}
}

// FromUploadEvent converts a bus event into its broker representation.
func FromUploadEvent(ev media.UploadEvent) Event {
	return Event{
		Id:          ev.ID,
		TS:          time.UnixMilli(ev.ObservedAtMillis),
		Action:      ActionFileAdded,
		Identifier:  ev.Identifier,
		DisplayName: ev.DisplayName,
		Kind:        ev.Kind.String(),
		Seq:         ev.Seq,
	}
}

func (r *RabbitMQ) Connect(ctx context.Context, dsn string) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	amqpCfg := amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp091.Table{
			"connection_name": "localdrop",
		},
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
	}

	var err error
	r.conn, err = amqp091.DialConfig(dsn, amqpCfg)
	if err != nil {
		return err
	}
	r.pubCh, err = r.conn.Channel()
	if err != nil {
		_ = r.conn.Close()
		return err
	}

	r.log.Info("rabbitmq connected successfully")

	return nil
}

func (r *RabbitMQ) Init() error {
	if err := r.pubCh.ExchangeDeclare(
		r.cfg.Exchange,
		r.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = r.pubCh.Close()
		return err
	}
	q, err := r.pubCh.QueueDeclare(
		r.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	return r.pubCh.QueueBind(q.Name, RoutingKeyFileAdded, r.cfg.Exchange, false, nil)
}

// RelayWorker forwards every bus event to the publisher. The relay never
// stalls the bus: when the input channel is full the event is counted as
// lost for the broker, and a dropped subscription is renewed.
func (r *RabbitMQ) RelayWorker(ctx context.Context, bus media.EventBus) {
	r.log.Info("starting relay worker")

	defer func() {
		r.log.Info("relay worker gracefully stopped")
	}()

	for {
		sub := bus.Subscribe()
		err := r.relay(ctx, sub)
		sub.Close()

		switch {
		case ctx.Err() != nil, errors.Is(err, eventbus.ErrBusClosed):
			return
		case err != nil:
			r.log.Warn("relay subscription dropped, resubscribing", zap.Error(err))
		}
	}
}

func (r *RabbitMQ) relay(ctx context.Context, sub media.Subscription) error {
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				if err := sub.Err(); err != nil {
					return err
				}
				return eventbus.ErrBusClosed
			}
			select {
			case r.in <- FromUploadEvent(ev):
			default:
				// alert
				r.log.Error("mq input buffer full, event not relayed", zap.String("identifier", ev.Identifier))
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *RabbitMQ) PublisherWorker(ctx context.Context) {
	r.log.Info("starting publisher worker")

	defer func() {
		r.log.Info("publisher worker gracefully stopped")
	}()

	for {
		select {
		case e := <-r.in:
			if err := r.publish(ctx, e); err != nil {
				// alert
				r.log.Error("mq publish error", zap.Error(err))
			}
		case <-ctx.Done():
			if r.pubCh != nil {
				_ = r.pubCh.Close()
			}
			return
		}
	}
}

func (r *RabbitMQ) publish(ctx context.Context, e Event) error {
	pub, err := toPublishing(e)
	if err != nil {
		return err
	}

	return r.pubCh.PublishWithContext(
		ctx,
		r.cfg.Exchange,
		RoutingKeyFileAdded,
		true,
		false,
		pub,
	)
}

func toPublishing(e Event) (amqp091.Publishing, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return amqp091.Publishing{}, err
	}

	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.Id.String(),
		Timestamp:    e.TS,
		Type:         e.Action,
		Body:         b,
	}, nil
}

func (r *RabbitMQ) GetInputChan() chan Event     { return r.in }
func (r *RabbitMQ) GetConn() *amqp091.Connection { return r.conn }
