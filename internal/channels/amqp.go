package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Default configuration values.
const (
	defaultPollInterval = 100 * time.Millisecond
	defaultBlockTimeout = 5 * time.Second
)

// AMQPLayer — слой каналов поверх RabbitMQ.
//
// Каждому имени канала соответствует durable очередь, объявляемая
// лениво при первом обращении. Send публикует JSON в default
// exchange с routing key = имя канала. У AMQP нет блокирующего get
// по нескольким очередям, поэтому ReceiveMany реализован
// poll-циклом через basic.get с ограниченным окном ожидания.
type AMQPLayer struct {
	conn   *Connection
	logger *slog.Logger

	pollInterval time.Duration
	blockTimeout time.Duration

	mu       sync.Mutex
	declared map[string]struct{}
}

// AMQPConfig — конфигурация AMQPLayer.
type AMQPConfig struct {
	// PollInterval — пауза между опросами очередей (default: 100ms).
	PollInterval time.Duration

	// BlockTimeout — максимальное время блокировки ReceiveMany (default: 5s).
	BlockTimeout time.Duration
}

// NewAMQPLayer создаёт новый AMQPLayer.
func NewAMQPLayer(conn *Connection, logger *slog.Logger, cfg AMQPConfig) *AMQPLayer {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	blockTimeout := cfg.BlockTimeout
	if blockTimeout <= 0 {
		blockTimeout = defaultBlockTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &AMQPLayer{
		conn:         conn,
		logger:       logger,
		pollInterval: pollInterval,
		blockTimeout: blockTimeout,
		declared:     make(map[string]struct{}),
	}
}

// Send публикует сообщение в очередь канала.
func (l *AMQPLayer) Send(ctx context.Context, channel string, message Message) error {
	if err := l.ensureQueue(channel); err != nil {
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return l.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			"",      // default exchange
			channel, // routing key = имя очереди
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s: %w", channel, err)
		}

		l.logger.Debug("published message", "channel", channel)
		return nil
	})
}

// ReceiveMany забирает одно сообщение из любой очереди списка names.
func (l *AMQPLayer) ReceiveMany(ctx context.Context, names []string, block bool) (string, Message, error) {
	if len(names) == 0 {
		return "", nil, nil
	}

	deadline := time.Now().Add(l.blockTimeout)

	for {
		for _, name := range names {
			msg, ok, err := l.get(name)
			if err != nil {
				return "", nil, err
			}
			if ok {
				return name, msg, nil
			}
		}

		if !block || time.Now().After(deadline) {
			return "", nil, nil
		}

		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}
}

// get забирает одно сообщение из очереди, если оно есть.
func (l *AMQPLayer) get(channel string) (Message, bool, error) {
	if err := l.ensureQueue(channel); err != nil {
		return nil, false, err
	}

	var msg Message
	var ok bool

	err := l.conn.WithChannel(func(ch *amqp.Channel) error {
		delivery, got, err := ch.Get(channel, true) // auto-ack
		if err != nil {
			return fmt.Errorf("get from %s: %w", channel, err)
		}
		if !got {
			return nil
		}

		if err := json.Unmarshal(delivery.Body, &msg); err != nil {
			// Некорректное сообщение выбрасываем, очередь не блокируем
			l.logger.Error("failed to unmarshal message",
				"channel", channel,
				"error", err,
				"body", string(delivery.Body),
			)
			return nil
		}

		ok = true
		return nil
	})

	return msg, ok, err
}

// ensureQueue объявляет очередь канала, если ещё не объявляли.
func (l *AMQPLayer) ensureQueue(channel string) error {
	l.mu.Lock()
	if _, done := l.declared[channel]; done {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	err := l.conn.WithChannel(func(ch *amqp.Channel) error {
		_, err := ch.QueueDeclare(
			channel, // name
			true,    // durable
			false,   // delete when unused
			false,   // exclusive
			false,   // no-wait
			nil,     // arguments
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", channel, err)
	}

	l.mu.Lock()
	l.declared[channel] = struct{}{}
	l.mu.Unlock()

	return nil
}
