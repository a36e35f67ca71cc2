package rabbitmq

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"reel-ingest/config"
)

const (
	cleanupDLXName      = "ingest_cleanup_exchange_dlx"
	orphanDLQName       = "orphaned_asset_queue_dlq"
	orphanDLQRoutingKey = "dlq.asset.orphaned"
	maxHandlerAttempts  = 5
	maxHandlerBackoff   = 10 * time.Second
)

// Consumer drains the orphaned-asset queue with a small worker pool. Each
// delivery gets a bounded backoff-retry; what still fails is dead-lettered
// instead of spinning on the main queue.
type Consumer[T any] interface {
	Consume(ctx context.Context, dependencies T) error
}

type consumer[T any] struct {
	conn       *amqp.Connection
	cfg        *config.RabbitMQ
	handler    func(ctx context.Context, msg amqp.Delivery, dependencies T) error
	numWorkers int
}

func (c consumer[T]) Consume(ctx context.Context, dependencies T) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(cleanupExchangeName, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", cleanupExchangeName).Msg("failed to declare exchange")
		return err
	}

	err = ch.ExchangeDeclare(cleanupDLXName, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", cleanupDLXName).Msg("failed to declare dlx")
		return err
	}

	dlq, err := ch.QueueDeclare(orphanDLQName, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", orphanDLQName).Msg("failed to declare dlq")
		return err
	}

	err = ch.QueueBind(dlq.Name, orphanDLQRoutingKey, cleanupDLXName, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Msg("failed to bind dlq")
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    cleanupDLXName,
		"x-dead-letter-routing-key": orphanDLQRoutingKey,
	}
	q, err := ch.QueueDeclare(orphanQueueName, true, false, false, false, args)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", orphanQueueName).Msg("failed to declare queue")
		return err
	}

	err = ch.QueueBind(q.Name, orphanRoutingKey, cleanupExchangeName, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", orphanQueueName).Msg("failed to bind queue")
		return err
	}

	err = ch.Qos(c.numWorkers, 0, false)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", orphanQueueName).Msg("failed to set QoS")
		return err
	}

	deliveries, err := ch.Consume(orphanQueueName, "", false, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", orphanQueueName).Msg("failed to consume queue")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("queue", orphanQueueName).
		Str("exchange", cleanupExchangeName).
		Int("workers", c.numWorkers).
		Msg("orphan sweep consumer started")

	jobs := make(chan amqp.Delivery, c.numWorkers)
	var wg sync.WaitGroup
	for i := 1; i <= c.numWorkers; i++ {
		wg.Add(1)
		go func(workerId int) {
			defer wg.Done()
			for msg := range jobs {
				operation := func() (string, error) {
					return "", c.handler(ctx, msg, dependencies)
				}

				bo := backoff.NewExponentialBackOff()
				bo.MaxInterval = maxHandlerBackoff

				_, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(maxHandlerAttempts))
				if err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Int("worker_id", workerId).Msg("failed to handle message after all retries")
					if nackErr := msg.Nack(false, false); nackErr != nil {
						zerolog.Ctx(ctx).Error().Err(nackErr).Msg("failed to nack message to send to DLQ")
					}
					continue
				}
				if ackErr := msg.Ack(false); ackErr != nil {
					zerolog.Ctx(ctx).Error().Err(ackErr).Msg("failed to acknowledge message")
				}
			}
		}(i)
	}

	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				close(jobs)
				wg.Wait()
				return nil
			}

			jobs <- delivery
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
}

func NewConsumer[T any](
	conn *amqp.Connection,
	cfg *config.RabbitMQ,
	numWorkers int,
	handler func(ctx context.Context, msg amqp.Delivery, dependencies T) error,
) Consumer[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &consumer[T]{
		conn:       conn,
		cfg:        cfg,
		handler:    handler,
		numWorkers: numWorkers,
	}
}
