package rabbitmq

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"reel-ingest/config"
	"reel-ingest/dto"
)

const (
	cleanupExchangeName = "ingest_cleanup_exchange"
	orphanQueueName     = "orphaned_asset_queue"
	orphanRoutingKey    = "asset.orphaned"
)

// Publisher emits orphaned-asset events so a sweep worker can retry
// provider-side deletes that failed during a cascading delete.
type Publisher struct {
	conn *amqp.Connection
	cfg  *config.RabbitMQ
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) *Publisher {
	return &Publisher{
		conn: conn,
		cfg:  cfg,
	}
}

func (p *Publisher) PublishOrphanedAsset(ctx context.Context, recordId, assetHandle string) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(cleanupExchangeName, p.cfg.Kind, true, false, false, false, nil); err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", cleanupExchangeName).Msg("failed to declare exchange")
		return err
	}

	msg := dto.OrphanedAssetMessage{AssetHandle: assetHandle}
	if id, err := uuid.Parse(recordId); err == nil {
		msg.RecordID = id
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, cleanupExchangeName, orphanRoutingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
