package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/snackwatch/konbini-crawler/internal/database"
	"github.com/snackwatch/konbini-crawler/internal/models"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeProductIngested is published when a product row is newly
	// inserted during an ingestion batch.
	EventTypeProductIngested EventType = "PRODUCT_INGESTED"
)

// ProductIngestedPayload is the event body for PRODUCT_INGESTED.
type ProductIngestedPayload struct {
	EventID        string        `json:"event_id"`
	EventType      string        `json:"event_type"`
	Timestamp      time.Time     `json:"timestamp"`
	BrandSlug      string        `json:"brand_slug"`
	OriginalName   string        `json:"original_name"`
	TranslatedName string        `json:"translated_name,omitempty"`
	SourceURL      string        `json:"source_url"`
	ImageURLs      []string      `json:"image_urls,omitempty"`
	Price          *models.Price `json:"price,omitempty"`
	IsNew          bool          `json:"is_new"`
	ReleaseDate    string        `json:"release_date,omitempty"`
	ScrapedAt      time.Time     `json:"scraped_at"`
	Source         string        `json:"source"`
}

// Publisher writes events through the transactional outbox; the relay
// ships them to Redis.
type Publisher struct {
	db     *database.DB
	outbox *database.OutboxRepository
	logger *slog.Logger
}

func NewPublisher(db *database.DB, logger *slog.Logger) *Publisher {
	return &Publisher{
		db:     db,
		outbox: database.NewOutboxRepository(db),
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishProductIngested records a PRODUCT_INGESTED event for a newly
// inserted product.
func (p *Publisher) PublishProductIngested(ctx context.Context, payload *ProductIngestedPayload) error {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.EventType == "" {
		payload.EventType = string(EventTypeProductIngested)
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}
	if payload.Source == "" {
		payload.Source = "crawler"
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &database.OutboxEvent{
		BrandSlug:    payload.BrandSlug,
		SourceURL:    payload.SourceURL,
		EventType:    string(EventTypeProductIngested),
		Payload:      data,
		TargetStream: database.DefaultStream,
	}

	err = p.db.Transaction(ctx, func(tx pgx.Tx) error {
		if err := p.outbox.InsertWithTx(ctx, tx, outboxEvent); err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published to outbox",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"brand", payload.BrandSlug,
		"source_url", payload.SourceURL,
		"outbox_id", outboxEvent.ID,
	)

	return nil
}
