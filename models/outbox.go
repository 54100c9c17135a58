package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmdatafocus/warehouse_backend/config"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"gorm.io/gorm"
)

// Outbox publish statuses for StockEventRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// StockEventRecord is a transactional outbox row. It is written in the same
// DB transaction as the ledger change it describes; the dispatcher publishes
// it to Pub/Sub after commit.
type StockEventRecord struct {
	ID            int       `gorm:"primary_key;index:idx_stock_outbox_dispatch,priority:3" json:"id"`
	BusinessId    string    `gorm:"size:64;not null;index" json:"business_id"`
	OccurredAt    time.Time `gorm:"index;not null" json:"occurred_at"`
	ReferenceId   int       `json:"reference_id"`
	ReferenceType string    `gorm:"size:32" json:"reference_type"`
	Action        string    `gorm:"size:8" json:"action"`
	Payload       []byte    `gorm:"type:blob" json:"payload"`
	CorrelationId string    `gorm:"size:64;index" json:"correlation_id"`

	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_stock_outbox_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_stock_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToPubSubMessage(record StockEventRecord) config.PubSubMessage {
	return config.PubSubMessage{
		ID:            record.ID,
		BusinessId:    record.BusinessId,
		OccurredAt:    record.OccurredAt,
		ReferenceId:   record.ReferenceId,
		ReferenceType: record.ReferenceType,
		Action:        record.Action,
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

// PublishStockEvent stages a ledger event inside the caller's transaction.
// Nothing leaves the process here; the outbox dispatcher does the publish.
func PublishStockEvent(ctx context.Context, tx *gorm.DB, businessId string, stockTx *StockTransaction) error {
	payload, err := json.Marshal(stockTx)
	if err != nil {
		return err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	refType := "STK"
	if stockTx.ReferenceDocumentType != nil {
		refType = string(*stockTx.ReferenceDocumentType)
	}

	record := StockEventRecord{
		BusinessId:    businessId,
		OccurredAt:    time.Now().UTC(),
		ReferenceId:   stockTx.VariantId,
		ReferenceType: refType,
		Action:        "C",
		Payload:       payload,
		CorrelationId: correlationId,
		PublishStatus: OutboxPublishStatusPending,
	}
	return tx.WithContext(ctx).Create(&record).Error
}
