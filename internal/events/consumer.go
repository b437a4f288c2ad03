package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/config"
	"github.com/campus-tuckshop/tuckshop-service/internal/service"
)

// ApprovalEventType identifies events from the external fulfillment process.
type ApprovalEventType string

const (
	ApprovalEventApproved ApprovalEventType = "order.approved"
	ApprovalEventRejected ApprovalEventType = "order.rejected"
)

// ApprovalEvent signals the fulfillment process has handled an order. Money
// was settled at checkout; this only drives the processed flag.
type ApprovalEvent struct {
	ID        string            `json:"id"`
	Type      ApprovalEventType `json:"type"`
	OrderID   string            `json:"order_id"`
	Timestamp time.Time         `json:"timestamp"`
}

// KafkaConsumer consumes fulfillment approvals from Kafka.
type KafkaConsumer struct {
	reader   *kafka.Reader
	checkout *service.CheckoutService
	logger   *logrus.Entry
	stopCh   chan struct{}
}

func NewKafkaConsumer(cfg config.KafkaConfig, checkout *service.CheckoutService, logger *logrus.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.ApprovalsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &KafkaConsumer{
		reader:   reader,
		checkout: checkout,
		logger:   logger.WithField("component", "approval-consumer"),
		stopCh:   make(chan struct{}),
	}
}

// Start consumes until the context is cancelled or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting approval consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Approval consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.WithFields(logrus.Fields{"error": err.Error()}).Error("Failed to read message")
				continue
			}
			c.handleMessage(ctx, msg)
		}
	}
}

// Stop stops the consumer.
func (c *KafkaConsumer) Stop() {
	close(c.stopCh)
	c.reader.Close()
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var event ApprovalEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.WithFields(logrus.Fields{"error": err.Error()}).Error("Failed to unmarshal approval event")
		return
	}

	switch event.Type {
	case ApprovalEventApproved:
		if err := c.checkout.MarkOrderProcessed(ctx, event.OrderID); err != nil {
			c.logger.WithFields(logrus.Fields{
				"order_id": event.OrderID,
				"error":    err.Error(),
			}).Error("Failed to mark order processed")
		}
	case ApprovalEventRejected:
		// Rejections stay pending for manual review; the tuck shop has no
		// automated refund path.
		c.logger.WithFields(logrus.Fields{"order_id": event.OrderID}).Warn("Order rejected by fulfillment")
	default:
		c.logger.WithFields(logrus.Fields{"type": event.Type}).Debug("Ignoring unknown event type")
	}
}
