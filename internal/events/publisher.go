package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/config"
	"github.com/campus-tuckshop/tuckshop-service/internal/metrics"
	"github.com/campus-tuckshop/tuckshop-service/internal/models"
	"github.com/campus-tuckshop/tuckshop-service/internal/server"
	"github.com/campus-tuckshop/tuckshop-service/internal/service"
)

// EventType identifies the kind of storefront event.
type EventType string

const (
	EventTypeStockUpdated EventType = "stock.updated"
	EventTypeOrderPlaced  EventType = "order.placed"
)

// Event is the wire envelope shared by all storefront events.
type Event struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// StockUpdate is the relay contract consumed by browsing clients.
type StockUpdate struct {
	ItemID   string `json:"item_id"`
	NewStock int    `json:"new_stock"`
}

var _ service.EventPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher publishes storefront events to Kafka. Stock updates go to
// the relay topic the websocket fan-out reads; order events go to the
// fulfillment topic.
type KafkaPublisher struct {
	stockWriter *kafka.Writer
	orderWriter *kafka.Writer
	logger      *logrus.Entry
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *logrus.Logger) *KafkaPublisher {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
		}
	}
	return &KafkaPublisher{
		stockWriter: newWriter(cfg.StockTopic),
		orderWriter: newWriter(cfg.OrdersTopic),
		logger:      logger.WithField("component", "event-publisher"),
	}
}

// PublishStockUpdated broadcasts an item's new stock after a committed
// mutation.
func (p *KafkaPublisher) PublishStockUpdated(ctx context.Context, itemID string, newStock int) error {
	data, err := json.Marshal(StockUpdate{ItemID: itemID, NewStock: newStock})
	if err != nil {
		return err
	}

	if err := p.publish(ctx, p.stockWriter, itemID, newEvent(ctx, EventTypeStockUpdated, data)); err != nil {
		return err
	}
	metrics.StockEvents.Inc()
	return nil
}

// PublishOrderPlaced publishes a settled order for the fulfillment process.
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.orderWriter, order.ID, newEvent(ctx, EventTypeOrderPlaced, data))
}

func (p *KafkaPublisher) publish(ctx context.Context, writer *kafka.Writer, key string, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"error":      err.Error(),
		}).Error("Failed to publish event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	}).Debug("Event published")
	return nil
}

// Close closes both writers.
func (p *KafkaPublisher) Close() error {
	if err := p.stockWriter.Close(); err != nil {
		return err
	}
	return p.orderWriter.Close()
}

func newEvent(ctx context.Context, eventType EventType, data []byte) *Event {
	event := &Event{
		ID:        "evt_" + uuid.NewString(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	if requestID := server.RequestIDFrom(ctx); requestID != "" {
		event.CorrelationID = requestID
	}
	return event
}

// MockPublisher records events for tests.
type MockPublisher struct {
	mu           sync.Mutex
	StockUpdates []StockUpdate
	Orders       []*models.Order
}

var _ service.EventPublisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishStockUpdated(_ context.Context, itemID string, newStock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StockUpdates = append(m.StockUpdates, StockUpdate{ItemID: itemID, NewStock: newStock})
	return nil
}

func (m *MockPublisher) PublishOrderPlaced(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Orders = append(m.Orders, order)
	return nil
}
