// Package consumer feeds reports arriving over MQTT into the reconcile
// pipeline. Nursery tablets publish their notes to a broker topic when the
// backend is unreachable from the app directly.
package consumer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"nestlog-reconcile/internal/service"
	"nestlog-reconcile/pkg/mqtt"

	"go.uber.org/zap"
)

// reportIngestor is the slice of the reconcile service the consumer needs.
type reportIngestor interface {
	IngestReport(ctx context.Context, req service.IngestReportRequest) (*service.IngestReportResponse, error)
}

// MQTTConsumer subscribes to the report ingest topic.
type MQTTConsumer struct {
	topic         string
	qos           byte
	ingestTimeout time.Duration
	mqttClient    *mqtt.Client
	reconcile     reportIngestor
	logger        *zap.Logger
}

func NewMQTTConsumer(
	topic string,
	qos byte,
	ingestTimeout time.Duration,
	mqttClient *mqtt.Client,
	reconcile reportIngestor,
	logger *zap.Logger,
) *MQTTConsumer {
	if ingestTimeout <= 0 {
		ingestTimeout = 2 * time.Minute
	}
	return &MQTTConsumer{
		topic:         topic,
		qos:           qos,
		ingestTimeout: ingestTimeout,
		mqttClient:    mqttClient,
		reconcile:     reconcile,
		logger:        logger,
	}
}

// Start subscribes and blocks until the context is cancelled.
func (c *MQTTConsumer) Start(ctx context.Context) error {
	if err := c.mqttClient.Subscribe(c.topic, c.qos, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to ingest topic: %w", err)
	}

	c.logger.Info("MQTT consumer started",
		zap.String("topic", c.topic),
	)

	<-ctx.Done()
	return nil
}

// Stop unsubscribes from the ingest topic.
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	if err := c.mqttClient.Unsubscribe(c.topic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}

	c.logger.Info("MQTT consumer stopped")
	return nil
}

// ingestMessage mirrors the HTTP ingest body: text reports in `text`,
// image reports in `data_base64`.
type ingestMessage struct {
	ChildID     string `json:"child_id"`
	ContentType string `json:"content_type"`
	Text        string `json:"text,omitempty"`
	DataBase64  string `json:"data_base64,omitempty"`
}

// handleMessage runs one inbound report through the pipeline. Messages are
// fire-and-forget for the publisher, so failed extractions land in the
// offline queue the same way they do over HTTP.
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	var msg ingestMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Error("Failed to unmarshal MQTT message",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	source := []byte(msg.Text)
	if msg.DataBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(msg.DataBase64)
		if err != nil {
			c.logger.Error("Message carries invalid base64 data",
				zap.String("topic", topic),
				zap.String("child_id", msg.ChildID),
				zap.Error(err),
			)
			return fmt.Errorf("data_base64 is not valid base64: %w", err)
		}
		source = decoded
	}

	// No request context exists here; bound the pipeline run explicitly so a
	// hung extraction call cannot wedge the subscription callback.
	ctx, cancel := context.WithTimeout(context.Background(), c.ingestTimeout)
	defer cancel()

	resp, err := c.reconcile.IngestReport(ctx, service.IngestReportRequest{
		ChildID:     msg.ChildID,
		ContentType: msg.ContentType,
		Source:      source,
	})
	if err != nil {
		c.logger.Error("Failed to ingest MQTT report",
			zap.String("child_id", msg.ChildID),
			zap.String("content_type", msg.ContentType),
			zap.Error(err),
		)
		return fmt.Errorf("failed to ingest report: %w", err)
	}

	switch resp.Status {
	case service.IngestStatusQueued:
		c.logger.Warn("MQTT report parked in offline queue",
			zap.String("child_id", msg.ChildID),
			zap.String("pending_id", resp.Pending.ID),
		)
	default:
		c.logger.Info("MQTT report opened review session",
			zap.String("child_id", msg.ChildID),
			zap.String("session_id", resp.Session.ID),
			zap.Int("candidates", len(resp.Session.Events)),
		)
	}

	return nil
}
