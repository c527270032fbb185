package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
)

const (
	// AuditStreamName is the JetStream stream persisting send audit records.
	AuditStreamName = "SEND_AUDIT"

	auditSubjectPrefix = "audit.send."

	// RefreshSubject carries inbox refresh events on core NATS.
	RefreshSubject = "tono.refresh"
)

// StreamManager publishes audit records to JetStream and refresh events
// to core NATS. It satisfies the send service's publisher dependency.
type StreamManager struct {
	client *Client
	logger *logger.Logger
}

// NewStreamManager creates a stream manager.
func NewStreamManager(client *Client, log *logger.Logger) *StreamManager {
	return &StreamManager{
		client: client,
		logger: log,
	}
}

// EnsureStream creates or updates the audit stream.
func (sm *StreamManager) EnsureStream(ctx context.Context) error {
	cfg := jetstream.StreamConfig{
		Name:        AuditStreamName,
		Description: "Audit trail for guest message sends",
		Subjects:    []string{auditSubjectPrefix + ">"},
		Retention:   jetstream.LimitsPolicy,
		Storage:     jetstream.FileStorage,
		MaxAge:      90 * 24 * time.Hour,
		Replicas:    1,
	}

	_, err := sm.client.JetStream().CreateOrUpdateStream(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", AuditStreamName, err)
	}

	sm.logger.Info("JetStream stream ready", zap.String("stream", AuditStreamName))
	return nil
}

// PublishSendLog persists a send log record on the audit stream.
func (sm *StreamManager) PublishSendLog(ctx context.Context, log *model.SendLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal send log: %w", err)
	}

	subject := auditSubjectPrefix + log.ConversationID
	if _, err := sm.client.JetStream().Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish send log: %w", err)
	}

	sm.logger.Debug("published send log",
		zap.String("subject", subject),
		zap.String("conversation_id", log.ConversationID),
		zap.String("status", string(log.Status)),
	)
	return nil
}

// PublishRefresh broadcasts a refresh event to all connected consoles.
// Refresh events are fire-and-forget, so core NATS is enough.
func (sm *StreamManager) PublishRefresh(ctx context.Context, event model.RefreshEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh event: %w", err)
	}

	if err := sm.client.Conn().Publish(RefreshSubject, data); err != nil {
		return fmt.Errorf("failed to publish refresh event: %w", err)
	}
	return nil
}

// SubscribeRefresh delivers refresh events to the handler until the
// subscription is drained. Malformed payloads are logged and dropped.
func (sm *StreamManager) SubscribeRefresh(handler func(model.RefreshEvent)) (*nats.Subscription, error) {
	sub, err := sm.client.Conn().Subscribe(RefreshSubject, func(msg *nats.Msg) {
		var event model.RefreshEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			sm.logger.Warn("dropping malformed refresh event", zap.Error(err))
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", RefreshSubject, err)
	}
	return sub, nil
}
