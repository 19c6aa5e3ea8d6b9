// Package audit turns roster events into an audit log and event counters.
package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rollbook/internal/metrics"
	"rollbook/internal/queue"
)

// Run consumes q until ctx is done, writing one log line per event.
func Run(ctx context.Context, q queue.Queue, log *zap.Logger) error {
	msgs, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("consume events: %w", err)
	}
	for msg := range msgs {
		Record(log, msg)
	}
	return nil
}

// Record logs msg and counts it by type.
func Record(log *zap.Logger, msg queue.Message) {
	fields := []zap.Field{
		zap.String("type", msg.Type),
		zap.String("entity_id", msg.EntityID),
		zap.Time("at", msg.At),
	}
	if msg.ClassID != "" {
		fields = append(fields, zap.String("class_id", msg.ClassID))
	}
	if msg.Status != "" {
		fields = append(fields, zap.String("status", msg.Status))
	}
	log.Info("roster event", fields...)
	metrics.EventsConsumed.WithLabelValues(msg.Type).Inc()
}
