package repository

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"portal_chat_service/internal/chat/domain"
)

// ArchivePublisher definition room event audit stream
type ArchivePublisher interface {
	Emit(ctx context.Context, ev domain.ArchiveEvent) error
}

type kafkaArchivePublisher struct {
	writer *kafka.Writer
}

// NewKafkaArchivePublisher create a ArchivePublisher
func NewKafkaArchivePublisher(writer *kafka.Writer) ArchivePublisher {
	return &kafkaArchivePublisher{writer: writer}
}

// Emit key 用房間 slug, 同房事件落同一個 partition 保序
func (p *kafkaArchivePublisher) Emit(ctx context.Context, ev domain.ArchiveEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Room),
		Value: value,
	})
}
