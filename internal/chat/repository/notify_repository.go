package repository

import (
	"context"
	"encoding/json"

	"github.com/streadway/amqp"

	"portal_chat_service/internal/chat/domain"
	"portal_chat_service/pkg/database"
)

// OfflineNotifier definition offline member notify queue
type OfflineNotifier interface {
	NotifyOffline(ctx context.Context, job domain.OfflineNotification) error
}

type rabbitNotifier struct {
	rabbit database.RabbitRepo
	queue  string
}

// NewRabbitOfflineNotifier create a OfflineNotifier
func NewRabbitOfflineNotifier(rabbit database.RabbitRepo, queue string) OfflineNotifier {
	return &rabbitNotifier{
		rabbit: rabbit,
		queue:  queue,
	}
}

// NotifyOffline 丟進 durable queue, 下游通知服務自己重試
func (n *rabbitNotifier) NotifyOffline(_ context.Context, job domain.OfflineNotification) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return n.rabbit.Publish("", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
