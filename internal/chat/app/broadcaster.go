package app

import (
	"encoding/json"

	"go.uber.org/zap"

	"portal_chat_service/internal/chat/domain"
	"portal_chat_service/pkg/logger"
)

// Broadcaster 對房間快照送事件
// 先快照再逐一 enqueue, 過程不持註冊表的鎖, 慢連線只會丟自己的訊框
type Broadcaster struct {
	registry *RoomRegistry
}

// NewBroadcaster create broadcaster
func NewBroadcaster(registry *RoomRegistry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// Publish 同一份訊框發給房間快照裡的每條連線
func (b *Broadcaster) Publish(room string, event domain.WSEvent) {
	frame, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("marshal event error", zap.String("err", err.Error()))
		return
	}
	for _, s := range b.registry.Snapshot(room) {
		if !s.Enqueue(frame) {
			logger.Log.Warn("send buffer full, frame dropped",
				zap.String("room", room),
				zap.String("user", s.Username),
				zap.String("event", string(event.Type)))
		}
	}
}

// PublishEach 每條連線各組一份事件, build 回 nil 表示跳過該連線
// typing 排除本人與 reaction 個人化統計走這裡
func (b *Broadcaster) PublishEach(room string, build func(s *Session) *domain.WSEvent) {
	for _, s := range b.registry.Snapshot(room) {
		event := build(s)
		if event == nil {
			continue
		}
		frame, err := json.Marshal(event)
		if err != nil {
			logger.Log.Error("marshal event error", zap.String("err", err.Error()))
			return
		}
		if !s.Enqueue(frame) {
			logger.Log.Warn("send buffer full, frame dropped",
				zap.String("room", room),
				zap.String("user", s.Username),
				zap.String("event", string(event.Type)))
		}
	}
}

// Unicast 只送一條連線, ack 與錯誤走這裡
func (b *Broadcaster) Unicast(s *Session, event domain.WSEvent) {
	frame, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("marshal event error", zap.String("err", err.Error()))
		return
	}
	if !s.Enqueue(frame) {
		logger.Log.Warn("send buffer full, frame dropped",
			zap.String("room", s.Room),
			zap.String("user", s.Username),
			zap.String("event", string(event.Type)))
	}
}
