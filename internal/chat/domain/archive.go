package domain

import "time"

// ArchiveEventKind kafka 審計事件種類
type ArchiveEventKind string

const (
	// ArchiveMessageCreated 新訊息落地
	ArchiveMessageCreated ArchiveEventKind = "message_created"
	// ArchiveMessageEdited 訊息編輯
	ArchiveMessageEdited ArchiveEventKind = "message_edited"
	// ArchiveMessageDeleted 訊息軟刪除
	ArchiveMessageDeleted ArchiveEventKind = "message_deleted"
	// ArchiveReactionToggled 反應切換
	ArchiveReactionToggled ArchiveEventKind = "reaction_toggled"
)

// ArchiveEvent 房間事件的外部落地格式, 送 kafka
type ArchiveEvent struct {
	ID        string           `json:"id"`
	Kind      ArchiveEventKind `json:"kind"`
	Room      string           `json:"room"`
	MessageID string           `json:"message_id"`
	ActorID   string           `json:"actor_id"`
	At        time.Time        `json:"at"`
}

// OfflineNotification 給離線成員的通知工作, 送 rabbitmq 由通知服務消化
type OfflineNotification struct {
	UserID    string    `json:"user_id"`
	Room      string    `json:"room"`
	MessageID string    `json:"message_id"`
	Sender    string    `json:"sender"`
	Preview   string    `json:"preview"`
	SentAt    time.Time `json:"sent_at"`
}
