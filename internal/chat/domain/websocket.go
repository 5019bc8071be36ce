package domain

import (
	"encoding/json"
	"time"
)

// Action websocket client action
type Action string

const (
	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// SendFile websocket action send_file
	SendFile Action = "send_file"
	// EditMessage websocket action edit_message
	EditMessage Action = "edit_message"
	// DeleteMessage websocket action delete_message
	DeleteMessage Action = "delete_message"

	// AddReaction websocket action add_reaction
	AddReaction Action = "add_reaction"
	// RemoveReaction websocket action remove_reaction
	RemoveReaction Action = "remove_reaction"

	// TypingStatus websocket action typing_status
	TypingStatus Action = "typing_status"
	// LoadOlderMessages websocket action load_older_messages
	LoadOlderMessages Action = "load_older_messages"
	// MarkRead websocket action mark_read
	MarkRead Action = "mark_read"
)

// Event websocket server event
type Event string

const (
	// EventNewMessage 廣播新訊息
	EventNewMessage Event = "new_message"
	// EventUpdateMessage 廣播編輯後的訊息
	EventUpdateMessage Event = "update_message"
	// EventDeleteMessage 廣播軟刪除後的訊息
	EventDeleteMessage Event = "delete_message"
	// EventReactionUpdate 廣播單一訊息的完整反應統計
	EventReactionUpdate Event = "reaction_update"
	// EventOnlineUsers 廣播房間在線名單
	EventOnlineUsers Event = "online_users_update"
	// EventTypingUpdate 廣播打字中名單(不含收件人自己)
	EventTypingUpdate Event = "typing_update"
	// EventReadUpdate 廣播已讀位置(需開 broadcast_read_receipts)
	EventReadUpdate Event = "read_update"

	// EventOlderMessages 單播歷史分頁
	EventOlderMessages Event = "older_messages_list"
	// EventMessageAck 單播給發送者的確認
	EventMessageAck Event = "message_ack"
	// EventError 單播錯誤, 永不廣播
	EventError Event = "error_notification"
)

// WSRequest client envelope {type, payload}
type WSRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// WSEvent server envelope {type, payload}
type WSEvent struct {
	Type    Event       `json:"type"`
	Payload interface{} `json:"payload"`
}

// SendMessagePayload send_message 請求內容
type SendMessagePayload struct {
	Content       string `json:"content"`
	ReplyTo       string `json:"reply_to,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// SendFilePayload send_file 請求內容, Data 為 base64 編碼
type SendFilePayload struct {
	FileName      string `json:"file_name"`
	FileType      string `json:"file_type,omitempty"`
	Data          string `json:"data"`
	Content       string `json:"content,omitempty"`
	ReplyTo       string `json:"reply_to,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// EditMessagePayload edit_message 請求內容
type EditMessagePayload struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

// DeleteMessagePayload delete_message 請求內容
type DeleteMessagePayload struct {
	MessageID string `json:"message_id"`
}

// ReactionPayload add_reaction / remove_reaction 請求內容
type ReactionPayload struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// TypingPayload typing_status 請求內容
type TypingPayload struct {
	IsTyping bool `json:"is_typing"`
}

// LoadOlderPayload load_older_messages 請求內容
type LoadOlderPayload struct {
	BeforeMessageID string `json:"before_message_id,omitempty"`
	Limit           int    `json:"limit,omitempty"`
}

// MarkReadPayload mark_read 請求內容
type MarkReadPayload struct {
	LastVisibleMessageID string `json:"last_visible_message_id"`
}

// NewMessagePayload new_message 事件內容
type NewMessagePayload struct {
	Message       MessageView `json:"message"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// MessagePayload update_message / delete_message 事件內容, 客戶端以 id 覆蓋本地狀態
type MessagePayload struct {
	Message MessageView `json:"message"`
}

// AckPayload message_ack 事件內容, 只回給發送者
type AckPayload struct {
	CorrelationID string    `json:"correlation_id"`
	MessageID     string    `json:"message_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// ErrorPayload error_notification 事件內容
type ErrorPayload struct {
	Kind          string `json:"kind"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
	MessageID     string `json:"message_id,omitempty"`
}

// ReactionUpdatePayload reaction_update 事件內容
type ReactionUpdatePayload struct {
	MessageID string          `json:"message_id"`
	Reactions ReactionSummary `json:"reactions"`
}

// OnlineUsersPayload online_users_update 事件內容
type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

// TypingUpdatePayload typing_update 事件內容
type TypingUpdatePayload struct {
	Users []string `json:"users"`
}

// OlderMessagesPayload older_messages_list 事件內容
type OlderMessagesPayload struct {
	Messages []MessageView `json:"messages"`
	HasMore  bool          `json:"has_more"`
}

// ReadUpdatePayload read_update 事件內容
type ReadUpdatePayload struct {
	Username          string `json:"username"`
	LastReadMessageID string `json:"last_read_message_id"`
}
