package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"portal_chat_service/pkg"
)

// DeletedReplyPlaceholder 回覆目標已刪除時前端顯示的占位文字
const DeletedReplyPlaceholder = "Original message deleted"

// replyPreviewRunes 回覆引文最多保留的字數
const replyPreviewRunes = 50

// Message 一則聊天訊息, mongo document
// 軟刪除時 content 與 attachment 會被清掉, 文件本身保留以維持串位
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Room       string             `bson:"room"`
	UserID     string             `bson:"user_id"`
	Username   string             `bson:"username"`
	Content    string             `bson:"content"`
	Attachment *Attachment        `bson:"attachment,omitempty"`
	ReplyTo    string             `bson:"reply_to,omitempty"` // 目標訊息 hex id, 建立後不變
	CreatedAt  time.Time          `bson:"created_at"`
	EditedAt   *time.Time         `bson:"edited_at,omitempty"`
	Deleted    bool               `bson:"deleted"`
}

// Attachment 附件中繼資料, Key 是物件儲存的 object name, 不出現在 wire 上
type Attachment struct {
	Name string `bson:"name" json:"name"`
	Size int64  `bson:"size" json:"size"`
	Key  string `bson:"key" json:"-"`
	URL  string `bson:"url" json:"url"`
}

// ReplyPreview 序列化時從目標訊息現況算出, 不落地
type ReplyPreview struct {
	MessageID string `json:"message_id"`
	Username  string `json:"username,omitempty"`
	Preview   string `json:"preview"`
	Deleted   bool   `json:"deleted"`
}

// MessageView wire 上的訊息形狀, websocket 與 REST 共用
type MessageView struct {
	ID         string          `json:"id"`
	Room       string          `json:"room"`
	UserID     string          `json:"user_id"`
	Username   string          `json:"username"`
	Content    string          `json:"content"`
	Attachment *Attachment     `json:"attachment,omitempty"`
	ReplyTo    *ReplyPreview   `json:"reply_to,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	EditedAt   *time.Time      `json:"edited_at,omitempty"`
	Deleted    bool            `json:"deleted"`
	Reactions  ReactionSummary `json:"reactions"`
}

// NewReplyPreview 依目標訊息現況產生引文, 刪除的目標給占位文字
func NewReplyPreview(target *Message) *ReplyPreview {
	if target == nil {
		return nil
	}
	p := &ReplyPreview{
		MessageID: target.ID.Hex(),
		Username:  target.Username,
		Deleted:   target.Deleted,
	}
	switch {
	case target.Deleted:
		p.Preview = DeletedReplyPlaceholder
	case target.Content != "":
		p.Preview = pkg.Truncate(target.Content, replyPreviewRunes)
	case target.Attachment != nil:
		// 純附件訊息用檔名當引文
		p.Preview = target.Attachment.Name
	}
	return p
}

// View 組出 wire 形狀, reactions 傳 nil 會補成空 map
func (m *Message) View(reactions ReactionSummary, reply *ReplyPreview) MessageView {
	if reactions == nil {
		reactions = ReactionSummary{}
	}
	return MessageView{
		ID:         m.ID.Hex(),
		Room:       m.Room,
		UserID:     m.UserID,
		Username:   m.Username,
		Content:    m.Content,
		Attachment: m.Attachment,
		ReplyTo:    reply,
		CreatedAt:  m.CreatedAt,
		EditedAt:   m.EditedAt,
		Deleted:    m.Deleted,
		Reactions:  reactions,
	}
}
