package domain

import "time"

// Room 入口網站的聊天室, 本服務唯讀
// json tag 給 redis cache 序列化用
type Room struct {
	Slug     string       `json:"slug"`
	Name     string       `json:"name"`
	Archived bool         `json:"archived"`
	Members  []RoomMember `json:"members"`
}

// RoomMember 房間成員
type RoomMember struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// HasMember 成員名單為空視為開放房間
func (r *Room) HasMember(userID string) bool {
	if len(r.Members) == 0 {
		return true
	}
	for _, m := range r.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// RoomOverview REST 房間清單的單一項目
type RoomOverview struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Archived    bool   `json:"archived"`
	OnlineCount int    `json:"online_count"`
	UnreadCount int64  `json:"unread_count"`
}

// ReadStatus 每人每房的已讀位置, 本服務自有資料表
type ReadStatus struct {
	ID                uint      `gorm:"primaryKey"`
	UserID            string    `gorm:"column:user_id;size:64;uniqueIndex:idx_read_user_room"`
	RoomSlug          string    `gorm:"column:room_slug;size:128;uniqueIndex:idx_read_user_room"`
	LastReadMessageID string    `gorm:"column:last_read_message_id;size:32"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

// TableName gorm table name
func (ReadStatus) TableName() string {
	return "chat_read_statuses"
}
