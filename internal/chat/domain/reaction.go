package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reaction 一筆反應, mongo document
// (message_id, emoji, user_id) 有 unique index, toggle 靠它擋重複
type Reaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	MessageID string             `bson:"message_id"`
	Emoji     string             `bson:"emoji"`
	UserID    string             `bson:"user_id"`
	Username  string             `bson:"username"`
	CreatedAt time.Time          `bson:"created_at"`
}

// ReactionDetail 單一 emoji 的統計
type ReactionDetail struct {
	Count                int      `json:"count"`
	Users                []string `json:"users"`
	ReactedByCurrentUser bool     `json:"reacted_by_current_user"`
}

// ReactionSummary emoji -> 統計, 整包重算後廣播
type ReactionSummary map[string]ReactionDetail

// AggregateReactions 從反應列全量重算統計
// currentUserID 決定每個 emoji 的 reacted_by_current_user, 每個收件人各算一份
func AggregateReactions(rows []Reaction, currentUserID string) ReactionSummary {
	summary := make(ReactionSummary)
	for _, r := range rows {
		d := summary[r.Emoji]
		d.Count++
		d.Users = append(d.Users, r.Username)
		if r.UserID == currentUserID {
			d.ReactedByCurrentUser = true
		}
		summary[r.Emoji] = d
	}
	// 名單排序讓輸出穩定
	for emoji, d := range summary {
		sort.Strings(d.Users)
		summary[emoji] = d
	}
	return summary
}
