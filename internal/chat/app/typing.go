package app

import (
	"sort"
	"sync"
	"time"
)

// defaultTypingTTL 沒設定時的打字狀態壽命
const defaultTypingTTL = 5 * time.Second

// TypingBoard (房間, 使用者) -> 到期時間
// 不開背景 goroutine, 過期項目在讀取時順手清掉
type TypingBoard struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]map[string]time.Time
	now     func() time.Time // 測試時替換
}

// NewTypingBoard create typing board, ttl <= 0 用預設值
func NewTypingBoard(ttl time.Duration) *TypingBoard {
	if ttl <= 0 {
		ttl = defaultTypingTTL
	}
	return &TypingBoard{
		ttl:     ttl,
		entries: make(map[string]map[string]time.Time),
		now:     time.Now,
	}
}

// Set 標記使用者打字中, 重複呼叫只是延長到期
func (t *TypingBoard) Set(room, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	users, ok := t.entries[room]
	if !ok {
		users = make(map[string]time.Time)
		t.entries[room] = users
	}
	users[username] = t.now().Add(t.ttl)
}

// Clear 清掉使用者的打字狀態, 不存在也沒關係
func (t *TypingBoard) Clear(room, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if users, ok := t.entries[room]; ok {
		delete(users, username)
		if len(users) == 0 {
			delete(t.entries, room)
		}
	}
}

// Typing 回傳還在打字的使用者(排序), 同時掃掉過期項目
func (t *TypingBoard) Typing(room string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	users, ok := t.entries[room]
	if !ok {
		return nil
	}
	now := t.now()
	active := make([]string, 0, len(users))
	for username, expireAt := range users {
		if now.After(expireAt) {
			delete(users, username)
			continue
		}
		active = append(active, username)
	}
	if len(users) == 0 {
		delete(t.entries, room)
	}
	sort.Strings(active)
	return active
}
