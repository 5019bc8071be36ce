package app

import (
	"sort"
	"sync"
)

// RoomRegistry 房間 -> 在線 session 集合
// 外層鎖只保護 rooms map, 名單操作走每房自己的鎖
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*roomEntry
}

type roomEntry struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

// NewRoomRegistry create empty registry
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*roomEntry),
	}
}

// Join 把 session 掛進房間
func (r *RoomRegistry) Join(room string, s *Session) {
	r.mu.Lock()
	entry, ok := r.rooms[room]
	if !ok {
		entry = &roomEntry{sessions: make(map[*Session]struct{})}
		r.rooms[room] = entry
	}
	r.mu.Unlock()

	entry.mu.Lock()
	entry.sessions[s] = struct{}{}
	entry.mu.Unlock()
}

// Leave 移除 session, 可重複呼叫, 第一次移除才回 true
// 空房間順手回收
func (r *RoomRegistry) Leave(room string, s *Session) bool {
	r.mu.RLock()
	entry, ok := r.rooms[room]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	entry.mu.Lock()
	_, present := entry.sessions[s]
	delete(entry.sessions, s)
	empty := len(entry.sessions) == 0
	entry.mu.Unlock()

	if empty {
		r.mu.Lock()
		// 回收前重查, 期間可能有人 Join
		if entry, ok := r.rooms[room]; ok {
			entry.mu.RLock()
			if len(entry.sessions) == 0 {
				delete(r.rooms, room)
			}
			entry.mu.RUnlock()
		}
		r.mu.Unlock()
	}
	return present
}

// Snapshot 呼叫當下的 session 副本, 廣播用, 不持鎖做 I/O
func (r *RoomRegistry) Snapshot(room string) []*Session {
	r.mu.RLock()
	entry, ok := r.rooms[room]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	entry.mu.RLock()
	sessions := make([]*Session, 0, len(entry.sessions))
	for s := range entry.sessions {
		sessions = append(sessions, s)
	}
	entry.mu.RUnlock()
	return sessions
}

// OnlineUsers 去重後排序的在線 username 名單
// 同一人多開分頁只算一次
func (r *RoomRegistry) OnlineUsers(room string) []string {
	seen := make(map[string]struct{})
	for _, s := range r.Snapshot(room) {
		seen[s.Username] = struct{}{}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// OnlineUserIDs 去重後的在線 user id, 離線通知比對用
func (r *RoomRegistry) OnlineUserIDs(room string) []string {
	seen := make(map[string]struct{})
	for _, s := range r.Snapshot(room) {
		seen[s.UserID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}
