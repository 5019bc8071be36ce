package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 測試 Join/Leave: 第一次移除才回 true, 之後都是 false
func TestRoomRegistry_JoinLeave(t *testing.T) {
	reg := NewRoomRegistry()
	s := NewSession("general", "u-1", "alice", nil)

	reg.Join("general", s)
	assert.Len(t, reg.Snapshot("general"), 1)

	assert.True(t, reg.Leave("general", s))
	assert.False(t, reg.Leave("general", s))
	assert.Empty(t, reg.Snapshot("general"))

	// 沒掛過的房間也只是回 false
	assert.False(t, reg.Leave("nowhere", s))
}

// 測試 OnlineUsers: 同一人多開分頁只算一次, 名單排序
func TestRoomRegistry_OnlineUsersDedup(t *testing.T) {
	reg := NewRoomRegistry()
	reg.Join("general", NewSession("general", "u-2", "bob", nil))
	reg.Join("general", NewSession("general", "u-1", "alice", nil))
	reg.Join("general", NewSession("general", "u-1", "alice", nil))

	assert.Equal(t, []string{"alice", "bob"}, reg.OnlineUsers("general"))
	assert.Len(t, reg.Snapshot("general"), 3)
	assert.ElementsMatch(t, []string{"u-1", "u-2"}, reg.OnlineUserIDs("general"))
}

// 測試空房回收: 全員離開後再進來還是乾淨的
func TestRoomRegistry_PruneEmptyRoom(t *testing.T) {
	reg := NewRoomRegistry()
	a := NewSession("general", "u-1", "alice", nil)
	b := NewSession("general", "u-2", "bob", nil)
	reg.Join("general", a)
	reg.Join("general", b)

	reg.Leave("general", a)
	reg.Leave("general", b)
	assert.Nil(t, reg.Snapshot("general"))
	assert.Empty(t, reg.OnlineUsers("general"))

	c := NewSession("general", "u-3", "carol", nil)
	reg.Join("general", c)
	assert.Equal(t, []string{"carol"}, reg.OnlineUsers("general"))
}

// 測試房間隔離: 名單不會串房
func TestRoomRegistry_RoomIsolation(t *testing.T) {
	reg := NewRoomRegistry()
	reg.Join("general", NewSession("general", "u-1", "alice", nil))
	reg.Join("ops", NewSession("ops", "u-2", "bob", nil))

	assert.Equal(t, []string{"alice"}, reg.OnlineUsers("general"))
	assert.Equal(t, []string{"bob"}, reg.OnlineUsers("ops"))
}
