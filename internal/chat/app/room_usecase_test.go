package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"portal_chat_service/internal/chat/domain"
)

// 測試 Join: 成員進房, 全房收 online_users_update
func TestRoomUseCase_Join(t *testing.T) {
	ctx := context.Background()
	reg := NewRoomRegistry()

	mockPortal := new(MockPortalRepository)
	mockPortal.On("FindRoom", ctx, "general").Return(&domain.Room{
		Slug: "general",
		Name: "General",
		Members: []domain.RoomMember{
			{UserID: "u-1", Username: "alice"},
			{UserID: "u-2", Username: "bob"},
		},
	}, nil)

	uc := &RoomUseCase{
		registry:   reg,
		broadcast:  NewBroadcaster(reg),
		typing:     NewTypingBoard(0),
		portalRepo: mockPortal,
	}

	alice := NewSession("general", "u-1", "alice", nil)
	err := uc.Join(ctx, alice)
	assert.NoError(t, err)
	assert.Equal(t, StateJoined, alice.State())

	ev := nextEvent(t, alice)
	assert.Equal(t, domain.EventOnlineUsers, ev.Type)
	var op domain.OnlineUsersPayload
	decodePayload(t, ev, &op)
	assert.Equal(t, []string{"alice"}, op.Users)

	// 第二人進來, 兩邊都收到新名單
	bob := NewSession("general", "u-2", "bob", nil)
	err = uc.Join(ctx, bob)
	assert.NoError(t, err)

	ev = nextEvent(t, alice)
	decodePayload(t, ev, &op)
	assert.Equal(t, []string{"alice", "bob"}, op.Users)
	ev = nextEvent(t, bob)
	decodePayload(t, ev, &op)
	assert.Equal(t, []string{"alice", "bob"}, op.Users)
}

// 測試 Join: 封存房拒絕連線
func TestRoomUseCase_JoinArchivedRoom(t *testing.T) {
	ctx := context.Background()
	reg := NewRoomRegistry()

	mockPortal := new(MockPortalRepository)
	mockPortal.On("FindRoom", ctx, "old-incident").Return(&domain.Room{
		Slug:     "old-incident",
		Name:     "Old Incident",
		Archived: true,
	}, nil)

	uc := &RoomUseCase{
		registry:   reg,
		broadcast:  NewBroadcaster(reg),
		typing:     NewTypingBoard(0),
		portalRepo: mockPortal,
	}

	s := NewSession("old-incident", "u-1", "alice", nil)
	err := uc.Join(ctx, s)
	assert.ErrorIs(t, err, domain.ErrRoomArchived)
	assert.Empty(t, reg.Snapshot("old-incident"))
}

// 測試 Join: 名單外的人進不了私房
func TestRoomUseCase_JoinNotMember(t *testing.T) {
	ctx := context.Background()
	reg := NewRoomRegistry()

	mockPortal := new(MockPortalRepository)
	mockPortal.On("FindRoom", ctx, "ops-private").Return(&domain.Room{
		Slug: "ops-private",
		Name: "Ops Private",
		Members: []domain.RoomMember{
			{UserID: "u-1", Username: "alice"},
		},
	}, nil)

	uc := &RoomUseCase{
		registry:   reg,
		broadcast:  NewBroadcaster(reg),
		typing:     NewTypingBoard(0),
		portalRepo: mockPortal,
	}

	s := NewSession("ops-private", "u-9", "mallory", nil)
	err := uc.Join(ctx, s)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// 測試 Join: 查無此房
func TestRoomUseCase_JoinUnknownRoom(t *testing.T) {
	ctx := context.Background()
	reg := NewRoomRegistry()

	mockPortal := new(MockPortalRepository)
	mockPortal.On("FindRoom", ctx, "nope").Return(nil, nil)

	uc := &RoomUseCase{
		registry:   reg,
		broadcast:  NewBroadcaster(reg),
		typing:     NewTypingBoard(0),
		portalRepo: mockPortal,
	}

	s := NewSession("nope", "u-1", "alice", nil)
	err := uc.Join(ctx, s)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// 測試 Leave: 同人多分頁, 最後一個斷線才從名單消失
func TestRoomUseCase_LeaveMultiSession(t *testing.T) {
	ctx := context.Background()
	reg := NewRoomRegistry()

	mockPortal := new(MockPortalRepository)
	mockPortal.On("FindRoom", ctx, "general").Return(&domain.Room{Slug: "general", Name: "General"}, nil)

	uc := &RoomUseCase{
		registry:   reg,
		broadcast:  NewBroadcaster(reg),
		typing:     NewTypingBoard(0),
		portalRepo: mockPortal,
	}

	tab1 := NewSession("general", "u-1", "alice", nil)
	tab2 := NewSession("general", "u-1", "alice", nil)
	bob := NewSession("general", "u-2", "bob", nil)
	assert.NoError(t, uc.Join(ctx, tab1))
	assert.NoError(t, uc.Join(ctx, tab2))
	assert.NoError(t, uc.Join(ctx, bob))
	drainEvents(tab1)
	drainEvents(tab2)
	drainEvents(bob)

	// 關掉一個分頁, alice 還在線
	uc.Leave(ctx, tab1)
	ev := nextEvent(t, bob)
	assert.Equal(t, domain.EventOnlineUsers, ev.Type)
	var op domain.OnlineUsersPayload
	decodePayload(t, ev, &op)
	assert.Equal(t, []string{"alice", "bob"}, op.Users)

	// 最後一個分頁也關了才消失
	uc.Leave(ctx, tab2)
	ev = nextEvent(t, bob)
	decodePayload(t, ev, &op)
	assert.Equal(t, []string{"bob"}, op.Users)

	// 重複 Leave 不會再廣播
	uc.Leave(ctx, tab2)
	assertNoEvent(t, bob)
}

// 測試 TypingStatus: 打字名單不回給打字的人自己
func TestRoomUseCase_TypingStatus(t *testing.T) {
	reg := NewRoomRegistry()
	alice := joinedSession(reg, "general", "u-1", "alice")
	bob := joinedSession(reg, "general", "u-2", "bob")

	uc := &RoomUseCase{
		registry:  reg,
		broadcast: NewBroadcaster(reg),
		typing:    NewTypingBoard(0),
	}

	uc.TypingStatus(alice, true)

	ev := nextEvent(t, bob)
	assert.Equal(t, domain.EventTypingUpdate, ev.Type)
	var tp domain.TypingUpdatePayload
	decodePayload(t, ev, &tp)
	assert.Equal(t, []string{"alice"}, tp.Users)
	assertNoEvent(t, alice)

	// 停止打字, 名單清空
	uc.TypingStatus(alice, false)
	ev = nextEvent(t, bob)
	decodePayload(t, ev, &tp)
	assert.Empty(t, tp.Users)
}

// drainEvents 清掉 buffer, 測試只看後面的事件
func drainEvents(s *Session) {
	for {
		select {
		case <-s.Frames():
		default:
			return
		}
	}
}
