package unit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"portal_chat_service/internal/chat/app"
	"portal_chat_service/internal/chat/domain"
	"portal_chat_service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// === 以下為假的 mock repository，用來做 TDD ===
type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
func (m *mockMessageRepo) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}
func (m *mockMessageRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Message, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Message), args.Error(1)
}
func (m *mockMessageRepo) Edit(ctx context.Context, id, content string, editedAt time.Time) error {
	args := m.Called(ctx, id, content, editedAt)
	return args.Error(0)
}
func (m *mockMessageRepo) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *mockMessageRepo) PageBefore(ctx context.Context, room, beforeID string, limit int) ([]domain.Message, bool, error) {
	args := m.Called(ctx, room, beforeID, limit)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.Message), args.Bool(1), args.Error(2)
}
func (m *mockMessageRepo) CountAfter(ctx context.Context, room, afterID string) (int64, error) {
	args := m.Called(ctx, room, afterID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockMessageRepo) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockReactionRepo struct {
	mock.Mock
}

func (m *mockReactionRepo) Toggle(ctx context.Context, row domain.Reaction) (bool, error) {
	args := m.Called(ctx, row)
	return args.Bool(0), args.Error(1)
}
func (m *mockReactionRepo) ListByMessage(ctx context.Context, messageID string) ([]domain.Reaction, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reaction), args.Error(1)
}
func (m *mockReactionRepo) ListByMessages(ctx context.Context, messageIDs []string) ([]domain.Reaction, error) {
	args := m.Called(ctx, messageIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reaction), args.Error(1)
}
func (m *mockReactionRepo) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// readEvent 從 session 的出站緩衝解一個事件
func readEvent(t *testing.T, s *app.Session) (domain.Event, json.RawMessage) {
	t.Helper()
	select {
	case frame := <-s.Frames():
		var ev struct {
			Type    domain.Event    `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		assert.NoError(t, json.Unmarshal(frame, &ev))
		return ev.Type, ev.Payload
	default:
		t.Fatal("no event buffered")
		return "", nil
	}
}

// === 測試 Send 流程 ===
func TestMessageUseCase_SendFlow(t *testing.T) {
	ctx := context.Background()
	registry := app.NewRoomRegistry()
	broadcast := app.NewBroadcaster(registry)

	alice := app.NewSession("general", "u-1", "alice", nil)
	bob := app.NewSession("general", "u-2", "bob", nil)
	registry.Join("general", alice)
	registry.Join("general", bob)

	msgRepo := new(mockMessageRepo)
	msgRepo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Message).ID = primitive.NewObjectID()
	}).Return(nil)

	usecase := app.NewMessageUseCase(msgRepo, new(mockReactionRepo), nil, nil, nil, nil, nil,
		registry, broadcast, config.RoomConfig{})

	err := usecase.Send(ctx, alice, domain.SendMessagePayload{Content: "Hello!", CorrelationID: "c1"})
	assert.NoError(t, err)

	// 房間每個人都收到廣播
	evType, raw := readEvent(t, bob)
	assert.Equal(t, domain.EventNewMessage, evType)
	var np domain.NewMessagePayload
	assert.NoError(t, json.Unmarshal(raw, &np))
	assert.Equal(t, "Hello!", np.Message.Content)

	// 發送者多收一個 ack
	evType, _ = readEvent(t, alice)
	assert.Equal(t, domain.EventNewMessage, evType)
	evType, raw = readEvent(t, alice)
	assert.Equal(t, domain.EventMessageAck, evType)
	var ack domain.AckPayload
	assert.NoError(t, json.Unmarshal(raw, &ack))
	assert.Equal(t, "c1", ack.CorrelationID)

	msgRepo.AssertExpectations(t)
}

// === 測試空訊息被擋下 ===
func TestMessageUseCase_SendRejectsEmpty(t *testing.T) {
	ctx := context.Background()
	registry := app.NewRoomRegistry()
	alice := app.NewSession("general", "u-1", "alice", nil)
	registry.Join("general", alice)

	msgRepo := new(mockMessageRepo)
	usecase := app.NewMessageUseCase(msgRepo, new(mockReactionRepo), nil, nil, nil, nil, nil,
		registry, app.NewBroadcaster(registry), config.RoomConfig{})

	err := usecase.Send(ctx, alice, domain.SendMessagePayload{Content: "  \n "})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	msgRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// === 測試反應切換流程 ===
func TestReactionUseCase_ToggleFlow(t *testing.T) {
	ctx := context.Background()
	registry := app.NewRoomRegistry()
	broadcast := app.NewBroadcaster(registry)

	alice := app.NewSession("general", "u-1", "alice", nil)
	bob := app.NewSession("general", "u-2", "bob", nil)
	registry.Join("general", alice)
	registry.Join("general", bob)

	target := &domain.Message{ID: primitive.NewObjectID(), Room: "general", UserID: "u-1"}

	msgRepo := new(mockMessageRepo)
	msgRepo.On("FindByID", ctx, target.ID.Hex()).Return(target, nil)
	reactRepo := new(mockReactionRepo)
	reactRepo.On("Toggle", ctx, mock.Anything).Return(true, nil)
	reactRepo.On("ListByMessage", ctx, target.ID.Hex()).Return([]domain.Reaction{
		{MessageID: target.ID.Hex(), Emoji: "👍", UserID: "u-2", Username: "bob"},
	}, nil)

	usecase := app.NewReactionUseCase(msgRepo, reactRepo, nil, broadcast)
	err := usecase.Toggle(ctx, bob, domain.ReactionPayload{MessageID: target.ID.Hex(), Emoji: "👍"})
	assert.NoError(t, err)

	// 統計一樣, reacted_by_current_user 各自計算
	var ru domain.ReactionUpdatePayload
	evType, raw := readEvent(t, bob)
	assert.Equal(t, domain.EventReactionUpdate, evType)
	assert.NoError(t, json.Unmarshal(raw, &ru))
	assert.Equal(t, 1, ru.Reactions["👍"].Count)
	assert.True(t, ru.Reactions["👍"].ReactedByCurrentUser)

	evType, raw = readEvent(t, alice)
	assert.Equal(t, domain.EventReactionUpdate, evType)
	assert.NoError(t, json.Unmarshal(raw, &ru))
	assert.False(t, ru.Reactions["👍"].ReactedByCurrentUser)

	// 對已刪除的訊息按反應要被擋
	deleted := &domain.Message{ID: primitive.NewObjectID(), Room: "general", Deleted: true}
	msgRepo.On("FindByID", ctx, deleted.ID.Hex()).Return(deleted, nil)
	err = usecase.Toggle(ctx, bob, domain.ReactionPayload{MessageID: deleted.ID.Hex(), Emoji: "👍"})
	assert.ErrorIs(t, err, domain.ErrAlreadyDeleted)
}
