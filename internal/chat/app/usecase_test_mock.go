package app

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"portal_chat_service/internal/chat/domain"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Create moke insert message
func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByID moke find message by id
func (m *MockMessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByIDs moke batch find messages
func (m *MockMessageRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Message, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) != nil {
		return args.Get(0).(map[string]*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// Edit moke edit message
func (m *MockMessageRepository) Edit(ctx context.Context, id, content string, editedAt time.Time) error {
	args := m.Called(ctx, id, content, editedAt)
	return args.Error(0)
}

// SoftDelete moke soft delete message
func (m *MockMessageRepository) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// PageBefore moke page messages
func (m *MockMessageRepository) PageBefore(ctx context.Context, room, beforeID string, limit int) ([]domain.Message, bool, error) {
	args := m.Called(ctx, room, beforeID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

// CountAfter moke count unread
func (m *MockMessageRepository) CountAfter(ctx context.Context, room, afterID string) (int64, error) {
	args := m.Called(ctx, room, afterID)
	return args.Get(0).(int64), args.Error(1)
}

// EnsureIndexes moke create indexes
func (m *MockMessageRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockReactionRepository Mock ReactionRepository
type MockReactionRepository struct {
	mock.Mock
}

// Toggle moke toggle reaction
func (m *MockReactionRepository) Toggle(ctx context.Context, row domain.Reaction) (bool, error) {
	args := m.Called(ctx, row)
	return args.Bool(0), args.Error(1)
}

// ListByMessage moke list reactions
func (m *MockReactionRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.Reaction, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Reaction), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListByMessages moke batch list reactions
func (m *MockReactionRepository) ListByMessages(ctx context.Context, messageIDs []string) ([]domain.Reaction, error) {
	args := m.Called(ctx, messageIDs)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Reaction), args.Error(1)
	}
	return nil, args.Error(1)
}

// EnsureIndexes moke create indexes
func (m *MockReactionRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockReadStatusRepository Mock ReadStatusRepository
type MockReadStatusRepository struct {
	mock.Mock
}

// Upsert moke upsert read pointer
func (m *MockReadStatusRepository) Upsert(ctx context.Context, userID, roomSlug, messageID string) error {
	args := m.Called(ctx, userID, roomSlug, messageID)
	return args.Error(0)
}

// Find moke find read pointer
func (m *MockReadStatusRepository) Find(ctx context.Context, userID, roomSlug string) (*domain.ReadStatus, error) {
	args := m.Called(ctx, userID, roomSlug)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ReadStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

// AutoMigrate moke migrate table
func (m *MockReadStatusRepository) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

// MockPortalRepository Mock PortalRepository
type MockPortalRepository struct {
	mock.Mock
}

// FindRoom moke find portal room
func (m *MockPortalRepository) FindRoom(ctx context.Context, slug string) (*domain.Room, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListRoomsForUser moke list rooms
func (m *MockPortalRepository) ListRoomsForUser(ctx context.Context, userID string) ([]domain.Room, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPresenceRepository Mock PresenceRepository
type MockPresenceRepository struct {
	mock.Mock
}

// AddOnline moke add online mirror
func (m *MockPresenceRepository) AddOnline(ctx context.Context, room, username string) error {
	args := m.Called(ctx, room, username)
	return args.Error(0)
}

// RemoveOnline moke remove online mirror
func (m *MockPresenceRepository) RemoveOnline(ctx context.Context, room, username string) error {
	args := m.Called(ctx, room, username)
	return args.Error(0)
}

// OnlineUsers moke read online mirror
func (m *MockPresenceRepository) OnlineUsers(ctx context.Context, room string) ([]string, error) {
	args := m.Called(ctx, room)
	if args.Get(0) != nil {
		return args.Get(0).([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAttachmentStore Mock AttachmentStore
type MockAttachmentStore struct {
	mock.Mock
}

// UploadBytes moke upload object
func (m *MockAttachmentStore) UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) error {
	args := m.Called(ctx, objectName, data, contentType)
	return args.Error(0)
}

// PresignGetURL moke presign url
func (m *MockAttachmentStore) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

// RemoveObject moke remove object
func (m *MockAttachmentStore) RemoveObject(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

// MockArchivePublisher Mock ArchivePublisher
type MockArchivePublisher struct {
	mock.Mock
}

// Emit moke emit archive event
func (m *MockArchivePublisher) Emit(ctx context.Context, ev domain.ArchiveEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// MockOfflineNotifier Mock OfflineNotifier
type MockOfflineNotifier struct {
	mock.Mock
}

// NotifyOffline moke enqueue offline notify
func (m *MockOfflineNotifier) NotifyOffline(ctx context.Context, job domain.OfflineNotification) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}
