package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"portal_chat_service/internal/chat/domain"
	"portal_chat_service/internal/chat/repository"
	"portal_chat_service/pkg"
	"portal_chat_service/pkg/database"
	errprocess "portal_chat_service/pkg/err"
	"portal_chat_service/pkg/logger"
)

// roomCacheKeyPrefix redis key: room_info:{slug}
const roomCacheKeyPrefix = "room_info:"

// roomCacheTTL 房間資料快取壽命, 封存與成員變動最多晚這麼久生效
const roomCacheTTL = 30 * time.Second

// RoomUseCase 管進出房間與在線/打字名單
type RoomUseCase struct {
	registry     *RoomRegistry
	broadcast    *Broadcaster
	typing       *TypingBoard
	portalRepo   repository.PortalRepository
	presenceRepo repository.PresenceRepository
	roomCache    database.RedisRepository[domain.Room]
}

// NewRoomUseCase init room use case, presenceRepo 與 roomCache 可為 nil
func NewRoomUseCase(
	registry *RoomRegistry,
	broadcast *Broadcaster,
	typing *TypingBoard,
	portalRepo repository.PortalRepository,
	presenceRepo repository.PresenceRepository,
	roomCache database.RedisRepository[domain.Room],
) *RoomUseCase {
	return &RoomUseCase{
		registry:     registry,
		broadcast:    broadcast,
		typing:       typing,
		portalRepo:   portalRepo,
		presenceRepo: presenceRepo,
		roomCache:    roomCache,
	}
}

// Join 檢查房間與成員資格, 掛進註冊表並廣播在線名單
func (uc *RoomUseCase) Join(ctx context.Context, s *Session) error {
	// 1. 房間存在且沒封存
	room, err := uc.findRoom(ctx, s.Room)
	if err != nil {
		return err
	}
	if room == nil {
		return domain.ErrNotFound
	}
	if room.Archived {
		return domain.ErrRoomArchived
	}

	// 2. 成員資格
	if !room.HasMember(s.UserID) {
		return domain.ErrForbidden
	}

	// 3. 註冊並轉 Joined
	uc.registry.Join(s.Room, s)
	s.SetState(StateJoined)

	// 4. redis 鏡像失敗不擋人
	if uc.presenceRepo != nil {
		if err := uc.presenceRepo.AddOnline(ctx, s.Room, s.Username); err != nil {
			logger.Log.Warn("presence mirror add failed",
				zap.String("room", s.Room), zap.String("err", err.Error()))
		}
	}

	uc.broadcastOnline(s.Room)
	return nil
}

// Leave 下線, 可重複呼叫
func (uc *RoomUseCase) Leave(ctx context.Context, s *Session) {
	if !uc.registry.Leave(s.Room, s) {
		return
	}

	// 同一人還有別的分頁開著就不動名單
	if !pkg.Contains(uc.registry.OnlineUsers(s.Room), s.Username) {
		uc.typing.Clear(s.Room, s.Username)
		if uc.presenceRepo != nil {
			if err := uc.presenceRepo.RemoveOnline(ctx, s.Room, s.Username); err != nil {
				logger.Log.Warn("presence mirror remove failed",
					zap.String("room", s.Room), zap.String("err", err.Error()))
			}
		}
	}

	uc.broadcastOnline(s.Room)
}

// TypingStatus 更新打字狀態並廣播, 每個收件人拿到的名單都排除自己
func (uc *RoomUseCase) TypingStatus(s *Session, isTyping bool) {
	if isTyping {
		uc.typing.Set(s.Room, s.Username)
	} else {
		uc.typing.Clear(s.Room, s.Username)
	}

	users := uc.typing.Typing(s.Room)
	uc.broadcast.PublishEach(s.Room, func(recipient *Session) *domain.WSEvent {
		filtered := make([]string, 0, len(users))
		for _, u := range users {
			if u != recipient.Username {
				filtered = append(filtered, u)
			}
		}
		return &domain.WSEvent{
			Type:    domain.EventTypingUpdate,
			Payload: domain.TypingUpdatePayload{Users: filtered},
		}
	})
}

// CheckAccess REST 歷史查詢的守門, 封存房間歷史仍可讀
func (uc *RoomUseCase) CheckAccess(ctx context.Context, slug, userID string) (*domain.Room, error) {
	room, err := uc.findRoom(ctx, slug)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrNotFound
	}
	if !room.HasMember(userID) {
		return nil, domain.ErrForbidden
	}
	return room, nil
}

// RoomsForUser 房間清單, REST 用
func (uc *RoomUseCase) RoomsForUser(ctx context.Context, userID string) ([]domain.Room, error) {
	rooms, err := uc.portalRepo.ListRoomsForUser(ctx, userID)
	if err != nil {
		return nil, errprocess.Wrap("list rooms", err)
	}
	return rooms, nil
}

// OnlineCount 去重後的在線人數
func (uc *RoomUseCase) OnlineCount(room string) int {
	return len(uc.registry.OnlineUsers(room))
}

func (uc *RoomUseCase) findRoom(ctx context.Context, slug string) (*domain.Room, error) {
	if uc.roomCache != nil {
		if cached, err := uc.roomCache.Get(ctx, roomCacheKeyPrefix+slug); err == nil {
			return &cached, nil
		}
	}

	room, err := uc.portalRepo.FindRoom(ctx, slug)
	if err != nil {
		return nil, errprocess.Wrap("find room", err)
	}
	if room == nil {
		return nil, nil
	}

	if uc.roomCache != nil {
		if err := uc.roomCache.Set(ctx, roomCacheKeyPrefix+slug, *room, roomCacheTTL); err != nil {
			logger.Log.Debug("room cache set failed", zap.String("err", err.Error()))
		}
	}
	return room, nil
}

func (uc *RoomUseCase) broadcastOnline(room string) {
	uc.broadcast.Publish(room, domain.WSEvent{
		Type:    domain.EventOnlineUsers,
		Payload: domain.OnlineUsersPayload{Users: uc.registry.OnlineUsers(room)},
	})
}
