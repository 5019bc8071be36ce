package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// onlineKeyPrefix redis set key: online_users:{room}
const onlineKeyPrefix = "online_users:"

// PresenceRepository definition redis online users mirror
// 真相在各節點的註冊表, redis 只是跨服務可見的鏡像, 寫失敗不影響聊天
type PresenceRepository interface {
	AddOnline(ctx context.Context, room, username string) error
	RemoveOnline(ctx context.Context, room, username string) error
	OnlineUsers(ctx context.Context, room string) ([]string, error)
}

type presenceRepository struct {
	client *redis.Client
}

// NewPresenceRepository create a PresenceRepository
func NewPresenceRepository(client *redis.Client) PresenceRepository {
	return &presenceRepository{client: client}
}

func onlineKey(room string) string {
	return fmt.Sprintf("%s%s", onlineKeyPrefix, room)
}

func (r *presenceRepository) AddOnline(ctx context.Context, room, username string) error {
	return r.client.SAdd(ctx, onlineKey(room), username).Err()
}

func (r *presenceRepository) RemoveOnline(ctx context.Context, room, username string) error {
	return r.client.SRem(ctx, onlineKey(room), username).Err()
}

func (r *presenceRepository) OnlineUsers(ctx context.Context, room string) ([]string, error) {
	return r.client.SMembers(ctx, onlineKey(room)).Result()
}
