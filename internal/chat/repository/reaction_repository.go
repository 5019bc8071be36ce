package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portal_chat_service/internal/chat/domain"
)

// ReactionRepository definition reaction persistence
type ReactionRepository interface {
	// Toggle 同一人同訊息同 emoji 來回切換, added 表示這次是加上去
	Toggle(ctx context.Context, row domain.Reaction) (added bool, err error)
	// ListByMessage 單一訊息的所有反應
	ListByMessage(ctx context.Context, messageID string) ([]domain.Reaction, error)
	// ListByMessages 批次撈多則訊息的反應, 分頁用
	ListByMessages(ctx context.Context, messageIDs []string) ([]domain.Reaction, error)
	// EnsureIndexes 啟動時建 unique index
	EnsureIndexes(ctx context.Context) error
}

type chatReactionRepository struct {
	coll *mongo.Collection
}

// NewMongoReactionRepository create a ReactionRepository
func NewMongoReactionRepository(db *mongo.Database) ReactionRepository {
	return &chatReactionRepository{
		coll: db.Collection("chat_reactions"),
	}
}

func (r *chatReactionRepository) EnsureIndexes(ctx context.Context) error {
	// unique index 讓兩條連線同時按同一顆 emoji 也只落一筆
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "message_id", Value: 1},
			{Key: "emoji", Value: 1},
			{Key: "user_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Toggle 先刪, 刪到代表原本有 -> 這次是移除
// 沒刪到就插入, 撞 unique index 表示並發下別人剛插入, 再刪一次收斂成移除
func (r *chatReactionRepository) Toggle(ctx context.Context, row domain.Reaction) (bool, error) {
	filter := bson.M{
		"message_id": row.MessageID,
		"emoji":      row.Emoji,
		"user_id":    row.UserID,
	}

	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = r.coll.InsertOne(ctx, row)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if _, delErr := r.coll.DeleteOne(ctx, filter); delErr != nil {
				return false, delErr
			}
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *chatReactionRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.Reaction, error) {
	cur, err := r.coll.Find(ctx, bson.M{"message_id": messageID})
	if err != nil {
		return nil, err
	}
	var rows []domain.Reaction
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chatReactionRepository) ListByMessages(ctx context.Context, messageIDs []string) ([]domain.Reaction, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"message_id": bson.M{"$in": messageIDs}})
	if err != nil {
		return nil, err
	}
	var rows []domain.Reaction
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
