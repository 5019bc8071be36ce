package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portal_chat_service/internal/chat/domain"
)

// MessageRepository definition message persistence
type MessageRepository interface {
	// Create 寫入訊息並回填 msg.ID
	Create(ctx context.Context, msg *domain.Message) error
	// FindByID 查單筆, 找不到回 (nil, nil)
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	// FindByIDs 批次查, 回 hex id -> message
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Message, error)
	// Edit 更新內容與編輯時間
	Edit(ctx context.Context, id, content string, editedAt time.Time) error
	// SoftDelete 清掉內容與附件但保留文件
	SoftDelete(ctx context.Context, id string) error
	// PageBefore 撈 beforeID 之前的訊息, 新到舊, 回傳是否還有更舊的
	PageBefore(ctx context.Context, room, beforeID string, limit int) ([]domain.Message, bool, error)
	// CountAfter 數 afterID 之後的未刪訊息, afterID 為空數整房
	CountAfter(ctx context.Context, room, afterID string) (int64, error)
	// EnsureIndexes 啟動時建索引
	EnsureIndexes(ctx context.Context) error
}

type chatMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &chatMessageRepository{
		coll: db.Collection("chat_messages"),
	}
}

func (r *chatMessageRepository) EnsureIndexes(ctx context.Context) error {
	// 分頁走 (room, _id) 反向掃
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room", Value: 1}, {Key: "_id", Value: -1}},
	})
	return err
}

func (r *chatMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	res, err := r.coll.InsertOne(ctx, msg)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}
	return nil
}

func (r *chatMessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// 格式不對當作不存在
		return nil, nil
	}
	var msg domain.Message
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *chatMessageRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Message, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	result := make(map[string]*domain.Message, len(oids))
	if len(oids) == 0 {
		return result, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	for i := range msgs {
		result[msgs[i].ID.Hex()] = &msgs[i]
	}
	return result, nil
}

func (r *chatMessageRepository) Edit(ctx context.Context, id, content string, editedAt time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"content": content, "edited_at": editedAt},
	})
	return err
}

func (r *chatMessageRepository) SoftDelete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	// 文件保留, 串位與回覆指向都還在
	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set":   bson.M{"deleted": true, "content": ""},
		"$unset": bson.M{"attachment": ""},
	})
	return err
}

func (r *chatMessageRepository) PageBefore(ctx context.Context, room, beforeID string, limit int) ([]domain.Message, bool, error) {
	filter := bson.M{"room": room}
	if beforeID != "" {
		oid, err := primitive.ObjectIDFromHex(beforeID)
		if err != nil {
			// 錨點格式不對直接當不存在
			return nil, false, domain.ErrNotFound
		}
		filter["_id"] = bson.M{"$lt": oid}
	}

	// 多撈一筆判斷 has_more
	opts := options.Find()
	opts.SetSort(bson.M{"_id": -1})
	opts.SetLimit(int64(limit + 1))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, false, err
	}

	hasMore := false
	if len(msgs) > limit {
		hasMore = true
		msgs = msgs[:limit]
	}
	return msgs, hasMore, nil
}

func (r *chatMessageRepository) CountAfter(ctx context.Context, room, afterID string) (int64, error) {
	filter := bson.M{"room": room, "deleted": false}
	if afterID != "" {
		oid, err := primitive.ObjectIDFromHex(afterID)
		if err != nil {
			return 0, domain.ErrNotFound
		}
		filter["_id"] = bson.M{"$gt": oid}
	}
	return r.coll.CountDocuments(ctx, filter)
}
