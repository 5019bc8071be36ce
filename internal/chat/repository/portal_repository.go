package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"portal_chat_service/internal/chat/domain"
)

// PortalRepository definition read portal rooms and members
// schema 屬於入口網站, 這裡只讀不遷移
type PortalRepository interface {
	FindRoom(ctx context.Context, slug string) (*domain.Room, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]domain.Room, error)
}

type portalRepository struct {
	db *pgxpool.Pool
}

// NewPortalRepository create a PortalRepository
func NewPortalRepository(db *pgxpool.Pool) PortalRepository {
	return &portalRepository{db: db}
}

// FindRoom 撈房間與成員, 找不到回 (nil, nil)
func (r *portalRepository) FindRoom(ctx context.Context, slug string) (*domain.Room, error) {
	row := r.db.QueryRow(ctx,
		"SELECT id, slug, name, is_archived FROM room_room WHERE slug = $1", slug)

	var roomID int64
	var room domain.Room
	if err := row.Scan(&roomID, &room.Slug, &room.Name, &room.Archived); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT u.id::text, u.username
		   FROM room_room_users ru
		   JOIN auth_user u ON u.id = ru.user_id
		  WHERE ru.room_id = $1
		  ORDER BY u.username`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.RoomMember
		if err := rows.Scan(&m.UserID, &m.Username); err != nil {
			return nil, err
		}
		room.Members = append(room.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRoomsForUser 使用者是成員的房間加上無成員限制的開放房間
func (r *portalRepository) ListRoomsForUser(ctx context.Context, userID string) ([]domain.Room, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.slug, r.name, r.is_archived
		   FROM room_room r
		  WHERE EXISTS (SELECT 1 FROM room_room_users ru WHERE ru.room_id = r.id AND ru.user_id::text = $1)
		     OR NOT EXISTS (SELECT 1 FROM room_room_users ru WHERE ru.room_id = r.id)
		  ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Room
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.Slug, &room.Name, &room.Archived); err != nil {
			return nil, err
		}
		result = append(result, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
