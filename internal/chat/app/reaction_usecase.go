package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portal_chat_service/internal/chat/domain"
	"portal_chat_service/internal/chat/repository"
	errprocess "portal_chat_service/pkg/err"
	"portal_chat_service/pkg/logger"
)

// ReactionUseCase emoji 反應切換與統計廣播
// add_reaction 和 remove_reaction 走同一條 toggle, 連按兩次回到原狀
type ReactionUseCase struct {
	msgRepo   repository.MessageRepository
	reactRepo repository.ReactionRepository
	archive   repository.ArchivePublisher
	broadcast *Broadcaster
}

// NewReactionUseCase init reaction use case, archive 可為 nil
func NewReactionUseCase(
	msgRepo repository.MessageRepository,
	reactRepo repository.ReactionRepository,
	archive repository.ArchivePublisher,
	broadcast *Broadcaster,
) *ReactionUseCase {
	return &ReactionUseCase{
		msgRepo:   msgRepo,
		reactRepo: reactRepo,
		archive:   archive,
		broadcast: broadcast,
	}
}

// Toggle 切換反應並廣播整包統計, 每個收件人的統計各算一份
func (uc *ReactionUseCase) Toggle(ctx context.Context, s *Session, p domain.ReactionPayload) error {
	if p.MessageID == "" || p.Emoji == "" {
		return domain.ErrBadPayload
	}

	// 1. 目標要在同一個房間且還沒刪
	msg, err := uc.msgRepo.FindByID(ctx, p.MessageID)
	if err != nil {
		return errprocess.Wrap("find message", err)
	}
	if msg == nil || msg.Room != s.Room {
		return domain.ErrNotFound
	}
	if msg.Deleted {
		return domain.ErrAlreadyDeleted
	}

	// 2. toggle 落地
	row := domain.Reaction{
		MessageID: p.MessageID,
		Emoji:     p.Emoji,
		UserID:    s.UserID,
		Username:  s.Username,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := uc.reactRepo.Toggle(ctx, row); err != nil {
		return errprocess.Wrap("toggle reaction", err)
	}

	// 3. 全量重算後廣播
	rows, err := uc.reactRepo.ListByMessage(ctx, p.MessageID)
	if err != nil {
		return errprocess.Wrap("list reactions", err)
	}
	uc.broadcast.PublishEach(s.Room, func(recipient *Session) *domain.WSEvent {
		return &domain.WSEvent{
			Type: domain.EventReactionUpdate,
			Payload: domain.ReactionUpdatePayload{
				MessageID: p.MessageID,
				Reactions: domain.AggregateReactions(rows, recipient.UserID),
			},
		}
	})

	uc.emitArchive(s.Room, p.MessageID, s.UserID)
	return nil
}

func (uc *ReactionUseCase) emitArchive(room, messageID, actorID string) {
	if uc.archive == nil {
		return
	}
	ev := domain.ArchiveEvent{
		ID:        uuid.New().String(),
		Kind:      domain.ArchiveReactionToggled,
		Room:      room,
		MessageID: messageID,
		ActorID:   actorID,
		At:        time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncEmitTimeout)
		defer cancel()
		if err := uc.archive.Emit(ctx, ev); err != nil {
			logger.Log.Warn("archive emit failed",
				zap.String("kind", string(ev.Kind)), zap.String("err", err.Error()))
		}
	}()
}
