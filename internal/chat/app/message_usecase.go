package app

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portal_chat_service/internal/chat/domain"
	"portal_chat_service/internal/chat/repository"
	"portal_chat_service/pkg"
	"portal_chat_service/pkg/config"
	errprocess "portal_chat_service/pkg/err"
	"portal_chat_service/pkg/logger"
)

// asyncEmitTimeout kafka 與 rabbitmq 側路的逾時
const asyncEmitTimeout = 5 * time.Second

// defaultHistoryPageSize 沒設定時的分頁大小
const defaultHistoryPageSize = 50

// notifyPreviewRunes 離線通知引文最多保留的字數
const notifyPreviewRunes = 50

// MessageUseCase 訊息寫入與讀取
// 寫入一律先落地再廣播最後回 ack, 同一條連線的下一個動作要等這串做完
type MessageUseCase struct {
	msgRepo    repository.MessageRepository
	reactRepo  repository.ReactionRepository
	readRepo   repository.ReadStatusRepository
	portalRepo repository.PortalRepository
	files      repository.AttachmentStore
	archive    repository.ArchivePublisher
	notifier   repository.OfflineNotifier
	registry   *RoomRegistry
	broadcast  *Broadcaster
	cfg        config.RoomConfig
}

// NewMessageUseCase init message use case, archive 與 notifier 可為 nil
func NewMessageUseCase(
	msgRepo repository.MessageRepository,
	reactRepo repository.ReactionRepository,
	readRepo repository.ReadStatusRepository,
	portalRepo repository.PortalRepository,
	files repository.AttachmentStore,
	archive repository.ArchivePublisher,
	notifier repository.OfflineNotifier,
	registry *RoomRegistry,
	broadcast *Broadcaster,
	cfg config.RoomConfig,
) *MessageUseCase {
	return &MessageUseCase{
		msgRepo:    msgRepo,
		reactRepo:  reactRepo,
		readRepo:   readRepo,
		portalRepo: portalRepo,
		files:      files,
		archive:    archive,
		notifier:   notifier,
		registry:   registry,
		broadcast:  broadcast,
		cfg:        cfg,
	}
}

// Send 純文字訊息
func (uc *MessageUseCase) Send(ctx context.Context, s *Session, p domain.SendMessagePayload) error {
	// 1. 內容去空白後不能是空的
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return domain.ErrEmptyMessage
	}

	// 2. 回覆目標要存在且同房
	reply, err := uc.resolveReply(ctx, s.Room, p.ReplyTo)
	if err != nil {
		return err
	}

	msg := &domain.Message{
		Room:      s.Room,
		UserID:    s.UserID,
		Username:  s.Username,
		Content:   content,
		ReplyTo:   p.ReplyTo,
		CreatedAt: time.Now().UTC(),
	}
	return uc.persistAndBroadcast(ctx, s, msg, reply, p.CorrelationID)
}

// SendFileMessage 帶附件的訊息, Data 是 base64
func (uc *MessageUseCase) SendFileMessage(ctx context.Context, s *Session, p domain.SendFilePayload) error {
	if p.FileName == "" || p.Data == "" {
		return domain.ErrBadPayload
	}
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return domain.ErrBadPayload
	}

	// 1. 上限先檢查, 超標就不上傳
	if uc.cfg.MaxAttachmentBytes > 0 && int64(len(data)) > uc.cfg.MaxAttachmentBytes {
		return domain.ErrAttachmentTooLarge
	}

	content := strings.TrimSpace(p.Content)
	reply, err := uc.resolveReply(ctx, s.Room, p.ReplyTo)
	if err != nil {
		return err
	}

	// 2. object name 帶 uuid 避免同名互蓋
	fileName := filepath.Base(p.FileName)
	key := uuid.New().String() + "_" + fileName
	contentType := p.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := uc.files.UploadBytes(ctx, key, data, contentType); err != nil {
		return errprocess.Wrap("upload attachment", err)
	}
	url, err := uc.files.PresignGetURL(ctx, key, uc.cfg.PresignExpiry)
	if err != nil {
		// 沒有下載連結的附件沒意義, 清掉剛上傳的物件
		if rmErr := uc.files.RemoveObject(context.Background(), key); rmErr != nil {
			logger.Log.Warn("orphan attachment cleanup failed", zap.String("key", key))
		}
		return errprocess.Wrap("presign attachment", err)
	}

	msg := &domain.Message{
		Room:     s.Room,
		UserID:   s.UserID,
		Username: s.Username,
		Content:  content,
		Attachment: &domain.Attachment{
			Name: fileName,
			Size: int64(len(data)),
			Key:  key,
			URL:  url,
		},
		ReplyTo:   p.ReplyTo,
		CreatedAt: time.Now().UTC(),
	}
	return uc.persistAndBroadcast(ctx, s, msg, reply, p.CorrelationID)
}

// Edit 只有作者能改, 改完整包重播
func (uc *MessageUseCase) Edit(ctx context.Context, s *Session, p domain.EditMessagePayload) error {
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return domain.ErrEmptyMessage
	}

	msg, err := uc.ownMessage(ctx, s, p.MessageID)
	if err != nil {
		return err
	}
	if msg.Deleted {
		return domain.ErrAlreadyDeleted
	}

	editedAt := time.Now().UTC()
	if err := uc.msgRepo.Edit(ctx, p.MessageID, content, editedAt); err != nil {
		return errprocess.Wrap("edit message", err)
	}
	msg.Content = content
	msg.EditedAt = &editedAt

	// 反應統計每個收件人各算一份
	rows, err := uc.reactRepo.ListByMessage(ctx, p.MessageID)
	if err != nil {
		logger.Log.Warn("list reactions failed", zap.String("message_id", p.MessageID))
		rows = nil
	}
	reply := uc.replyPreviewOf(ctx, msg)
	uc.broadcast.PublishEach(s.Room, func(recipient *Session) *domain.WSEvent {
		return &domain.WSEvent{
			Type:    domain.EventUpdateMessage,
			Payload: domain.MessagePayload{Message: msg.View(domain.AggregateReactions(rows, recipient.UserID), reply)},
		}
	})

	uc.emitArchive(domain.ArchiveMessageEdited, s.Room, p.MessageID, s.UserID)
	return nil
}

// Delete 軟刪除, 文件留著佔串位, 廣播的是清空後的樣子
func (uc *MessageUseCase) Delete(ctx context.Context, s *Session, p domain.DeleteMessagePayload) error {
	msg, err := uc.ownMessage(ctx, s, p.MessageID)
	if err != nil {
		return err
	}
	if msg.Deleted {
		return domain.ErrAlreadyDeleted
	}

	if err := uc.msgRepo.SoftDelete(ctx, p.MessageID); err != nil {
		return errprocess.Wrap("delete message", err)
	}

	// 附件物件順手清掉, 失敗只記 log
	if msg.Attachment != nil && uc.files != nil {
		go func(key string) {
			ctx, cancel := context.WithTimeout(context.Background(), asyncEmitTimeout)
			defer cancel()
			if err := uc.files.RemoveObject(ctx, key); err != nil {
				logger.Log.Warn("attachment remove failed", zap.String("key", key))
			}
		}(msg.Attachment.Key)
	}

	msg.Deleted = true
	msg.Content = ""
	msg.Attachment = nil
	reply := uc.replyPreviewOf(ctx, msg)
	uc.broadcast.Publish(s.Room, domain.WSEvent{
		Type:    domain.EventDeleteMessage,
		Payload: domain.MessagePayload{Message: msg.View(nil, reply)},
	})

	uc.emitArchive(domain.ArchiveMessageDeleted, s.Room, p.MessageID, s.UserID)
	return nil
}

// LoadOlder 歷史分頁, 只回給要的人
func (uc *MessageUseCase) LoadOlder(ctx context.Context, s *Session, p domain.LoadOlderPayload) error {
	views, hasMore, err := uc.HistoryPage(ctx, s.UserID, s.Room, p.BeforeMessageID, p.Limit)
	if err != nil {
		return err
	}
	uc.broadcast.Unicast(s, domain.WSEvent{
		Type:    domain.EventOlderMessages,
		Payload: domain.OlderMessagesPayload{Messages: views, HasMore: hasMore},
	})
	return nil
}

// HistoryPage websocket 分頁與 REST 共用
func (uc *MessageUseCase) HistoryPage(ctx context.Context, userID, room, beforeID string, limit int) ([]domain.MessageView, bool, error) {
	pageSize := uc.cfg.HistoryPageSize
	if pageSize <= 0 {
		pageSize = defaultHistoryPageSize
	}
	if limit <= 0 || limit > pageSize {
		limit = pageSize
	}

	msgs, hasMore, err := uc.msgRepo.PageBefore(ctx, room, beforeID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
		return nil, false, errprocess.Wrap("page messages", err)
	}
	views, err := uc.viewsFor(ctx, userID, msgs)
	if err != nil {
		return nil, false, err
	}
	return views, hasMore, nil
}

// MarkReadPointer 更新已讀位置, 廣播看設定
func (uc *MessageUseCase) MarkReadPointer(ctx context.Context, s *Session, p domain.MarkReadPayload) error {
	if p.LastVisibleMessageID == "" {
		return domain.ErrBadPayload
	}
	msg, err := uc.msgRepo.FindByID(ctx, p.LastVisibleMessageID)
	if err != nil {
		return errprocess.Wrap("find message", err)
	}
	if msg == nil || msg.Room != s.Room {
		return domain.ErrNotFound
	}

	if err := uc.readRepo.Upsert(ctx, s.UserID, s.Room, p.LastVisibleMessageID); err != nil {
		return errprocess.Wrap("upsert read status", err)
	}

	if uc.cfg.BroadcastReadReceipts {
		uc.broadcast.Publish(s.Room, domain.WSEvent{
			Type:    domain.EventReadUpdate,
			Payload: domain.ReadUpdatePayload{Username: s.Username, LastReadMessageID: p.LastVisibleMessageID},
		})
	}
	return nil
}

// UnreadCount 已讀位置之後的未刪訊息數, REST 用
func (uc *MessageUseCase) UnreadCount(ctx context.Context, userID, room string) (int64, error) {
	rs, err := uc.readRepo.Find(ctx, userID, room)
	if err != nil {
		return 0, errprocess.Wrap("find read status", err)
	}
	afterID := ""
	if rs != nil {
		afterID = rs.LastReadMessageID
	}
	count, err := uc.msgRepo.CountAfter(ctx, room, afterID)
	if err != nil {
		return 0, errprocess.Wrap("count unread", err)
	}
	return count, nil
}

// persistAndBroadcast 先落地, 再廣播, 最後單播 ack, 順序不可對調
func (uc *MessageUseCase) persistAndBroadcast(ctx context.Context, s *Session, msg *domain.Message, reply *domain.ReplyPreview, correlationID string) error {
	if err := uc.msgRepo.Create(ctx, msg); err != nil {
		return errprocess.Wrap("insert message", err)
	}

	view := msg.View(nil, reply)
	uc.broadcast.Publish(s.Room, domain.WSEvent{
		Type:    domain.EventNewMessage,
		Payload: domain.NewMessagePayload{Message: view, CorrelationID: correlationID},
	})
	uc.broadcast.Unicast(s, domain.WSEvent{
		Type:    domain.EventMessageAck,
		Payload: domain.AckPayload{CorrelationID: correlationID, MessageID: view.ID, CreatedAt: msg.CreatedAt},
	})

	uc.emitArchive(domain.ArchiveMessageCreated, msg.Room, view.ID, s.UserID)
	uc.notifyOffline(msg)
	return nil
}

// resolveReply 回覆目標必須存在且同房, 已刪除的目標給占位引文
func (uc *MessageUseCase) resolveReply(ctx context.Context, room, replyTo string) (*domain.ReplyPreview, error) {
	if replyTo == "" {
		return nil, nil
	}
	target, err := uc.msgRepo.FindByID(ctx, replyTo)
	if err != nil {
		return nil, errprocess.Wrap("find reply target", err)
	}
	if target == nil {
		return nil, domain.ErrNotFound
	}
	if target.Room != room {
		return nil, domain.ErrInvalidReply
	}
	return domain.NewReplyPreview(target), nil
}

// replyPreviewOf 重播 edit/delete 時補引文, 目標不見了就給占位
func (uc *MessageUseCase) replyPreviewOf(ctx context.Context, msg *domain.Message) *domain.ReplyPreview {
	if msg.ReplyTo == "" {
		return nil
	}
	target, err := uc.msgRepo.FindByID(ctx, msg.ReplyTo)
	if err != nil || target == nil {
		return &domain.ReplyPreview{
			MessageID: msg.ReplyTo,
			Preview:   domain.DeletedReplyPlaceholder,
			Deleted:   true,
		}
	}
	return domain.NewReplyPreview(target)
}

// ownMessage 撈訊息並驗作者, 別房的訊息一律當不存在
func (uc *MessageUseCase) ownMessage(ctx context.Context, s *Session, messageID string) (*domain.Message, error) {
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, errprocess.Wrap("find message", err)
	}
	if msg == nil || msg.Room != s.Room {
		return nil, domain.ErrNotFound
	}
	if msg.UserID != s.UserID {
		return nil, domain.ErrForbidden
	}
	return msg, nil
}

// viewsFor 批次補引文與反應統計, 避免一則一查
func (uc *MessageUseCase) viewsFor(ctx context.Context, userID string, msgs []domain.Message) ([]domain.MessageView, error) {
	ids := make([]string, 0, len(msgs))
	replyIDs := make([]string, 0)
	for i := range msgs {
		ids = append(ids, msgs[i].ID.Hex())
		if msgs[i].ReplyTo != "" {
			replyIDs = append(replyIDs, msgs[i].ReplyTo)
		}
	}

	targets := map[string]*domain.Message{}
	if len(replyIDs) > 0 {
		var err error
		targets, err = uc.msgRepo.FindByIDs(ctx, replyIDs)
		if err != nil {
			return nil, errprocess.Wrap("load reply targets", err)
		}
	}

	rows, err := uc.reactRepo.ListByMessages(ctx, ids)
	if err != nil {
		return nil, errprocess.Wrap("load reactions", err)
	}
	rowsByMsg := make(map[string][]domain.Reaction)
	for _, row := range rows {
		rowsByMsg[row.MessageID] = append(rowsByMsg[row.MessageID], row)
	}

	views := make([]domain.MessageView, 0, len(msgs))
	for i := range msgs {
		m := &msgs[i]
		var reply *domain.ReplyPreview
		if m.ReplyTo != "" {
			if target, ok := targets[m.ReplyTo]; ok {
				reply = domain.NewReplyPreview(target)
			} else {
				reply = &domain.ReplyPreview{
					MessageID: m.ReplyTo,
					Preview:   domain.DeletedReplyPlaceholder,
					Deleted:   true,
				}
			}
		}
		views = append(views, m.View(domain.AggregateReactions(rowsByMsg[m.ID.Hex()], userID), reply))
	}
	return views, nil
}

// emitArchive kafka 側路, 不擋主流程
func (uc *MessageUseCase) emitArchive(kind domain.ArchiveEventKind, room, messageID, actorID string) {
	if uc.archive == nil {
		return
	}
	ev := domain.ArchiveEvent{
		ID:        uuid.New().String(),
		Kind:      kind,
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
				zap.String("kind", string(kind)), zap.String("err", err.Error()))
		}
	}()
}

// notifyOffline 不在線的成員丟一筆通知工作, 失敗只記 log
func (uc *MessageUseCase) notifyOffline(msg *domain.Message) {
	if uc.notifier == nil || uc.portalRepo == nil {
		return
	}
	preview := pkg.Truncate(msg.Content, notifyPreviewRunes)
	if preview == "" && msg.Attachment != nil {
		preview = msg.Attachment.Name
	}
	job := domain.OfflineNotification{
		Room:      msg.Room,
		MessageID: msg.ID.Hex(),
		Sender:    msg.Username,
		Preview:   preview,
		SentAt:    msg.CreatedAt,
	}
	senderID := msg.UserID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncEmitTimeout)
		defer cancel()

		info, err := uc.portalRepo.FindRoom(ctx, job.Room)
		if err != nil || info == nil {
			return
		}
		online := uc.registry.OnlineUserIDs(job.Room)
		for _, m := range info.Members {
			if m.UserID == senderID || pkg.Contains(online, m.UserID) {
				continue
			}
			job.UserID = m.UserID
			if err := uc.notifier.NotifyOffline(ctx, job); err != nil {
				logger.Log.Warn("offline notify failed",
					zap.String("room", job.Room), zap.String("user", m.UserID))
			}
		}
	}()
}
