package bdd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"portal_chat_service/internal/chat/app"
	"portal_chat_service/internal/chat/domain"
	"portal_chat_service/pkg/config"
	"portal_chat_service/pkg/logger"
)

func TestFeatures(t *testing.T) {
	logger.SetNewNop()
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Paths:  []string{"./featureFiles"}, // 指向 feature 檔相對路徑
			Format: "pretty",
			Output: os.Stdout,
		},
	}

	// 若 suite.Run() != 0 表示測試失敗
	if suite.Run() != 0 {
		t.Fail()
	}
}

// === 以下為記憶體 repository，場景之間不共用狀態 ===

type memMessageRepo struct {
	mu   sync.Mutex
	rows []*domain.Message
}

func (r *memMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	clone := *msg
	r.rows = append(r.rows, &clone)
	return nil
}

func (r *memMessageRepo) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.ID.Hex() == id {
			clone := *m
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memMessageRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Message, error) {
	result := make(map[string]*domain.Message, len(ids))
	for _, id := range ids {
		m, _ := r.FindByID(ctx, id)
		if m != nil {
			result[id] = m
		}
	}
	return result, nil
}

func (r *memMessageRepo) Edit(ctx context.Context, id, content string, editedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.ID.Hex() == id {
			m.Content = content
			m.EditedAt = &editedAt
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memMessageRepo) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.ID.Hex() == id {
			m.Deleted = true
			m.Content = ""
			m.Attachment = nil
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memMessageRepo) PageBefore(ctx context.Context, room, beforeID string, limit int) ([]domain.Message, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	end := len(r.rows)
	if beforeID != "" {
		end = -1
		for i, m := range r.rows {
			if m.ID.Hex() == beforeID {
				end = i
				break
			}
		}
		if end < 0 {
			return nil, false, domain.ErrNotFound
		}
	}

	// 新到舊
	page := make([]domain.Message, 0, limit)
	for i := end - 1; i >= 0; i-- {
		if r.rows[i].Room != room {
			continue
		}
		if len(page) == limit {
			return page, true, nil
		}
		page = append(page, *r.rows[i])
	}
	return page, false, nil
}

func (r *memMessageRepo) CountAfter(ctx context.Context, room, afterID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	counting := afterID == ""
	for _, m := range r.rows {
		if counting && m.Room == room && !m.Deleted {
			count++
		}
		if !counting && m.ID.Hex() == afterID {
			counting = true
		}
	}
	return count, nil
}

func (r *memMessageRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *memMessageRepo) lastID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rows) == 0 {
		return ""
	}
	return r.rows[len(r.rows)-1].ID.Hex()
}

type memReactionRepo struct {
	mu   sync.Mutex
	rows []domain.Reaction
}

func (r *memReactionRepo) Toggle(ctx context.Context, row domain.Reaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.rows {
		if existing.MessageID == row.MessageID && existing.Emoji == row.Emoji && existing.UserID == row.UserID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return false, nil
		}
	}
	r.rows = append(r.rows, row)
	return true, nil
}

func (r *memReactionRepo) ListByMessage(ctx context.Context, messageID string) ([]domain.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []domain.Reaction
	for _, row := range r.rows {
		if row.MessageID == messageID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (r *memReactionRepo) ListByMessages(ctx context.Context, messageIDs []string) ([]domain.Reaction, error) {
	var rows []domain.Reaction
	for _, id := range messageIDs {
		part, _ := r.ListByMessage(ctx, id)
		rows = append(rows, part...)
	}
	return rows, nil
}

func (r *memReactionRepo) EnsureIndexes(ctx context.Context) error { return nil }

// === 場景狀態 ===

type chatWorld struct {
	registry   *app.RoomRegistry
	messageUC  *app.MessageUseCase
	reactionUC *app.ReactionUseCase
	msgRepo    *memMessageRepo
	sessions   map[string]*app.Session
	lastErr    error
}

func (w *chatWorld) reset() {
	w.registry = app.NewRoomRegistry()
	broadcast := app.NewBroadcaster(w.registry)
	w.msgRepo = &memMessageRepo{}
	reactRepo := &memReactionRepo{}
	cfg := config.RoomConfig{MaxAttachmentBytes: 1024, HistoryPageSize: 50}
	w.messageUC = app.NewMessageUseCase(w.msgRepo, reactRepo, nil, nil, nil, nil, nil, w.registry, broadcast, cfg)
	w.reactionUC = app.NewReactionUseCase(w.msgRepo, reactRepo, nil, broadcast)
	w.sessions = make(map[string]*app.Session)
	w.lastErr = nil
}

type wsEnvelope struct {
	Type    domain.Event    `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// firstEventOf 依序消化 session 的 buffer, 回第一個符合型別的事件
func (w *chatWorld) firstEventOf(user string, want domain.Event) (json.RawMessage, error) {
	s, ok := w.sessions[user]
	if !ok {
		return nil, fmt.Errorf("user %s not connected", user)
	}
	for {
		select {
		case frame := <-s.Frames():
			var ev wsEnvelope
			if err := json.Unmarshal(frame, &ev); err != nil {
				return nil, fmt.Errorf("bad frame: %s", string(frame))
			}
			if ev.Type == want {
				return ev.Payload, nil
			}
		default:
			return nil, fmt.Errorf("%s never received %s", user, want)
		}
	}
}

// lastEventOf 消化整個 buffer, 回最後一個符合型別的事件
func (w *chatWorld) lastEventOf(user string, want domain.Event) (json.RawMessage, error) {
	s, ok := w.sessions[user]
	if !ok {
		return nil, fmt.Errorf("user %s not connected", user)
	}
	var match json.RawMessage
	for {
		select {
		case frame := <-s.Frames():
			var ev wsEnvelope
			if err := json.Unmarshal(frame, &ev); err != nil {
				return nil, fmt.Errorf("bad frame: %s", string(frame))
			}
			if ev.Type == want {
				match = ev.Payload
			}
		default:
			if match == nil {
				return nil, fmt.Errorf("%s never received %s", user, want)
			}
			return match, nil
		}
	}
}

// === Step Definitions ===

func (w *chatWorld) usersConnected(a, b, room string) error {
	for _, name := range []string{a, b} {
		s := app.NewSession(room, "u-"+name, name, nil)
		w.registry.Join(room, s)
		s.SetState(app.StateJoined)
		w.sessions[name] = s
	}
	return nil
}

func (w *chatWorld) userSendsMessage(user, content, correlationID string) error {
	s, ok := w.sessions[user]
	if !ok {
		return fmt.Errorf("user %s not connected", user)
	}
	return w.messageUC.Send(context.Background(), s, domain.SendMessagePayload{
		Content:       content,
		CorrelationID: correlationID,
	})
}

func (w *chatWorld) userShouldReceiveMessage(user, content string) error {
	raw, err := w.firstEventOf(user, domain.EventNewMessage)
	if err != nil {
		return err
	}
	var p domain.NewMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.Message.Content != content {
		return fmt.Errorf("expected content %q, got %q", content, p.Message.Content)
	}
	return nil
}

func (w *chatWorld) userShouldReceiveAck(user, correlationID string) error {
	raw, err := w.firstEventOf(user, domain.EventMessageAck)
	if err != nil {
		return err
	}
	var p domain.AckPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.CorrelationID != correlationID {
		return fmt.Errorf("expected correlation %q, got %q", correlationID, p.CorrelationID)
	}
	if p.MessageID == "" {
		return fmt.Errorf("ack has no message id")
	}
	return nil
}

func (w *chatWorld) userTogglesReaction(user, emoji string) error {
	s, ok := w.sessions[user]
	if !ok {
		return fmt.Errorf("user %s not connected", user)
	}
	return w.reactionUC.Toggle(context.Background(), s, domain.ReactionPayload{
		MessageID: w.msgRepo.lastID(),
		Emoji:     emoji,
	})
}

func (w *chatWorld) lastMessageReactionCount(emoji string, count int) error {
	raw, err := w.lastEventOf("alice", domain.EventReactionUpdate)
	if err != nil {
		return err
	}
	var p domain.ReactionUpdatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.MessageID != w.msgRepo.lastID() {
		return fmt.Errorf("reaction update is for %s, want %s", p.MessageID, w.msgRepo.lastID())
	}
	if p.Reactions[emoji].Count != count {
		return fmt.Errorf("expected %d reactions for %s, got %d", count, emoji, p.Reactions[emoji].Count)
	}
	return nil
}

func (w *chatWorld) lastMessageHasNoReactions() error {
	raw, err := w.lastEventOf("alice", domain.EventReactionUpdate)
	if err != nil {
		return err
	}
	var p domain.ReactionUpdatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if len(p.Reactions) != 0 {
		return fmt.Errorf("expected no reactions, got %v", p.Reactions)
	}
	return nil
}

func (w *chatWorld) userUploadsAttachment(user string, size int) error {
	s, ok := w.sessions[user]
	if !ok {
		return fmt.Errorf("user %s not connected", user)
	}
	w.lastErr = w.messageUC.SendFileMessage(context.Background(), s, domain.SendFilePayload{
		FileName:      "huge.bin",
		Data:          base64.StdEncoding.EncodeToString(make([]byte, size)),
		CorrelationID: "c-file",
	})
	return nil
}

func (w *chatWorld) userShouldReceiveErrorKind(user, kind string) error {
	if w.lastErr == nil {
		return fmt.Errorf("expected %s to get an error, action succeeded", user)
	}
	if got := domain.ErrorKind(w.lastErr); got != kind {
		return fmt.Errorf("expected error kind %s, got %s", kind, got)
	}
	return nil
}

func (w *chatWorld) userShouldReceiveNoNewMessage(user string) error {
	if _, err := w.firstEventOf(user, domain.EventNewMessage); err == nil {
		return fmt.Errorf("%s unexpectedly received a new message", user)
	}
	return nil
}

func (w *chatWorld) userDeletesLastMessage(user string) error {
	s, ok := w.sessions[user]
	if !ok {
		return fmt.Errorf("user %s not connected", user)
	}
	return w.messageUC.Delete(context.Background(), s, domain.DeleteMessagePayload{
		MessageID: w.msgRepo.lastID(),
	})
}

func (w *chatWorld) userSeesLastMessageDeleted(user string) error {
	raw, err := w.firstEventOf(user, domain.EventDeleteMessage)
	if err != nil {
		return err
	}
	var p domain.MessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.Message.ID != w.msgRepo.lastID() {
		return fmt.Errorf("delete event is for %s, want %s", p.Message.ID, w.msgRepo.lastID())
	}
	if !p.Message.Deleted {
		return fmt.Errorf("message not marked deleted")
	}
	if p.Message.Content != "" {
		return fmt.Errorf("deleted message still carries content %q", p.Message.Content)
	}
	return nil
}

// InitializeScenario 註冊 Gherkin 與 Step Definition 的對應
func InitializeScenario(sc *godog.ScenarioContext) {
	w := &chatWorld{}
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		w.reset()
		return ctx, nil
	})

	sc.Step(`^"([^"]*)" 與 "([^"]*)" 已連上聊天室 "([^"]*)"$`, w.usersConnected)
	sc.Step(`^"([^"]*)" 發送訊息 "([^"]*)" 帶序號 "([^"]*)"$`, w.userSendsMessage)
	sc.Step(`^"([^"]*)" 應該收到訊息 "([^"]*)"$`, w.userShouldReceiveMessage)
	sc.Step(`^"([^"]*)" 應該收到序號 "([^"]*)" 的確認$`, w.userShouldReceiveAck)
	sc.Step(`^"([^"]*)" 對最後一則訊息按 "([^"]*)"$`, w.userTogglesReaction)
	sc.Step(`^最後一則訊息的 "([^"]*)" 應該有 (\d+) 人$`, w.lastMessageReactionCount)
	sc.Step(`^最後一則訊息應該沒有任何反應$`, w.lastMessageHasNoReactions)
	sc.Step(`^"([^"]*)" 上傳 (\d+) bytes 的附件$`, w.userUploadsAttachment)
	sc.Step(`^"([^"]*)" 應該收到 "([^"]*)" 錯誤$`, w.userShouldReceiveErrorKind)
	sc.Step(`^"([^"]*)" 不應該收到任何新訊息$`, w.userShouldReceiveNoNewMessage)
	sc.Step(`^"([^"]*)" 刪除最後一則訊息$`, w.userDeletesLastMessage)
	sc.Step(`^"([^"]*)" 應該看到該訊息被標記為已刪除$`, w.userSeesLastMessageDeleted)
}
