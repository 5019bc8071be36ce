package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"portal_chat_service/internal/chat/domain"
	"portal_chat_service/pkg/logger"
	"portal_chat_service/pkg/middlewares"
)

// ChatWebsocketHandler websocket 進入點, 一條連線一個 read loop
type ChatWebsocketHandler struct {
	roomUC     *RoomUseCase
	messageUC  *MessageUseCase
	reactionUC *ReactionUseCase
	broadcast  *Broadcaster
}

// NewChatWebsocketHandler create websocket handler
func NewChatWebsocketHandler(
	roomUC *RoomUseCase,
	messageUC *MessageUseCase,
	reactionUC *ReactionUseCase,
	broadcast *Broadcaster,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		roomUC:     roomUC,
		messageUC:  messageUC,
		reactionUC: reactionUC,
		broadcast:  broadcast,
	}
}

// HandleConnection 連線生命週期 Connecting -> Joined -> Closed
// 動作在 read loop 裡同步處理完才收下一個, 同一條連線天然有序
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	userID, _ := conn.Locals(middlewares.TokenUserID).(string)
	username, _ := conn.Locals(middlewares.TokenUsername).(string)
	roomSlug := conn.Params("room")
	logger.Log.Info("websocket connected",
		zap.String("userID", userID), zap.String("room", roomSlug))
	if userID == "" || roomSlug == "" {
		conn.Close()
		return
	}

	sess := NewSession(roomSlug, userID, username, conn)
	defer func() {
		h.roomUC.Leave(context.Background(), sess)
		sess.Close()
		logger.Log.Info("websocket closed",
			zap.String("userID", userID), zap.String("room", roomSlug))
	}()

	// ping 由 WritePump 的 ticker 發, 收到 pong 重置讀取期限
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		sess.Touch()
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	//客戶端送關閉幀時 ReadMessage 會回錯誤, 這裡只記 log
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Debug("close frame received", zap.Int("code", code))
		return nil
	})

	// join 檢查沒過就寫一個錯誤幀直接斷線, writer 還沒起跑所以直接寫 conn
	if err := h.roomUC.Join(ctx, sess); err != nil {
		h.writeJoinError(conn, err)
		return
	}
	go sess.WritePump()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				logger.Log.Info("connection closed", zap.String("userID", userID))
			} else {
				logger.Log.Error("websocket read error", zap.String("err", err.Error()))
			}
			return
		}
		sess.Touch()
		h.dispatchAction(ctx, sess, message)
	}
}

// dispatchAction 解 envelope 後按 type 分派, 動作失敗只回本人
func (h *ChatWebsocketHandler) dispatchAction(ctx context.Context, sess *Session, raw []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.sendErrorEvent(sess, domain.ErrBadPayload, "", "")
		return
	}

	switch domain.Action(req.Type) {
	case domain.SendMessage:
		var p domain.SendMessagePayload
		if !h.decode(sess, req.Payload, &p) {
			return
		}
		if err := h.messageUC.Send(ctx, sess, p); err != nil {
			h.sendErrorEvent(sess, err, p.CorrelationID, "")
		}

	case domain.SendFile:
		var p domain.SendFilePayload
		if !h.decode(sess, req.Payload, &p) {
			return
		}
		if err := h.messageUC.SendFileMessage(ctx, sess, p); err != nil {
			h.sendErrorEvent(sess, err, p.CorrelationID, "")
		}

	case domain.EditMessage:
		var p domain.EditMessagePayload
		if !h.decode(sess, req.Payload, &p) {
			return
		}
		if err := h.messageUC.Edit(ctx, sess, p); err != nil {
			h.sendErrorEvent(sess, err, "", p.MessageID)
		}

	case domain.DeleteMessage:
		var p domain.DeleteMessagePayload
		if !h.decode(sess, req.Payload, &p) {
			return
		}
		if err := h.messageUC.Delete(ctx, sess, p); err != nil {
			h.sendErrorEvent(sess, err, "", p.MessageID)
		}

	case domain.AddReaction, domain.RemoveReaction:
		var p domain.ReactionPayload
		if !h.decode(sess, req.Payload, &p) {
			return
		}
		if err := h.reactionUC.Toggle(ctx, sess, p); err != nil {
			h.sendErrorEvent(sess, err, "", p.MessageID)
		}

	case domain.TypingStatus:
		var p domain.TypingPayload
		if !h.decode(sess, req.Payload, &p) {
			return
		}
		h.roomUC.TypingStatus(sess, p.IsTyping)

	case domain.LoadOlderMessages:
		var p domain.LoadOlderPayload
		// payload 可以整個省略, 表示要最新一頁
		if len(req.Payload) > 0 {
			if err := json.Unmarshal(req.Payload, &p); err != nil {
				h.sendErrorEvent(sess, domain.ErrBadPayload, "", "")
				return
			}
		}
		if err := h.messageUC.LoadOlder(ctx, sess, p); err != nil {
			h.sendErrorEvent(sess, err, "", p.BeforeMessageID)
		}

	case domain.MarkRead:
		var p domain.MarkReadPayload
		if !h.decode(sess, req.Payload, &p) {
			return
		}
		if err := h.messageUC.MarkReadPointer(ctx, sess, p); err != nil {
			h.sendErrorEvent(sess, err, "", p.LastVisibleMessageID)
		}

	default:
		logger.Log.Warn("unknown action", zap.String("type", req.Type))
		h.sendErrorEvent(sess, domain.ErrBadPayload, "", "")
	}
}

// decode payload 解不開就回 BadPayload
func (h *ChatWebsocketHandler) decode(sess *Session, raw json.RawMessage, out interface{}) bool {
	if len(raw) == 0 {
		h.sendErrorEvent(sess, domain.ErrBadPayload, "", "")
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		h.sendErrorEvent(sess, domain.ErrBadPayload, "", "")
		return false
	}
	return true
}

// sendErrorEvent 錯誤一律單播, 不進房間廣播
func (h *ChatWebsocketHandler) sendErrorEvent(sess *Session, err error, correlationID, messageID string) {
	kind := domain.ErrorKind(err)
	logger.Log.Error("websocket action failed",
		zap.String("userID", sess.UserID),
		zap.String("room", sess.Room),
		zap.String("kind", kind),
		zap.String("err", err.Error()))
	h.broadcast.Unicast(sess, domain.WSEvent{
		Type: domain.EventError,
		Payload: domain.ErrorPayload{
			Kind:          kind,
			Message:       domain.ErrorMessage(err),
			CorrelationID: correlationID,
			MessageID:     messageID,
		},
	})
}

// writeJoinError join 失敗時 writer 還沒起跑, 直接寫完 close frame 收線
func (h *ChatWebsocketHandler) writeJoinError(conn *websocket.Conn, err error) {
	kind := domain.ErrorKind(err)
	frame, mErr := json.Marshal(domain.WSEvent{
		Type:    domain.EventError,
		Payload: domain.ErrorPayload{Kind: kind, Message: domain.ErrorMessage(err)},
	})
	if mErr == nil {
		conn.WriteMessage(websocket.TextMessage, frame)
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, kind))
}
