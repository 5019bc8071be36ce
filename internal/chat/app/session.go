package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"portal_chat_service/pkg/logger"
)

const (
	// 出站緩衝滿了就丟該 session 的訊框, 廣播不能被慢連線卡住
	sendBufferSize = 256

	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// pingPeriod 必須小於 pongWait
	pingPeriod = 54 * time.Second
)

// SessionState 連線生命週期
type SessionState int32

const (
	// StateConnecting 已升級還沒通過 join 檢查
	StateConnecting SessionState = iota
	// StateJoined 已註冊進房間, 可收發
	StateJoined
	// StateClosed 終態
	StateClosed
)

// Session 一條 websocket 連線, 由註冊表持有
// conn 只在 WritePump 與 Close 碰, 其他地方一律走 send channel
type Session struct {
	ID       string
	Room     string
	UserID   string
	Username string

	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	state      atomic.Int32
	lastActive atomic.Int64
	closeOnce  sync.Once
}

// NewSession create session, conn 可為 nil(測試用, 只走 send channel)
func NewSession(room, userID, username string, conn *websocket.Conn) *Session {
	s := &Session{
		ID:       uuid.New().String(),
		Room:     room,
		UserID:   userID,
		Username: username,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))
	s.Touch()
	return s
}

// State read current state
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// SetState 狀態只會往前走, Closed 之後不再變
func (s *Session) SetState(st SessionState) {
	if s.State() == StateClosed {
		return
	}
	s.state.Store(int32(st))
}

// Touch 更新最後活動時間, 收到訊框或 pong 時呼叫
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive last frame or pong time
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Enqueue 丟訊框給寫入者, 不阻塞, 緩衝滿或已關閉回 false
func (s *Session) Enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// Frames 測試用, 直接讀出站緩衝
func (s *Session) Frames() <-chan []byte {
	return s.send
}

// Close idempotent, 關 done 並斷線
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

// Done closed when session ends
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// WritePump 唯一寫入者, 序列化訊框輸出與 ping
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()
	for {
		select {
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Log.Error("websocket write error",
					zap.String("room", s.Room),
					zap.String("user", s.Username),
					zap.String("err", err.Error()))
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.Debug("ping error", zap.String("err", err.Error()))
				return
			}
		case <-s.done:
			return
		}
	}
}
