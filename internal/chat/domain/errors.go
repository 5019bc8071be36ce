package domain

import "errors"

// 動作失敗一律只回給發出動作的 session, 不廣播
var (
	// ErrEmptyMessage 內容去空白後為空
	ErrEmptyMessage = errors.New("message content is empty")
	// ErrInvalidReply 回覆目標不在同一個房間
	ErrInvalidReply = errors.New("reply target belongs to another room")
	// ErrAttachmentTooLarge 附件超過上限
	ErrAttachmentTooLarge = errors.New("attachment exceeds size limit")
	// ErrForbidden 非作者或非成員
	ErrForbidden = errors.New("operation not allowed")
	// ErrAlreadyDeleted 目標訊息已軟刪除
	ErrAlreadyDeleted = errors.New("message already deleted")
	// ErrNotFound 房間或訊息不存在
	ErrNotFound = errors.New("target not found")
	// ErrRoomArchived 封存房間不收新連線與新訊息
	ErrRoomArchived = errors.New("room is archived")
	// ErrBadPayload envelope 或 payload 解不開
	ErrBadPayload = errors.New("malformed payload")
)

// error_notification 的 kind 字串
const (
	KindEmptyMessage       = "EmptyMessage"
	KindInvalidReply       = "InvalidReply"
	KindAttachmentTooLarge = "AttachmentTooLarge"
	KindForbidden          = "Forbidden"
	KindAlreadyDeleted     = "AlreadyDeleted"
	KindNotFound           = "NotFound"
	KindPersistenceError   = "PersistenceError"
	KindBadPayload         = "BadPayload"
)

// ErrorKind 把錯誤對應到 wire 上的 kind, 認不得的一律歸 PersistenceError
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		return KindEmptyMessage
	case errors.Is(err, ErrInvalidReply):
		return KindInvalidReply
	case errors.Is(err, ErrAttachmentTooLarge):
		return KindAttachmentTooLarge
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrRoomArchived):
		return KindForbidden
	case errors.Is(err, ErrAlreadyDeleted):
		return KindAlreadyDeleted
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBadPayload):
		return KindBadPayload
	default:
		return KindPersistenceError
	}
}

// ErrorMessage wire 上的錯誤說明, 存取層錯誤不外洩細節
func ErrorMessage(err error) string {
	if ErrorKind(err) == KindPersistenceError {
		return "persistence failure, please retry"
	}
	return err.Error()
}
