package app

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"portal_chat_service/internal/chat/domain"
	"portal_chat_service/pkg/middlewares"
)

// HistoryHandler REST 查詢面, 給前端初載與封存房間回看用
type HistoryHandler struct {
	roomUC    *RoomUseCase
	messageUC *MessageUseCase
}

// NewHistoryHandler create REST handler
func NewHistoryHandler(roomUC *RoomUseCase, messageUC *MessageUseCase) *HistoryHandler {
	return &HistoryHandler{
		roomUC:    roomUC,
		messageUC: messageUC,
	}
}

// ListRooms 房間清單
// @Summary 取得使用者的聊天室清單
// @Description 成員房間加上開放房間, 附在線人數與未讀數
// @Tags chat
// @Produce json
// @Success 200 {array} domain.RoomOverview
// @Failure 500 {object} fiber.Map
// @Router /api/rooms [get]
func (h *HistoryHandler) ListRooms(c *fiber.Ctx) error {
	userID, _ := c.Locals(middlewares.TokenUserID).(string)

	rooms, err := h.roomUC.RoomsForUser(context.Background(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "list rooms failed",
		})
	}

	overviews := make([]domain.RoomOverview, 0, len(rooms))
	for _, room := range rooms {
		unread, err := h.messageUC.UnreadCount(context.Background(), userID, room.Slug)
		if err != nil {
			unread = 0
		}
		overviews = append(overviews, domain.RoomOverview{
			Slug:        room.Slug,
			Name:        room.Name,
			Archived:    room.Archived,
			OnlineCount: h.roomUC.OnlineCount(room.Slug),
			UnreadCount: unread,
		})
	}
	return c.JSON(overviews)
}

// RoomMessages 歷史訊息分頁
// @Summary 取得房間歷史訊息
// @Description 從 before 往回撈一頁, 封存房間的歷史一樣可讀
// @Tags chat
// @Produce json
// @Param room path string true "room slug"
// @Param before query string false "message id, 省略表示最新一頁"
// @Param limit query int false "page size"
// @Success 200 {object} domain.OlderMessagesPayload
// @Failure 403 {object} fiber.Map
// @Failure 404 {object} fiber.Map
// @Router /api/rooms/{room}/messages [get]
func (h *HistoryHandler) RoomMessages(c *fiber.Ctx) error {
	userID, _ := c.Locals(middlewares.TokenUserID).(string)
	slug := c.Params("room")

	if _, err := h.roomUC.CheckAccess(context.Background(), slug, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "room not found"})
		case errors.Is(err, domain.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not a member"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "room lookup failed"})
		}
	}

	views, hasMore, err := h.messageUC.HistoryPage(
		context.Background(), userID, slug, c.Query("before"), c.QueryInt("limit"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "anchor message not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load messages failed"})
	}
	return c.JSON(domain.OlderMessagesPayload{Messages: views, HasMore: hasMore})
}
