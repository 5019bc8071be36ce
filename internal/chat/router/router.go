package router

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"

	"portal_chat_service/internal/chat/app"
	"portal_chat_service/pkg/middlewares"
)

// RegisterRoutes 註冊 websocket 與 REST 路由
// swagger 不掛 JWT, 其他都要帶 token
func RegisterRoutes(r *fiber.App, chatWebsocket *app.ChatWebsocketHandler, history *app.HistoryHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)

	api := r.Group("/api", middlewares.JWTMiddleware())
	api.Get("/rooms", history.ListRooms)
	api.Get("/rooms/:room/messages", history.RoomMessages)

	// 升級前就要過 JWT, 身份放進 Locals 給 conn 取
	r.Use("/ws", middlewares.JWTMiddleware())
	r.Get("/ws/:room", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))
}
