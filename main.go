package main

import (
	"github.com/gofiber/fiber/v2"

	"portal_chat_service/internal/chat/router"
)

// 此程式用於init swagger
// swag init --output ./docs
func main() {
	app := fiber.New()

	router.RegisterRoutes(app, nil, nil)
}
