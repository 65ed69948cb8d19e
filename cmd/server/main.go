package main

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"snapclash/internal/config"
	"snapclash/internal/game"
	"snapclash/internal/ws"
	"snapclash/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config: %v", err)
	}
	logger.Setup(cfg.LogLevel)

	prompts, err := game.NewPromptBank(cfg.PromptFile)
	if err != nil {
		logger.Fatal("prompt bank: %v", err)
	}

	hub := ws.NewHub()
	machine := game.NewMachine(
		game.NewRoomStore(),
		game.NewConnectionRegistry(),
		hub,
		prompts,
		cfg.RoundSeconds,
	)
	handler := ws.NewHandler(hub, machine)

	app := fiber.New()
	app.Use(cors.New())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(handler.Handle))

	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("running") })

	app.Get("/api/rooms", func(c *fiber.Ctx) error {
		return c.JSON(machine.Rooms())
	})

	logger.Info("server listening on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Fatal("listen: %v", err)
	}
}
