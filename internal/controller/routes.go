package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/benbeisheim/percaturan-backend/internal/middleware"
	"github.com/benbeisheim/percaturan-backend/internal/service"
)

// RegisterRoutes mounts the REST and WebSocket API on app.
func RegisterRoutes(app *fiber.App, gameService *service.GameService, origins []string) {
	gameController := NewGameController(gameService)
	wsController := NewWebSocketController(gameService)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Set up WebSocket routes
	app.Get("/ws/game/:gameId",
		middleware.EnsurePlayerID(),
		middleware.WebSocketUpgrade(gameService.CheckAccess),
		websocket.New(wsController.HandleConnection, websocket.Config{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Origins:         origins,
		}),
	)

	// Set up REST routes
	api := app.Group("/api", middleware.EnsurePlayerID())

	// Game routes
	gameRoutes := api.Group("/game")
	gameRoutes.Post("/create", gameController.CreateGame)
	gameRoutes.Get("/:gameId", gameController.GetGameState)
	gameRoutes.Get("/:gameId/moves", gameController.LegalMoves)
	gameRoutes.Get("/:gameId/analysis", gameController.Analysis)
	gameRoutes.Post("/:gameId/move", gameController.MakeMove)
	gameRoutes.Post("/:gameId/undo", gameController.Undo)
	gameRoutes.Post("/:gameId/restart", gameController.Restart)
	gameRoutes.Post("/:gameId/resign", gameController.Resign)

	// Stateless position queries
	positionRoutes := api.Group("/position")
	positionRoutes.Post("/moves", gameController.PositionMoves)
	positionRoutes.Post("/status", gameController.PositionStatus)
	positionRoutes.Post("/best-move", gameController.PositionBestMove)

	api.Get("/player/stats", gameController.PlayerStats)
}
