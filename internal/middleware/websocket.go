package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"

	"github.com/benbeisheim/percaturan-backend/internal/model"
)

// GameAccess reports whether playerID may watch and play gameID.
type GameAccess func(gameID, playerID string) error

// WebSocketUpgrade rejects anything but an upgrade request for a game the
// player belongs to, then hands the IDs to the connection handler through
// the wsGameID and wsPlayerID locals.
func WebSocketUpgrade(access GameAccess) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		gameID := c.Params("gameId")
		if gameID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "game ID is required",
			})
		}
		// Set by EnsurePlayerID
		playerID, ok := c.Locals("playerID").(string)
		if !ok || playerID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "player ID is required",
			})
		}

		if access != nil {
			if err := access(gameID, playerID); err != nil {
				status := fiber.StatusForbidden
				if errors.Is(err, model.ErrGameNotFound) {
					status = fiber.StatusNotFound
				}
				log.Debugf("refusing websocket for player %s in game %s: %v", playerID, gameID, err)
				return c.Status(status).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
		}

		// The connection handler runs after the upgrade and only sees locals
		c.Locals("wsGameID", gameID)
		c.Locals("wsPlayerID", playerID)
		log.Debugf("upgrading websocket for player %s in game %s", playerID, gameID)

		return c.Next()
	}
}
