package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// MaxPlayerIDLength bounds client supplied player IDs, which end up in
// storage keys.
const MaxPlayerIDLength = 128

// EnsurePlayerID reads the player ID from the X-Player-ID header or the
// playerId query parameter and stores it in the "playerID" local.
func EnsurePlayerID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("playerID") != nil {
			return c.Next()
		}

		playerID := c.Get("X-Player-ID")
		if playerID == "" {
			playerID = c.Query("playerId")
		}

		switch {
		case playerID == "":
			log.Debugf("rejecting %s %s without player ID", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Player ID is required. Please ensure client is properly initialized.",
			})
		case len(playerID) > MaxPlayerIDLength:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "player ID is too long",
			})
		case !validPlayerID(playerID):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "player ID may only contain letters, digits, '-', '_' and '.'",
			})
		}

		c.Locals("playerID", playerID)
		return c.Next()
	}
}

func validPlayerID(id string) bool {
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
