package controller

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"

	"github.com/benbeisheim/percaturan-backend/internal/service"
	"github.com/benbeisheim/percaturan-backend/internal/ws"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// conn serializes writes from state broadcasts and error replies.
type conn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *conn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(v)
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID, _ := c.Locals("wsGameID").(string)
	playerID, _ := c.Locals("wsPlayerID").(string)
	sc := &conn{Conn: c}

	// Register this connection with the game
	if err := wsc.gameService.RegisterConnection(gameID, playerID, sc); err != nil {
		log.Warnf("failed to register connection for player %s in game %s: %v", playerID, gameID, err)
		sc.WriteJSON(ws.NewError(err))
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, sc)

	// Start message handling loop
	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugf("websocket read for game %s ended: %v", gameID, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			sc.WriteJSON(ws.NewError(fmt.Errorf("malformed message: %w", err)))
			continue
		}
		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			log.Debugf("websocket %s in game %s rejected: %v", msg.Type, gameID, err)
			sc.WriteJSON(ws.NewError(err))
		}
	}
}

// handleMessage applies a client message. Successful actions reach the
// client through the game's state broadcast.
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	var err error
	switch msg.Type {
	case ws.MessageTypeMove:
		var req moveRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return fmt.Errorf("malformed move: %w", err)
		}
		move, err := req.toModel()
		if err != nil {
			return err
		}
		_, err = wsc.gameService.HandleMove(gameID, playerID, move)
		return err
	case ws.MessageTypeUndo:
		_, err = wsc.gameService.Undo(gameID, playerID)
	case ws.MessageTypeRestart:
		_, err = wsc.gameService.Restart(gameID, playerID)
	case ws.MessageTypeResign:
		_, err = wsc.gameService.Resign(gameID, playerID)
	default:
		err = fmt.Errorf("unknown message type: %s", msg.Type)
	}
	return err
}
