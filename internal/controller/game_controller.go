package controller

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/benbeisheim/percaturan-backend/internal/board"
	"github.com/benbeisheim/percaturan-backend/internal/engine"
	"github.com/benbeisheim/percaturan-backend/internal/model"
	"github.com/benbeisheim/percaturan-backend/internal/service"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

type createGameRequest struct {
	Mode        model.Mode        `json:"mode"`
	Difficulty  engine.Difficulty `json:"difficulty"`
	Color       string            `json:"color"`       // white, black or random
	TimeControl int               `json:"timeControl"` // seconds, 0 for no clock
	Increment   int               `json:"increment"`   // seconds
	FEN         string            `json:"fen"`
}

func (r createGameRequest) options() (model.Options, error) {
	opts := model.Options{
		Mode:        r.Mode,
		Difficulty:  r.Difficulty,
		TimeControl: time.Duration(r.TimeControl) * time.Second,
		Increment:   time.Duration(r.Increment) * time.Second,
		FEN:         r.FEN,
	}
	switch r.Color {
	case "":
		opts.HumanColor = board.White
	case "random":
		opts.HumanColor = board.Color(rand.IntN(2))
	default:
		c, err := board.ParseColor(r.Color)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", model.ErrInvalidOptions, err)
		}
		opts.HumanColor = c
	}
	return opts, nil
}

// moveRequest names squares algebraically, e.g. {"from": "e2", "to": "e4"}.
type moveRequest struct {
	From      string      `json:"from"`
	To        string      `json:"to"`
	Promotion *board.Kind `json:"promotion,omitempty"`
}

func (r moveRequest) toModel() (model.MoveRequest, error) {
	from, err := board.ParseSquare(r.From)
	if err != nil {
		return model.MoveRequest{}, fmt.Errorf("%w: %v", model.ErrInvalidSquare, err)
	}
	to, err := board.ParseSquare(r.To)
	if err != nil {
		return model.MoveRequest{}, fmt.Errorf("%w: %v", model.ErrInvalidSquare, err)
	}
	return model.MoveRequest{From: from, To: to, Promotion: r.Promotion}, nil
}

type positionRequest struct {
	FEN        string            `json:"fen"`
	Square     string            `json:"square"`
	Difficulty engine.Difficulty `json:"difficulty"`
}

func playerID(c *fiber.Ctx) string {
	id, _ := c.Locals("playerID").(string)
	return id
}

// parseBody decodes a JSON body; an empty body leaves out untouched.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

// writeError maps domain errors to HTTP statuses.
func writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
	case errors.Is(err, model.ErrGameNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, model.ErrNotInGame), errors.Is(err, model.ErrGameFull):
		status = fiber.StatusForbidden
	case errors.Is(err, model.ErrNotYourTurn), errors.Is(err, model.ErrEngineTurn),
		errors.Is(err, model.ErrGameOver), errors.Is(err, model.ErrNothingToUndo):
		status = fiber.StatusConflict
	case errors.Is(err, model.ErrIllegalMove):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInvalidSquare), errors.Is(err, model.ErrInvalidOptions),
		errors.Is(err, service.ErrInvalidPosition):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrStatsDisabled):
		status = fiber.StatusServiceUnavailable
	}
	if status == fiber.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}
	opts, err := req.options()
	if err != nil {
		return writeError(c, err)
	}

	state, err := gc.gameService.CreateGame(playerID(c), opts)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(state)
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	square := c.Query("square")
	targets, err := gc.gameService.LegalMoves(c.Params("gameId"), square)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"square": square,
		"moves":  targets,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var req moveRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}
	move, err := req.toModel()
	if err != nil {
		return writeError(c, err)
	}
	state, err := gc.gameService.HandleMove(c.Params("gameId"), playerID(c), move)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(state)
}

func (gc *GameController) Undo(c *fiber.Ctx) error {
	return gc.control(c, gc.gameService.Undo)
}

func (gc *GameController) Restart(c *fiber.Ctx) error {
	return gc.control(c, gc.gameService.Restart)
}

func (gc *GameController) Resign(c *fiber.Ctx) error {
	return gc.control(c, gc.gameService.Resign)
}

func (gc *GameController) control(c *fiber.Ctx, action func(gameID, playerID string) (model.GameState, error)) error {
	state, err := action(c.Params("gameId"), playerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(state)
}

func (gc *GameController) Analysis(c *fiber.Ctx) error {
	analysis, err := gc.gameService.Analyze(c.Params("gameId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(analysis)
}

func (gc *GameController) PositionMoves(c *fiber.Ctx) error {
	var req positionRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}
	moves, err := gc.gameService.PositionMoves(req.FEN, req.Square)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"moves": moves,
	})
}

func (gc *GameController) PositionStatus(c *fiber.Ctx) error {
	var req positionRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}
	status, err := gc.gameService.PositionStatus(req.FEN)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(status)
}

func (gc *GameController) PositionBestMove(c *fiber.Ctx) error {
	var req positionRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}
	best, err := gc.gameService.PositionBestMove(req.FEN, req.Difficulty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(best)
}

func (gc *GameController) PlayerStats(c *fiber.Ctx) error {
	stats, err := gc.gameService.PlayerStats(playerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"stats":   stats,
		"winRate": stats.WinRate(),
	})
}
