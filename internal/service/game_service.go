package service

import (
	"errors"
	"fmt"

	"github.com/benbeisheim/percaturan-backend/internal/board"
	"github.com/benbeisheim/percaturan-backend/internal/engine"
	"github.com/benbeisheim/percaturan-backend/internal/fen"
	"github.com/benbeisheim/percaturan-backend/internal/model"
	"github.com/benbeisheim/percaturan-backend/internal/storage"
)

// ErrInvalidPosition is returned when a FEN cannot be read.
var ErrInvalidPosition = errors.New("invalid position")

// ErrStatsDisabled is returned when no stats store is configured.
var ErrStatsDisabled = errors.New("player statistics are disabled")

// AnalysisDepth is the search depth used for analysis and hints.
const AnalysisDepth = 3

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) CreateGame(playerID string, opts model.Options) (model.GameState, error) {
	game, err := gs.gameManager.CreateGame(playerID, opts)
	if err != nil {
		return model.GameState{}, fmt.Errorf("failed to create game: %w", err)
	}
	return game.GetState(), nil
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	return gs.gameManager.GetGameState(gameID)
}

// LegalMoves returns the legal targets of the piece on the named square.
func (gs *GameService) LegalMoves(gameID, square string) ([]board.Square, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	sq, err := board.ParseSquare(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidSquare, err)
	}
	return game.LegalTargets(sq)
}

func (gs *GameService) HandleMove(gameID, playerID string, move model.MoveRequest) (model.GameState, error) {
	return gs.gameManager.MakeMove(gameID, playerID, move)
}

func (gs *GameService) Undo(gameID, playerID string) (model.GameState, error) {
	return gs.gameManager.Undo(gameID, playerID)
}

func (gs *GameService) Restart(gameID, playerID string) (model.GameState, error) {
	return gs.gameManager.Restart(gameID, playerID)
}

func (gs *GameService) Resign(gameID, playerID string) (model.GameState, error) {
	return gs.gameManager.Resign(gameID, playerID)
}

// CheckAccess returns ErrGameNotFound or ErrNotInGame when playerID may
// not connect to gameID.
func (gs *GameService) CheckAccess(gameID, playerID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	if !game.IsPlayerInGame(playerID) {
		return model.ErrNotInGame
	}
	return nil
}

func (gs *GameService) RegisterConnection(gameID, playerID string, conn model.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, conn model.Conn) {
	gs.gameManager.UnregisterConnection(gameID, conn)
}

// Analysis is a static evaluation plus a suggested move for the side to
// move. Scores are from white's point of view.
type Analysis struct {
	FEN        string       `json:"fen"`
	ToMove     board.Color  `json:"toMove"`
	Status     board.Status `json:"status"`
	Evaluation int          `json:"evaluation"`
	BestMove   *board.Move  `json:"bestMove"`
	Notation   string       `json:"notation,omitempty"`
	Score      int          `json:"score"`
	Depth      int          `json:"depth"`
	Nodes      uint64       `json:"nodes"`
}

func (gs *GameService) Analyze(gameID string) (Analysis, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return Analysis{}, err
	}
	state := game.GetState()
	return gs.analyze(&state.Board, state.ToMove, state.FEN), nil
}

func (gs *GameService) analyze(b *board.Board, toMove board.Color, position string) Analysis {
	a := Analysis{
		FEN:        position,
		ToMove:     toMove,
		Status:     b.Status(toMove),
		Evaluation: engine.Evaluate(b),
		Depth:      AnalysisDepth,
	}
	if a.Status.Terminal() {
		return a
	}
	res := gs.gameManager.engine.Search(b, AnalysisDepth, toMove)
	a.Nodes = res.Nodes
	if res.Found {
		a.BestMove = &res.Move
		a.Notation = board.Notation(b, res.Move, nil)
		a.Score = res.Score
	}
	return a
}

func decodePosition(s string) (board.Board, board.Color, error) {
	b, toMove, err := fen.Decode(s)
	if err != nil {
		return board.Board{}, board.White, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return b, toMove, nil
}

// PositionMoves lists the legal moves in a FEN position, optionally only
// those of the piece on square.
func (gs *GameService) PositionMoves(position, square string) ([]board.Move, error) {
	b, toMove, err := decodePosition(position)
	if err != nil {
		return nil, err
	}
	if square == "" {
		moves := b.LegalMovesFor(toMove)
		if moves == nil {
			moves = []board.Move{}
		}
		return moves, nil
	}

	sq, err := board.ParseSquare(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidSquare, err)
	}
	moves := []board.Move{}
	for _, to := range b.LegalMoves(sq) {
		moves = append(moves, board.Move{From: sq, To: to})
	}
	return moves, nil
}

type PositionStatus struct {
	ToMove     board.Color  `json:"toMove"`
	Status     board.Status `json:"status"`
	InCheck    bool         `json:"inCheck"`
	Evaluation int          `json:"evaluation"`
}

func (gs *GameService) PositionStatus(position string) (PositionStatus, error) {
	b, toMove, err := decodePosition(position)
	if err != nil {
		return PositionStatus{}, err
	}
	return PositionStatus{
		ToMove:     toMove,
		Status:     b.Status(toMove),
		InCheck:    b.IsInCheck(toMove),
		Evaluation: engine.Evaluate(&b),
	}, nil
}

type BestMove struct {
	Move     *board.Move       `json:"move"`
	Notation string            `json:"notation,omitempty"`
	FEN      string            `json:"fen,omitempty"` // position after the move
	Level    engine.Difficulty `json:"difficulty"`
}

// PositionBestMove asks the engine for a move at the given difficulty.
// Move is nil when the side to move has none.
func (gs *GameService) PositionBestMove(position string, d engine.Difficulty) (BestMove, error) {
	b, toMove, err := decodePosition(position)
	if err != nil {
		return BestMove{}, err
	}
	if d == "" {
		d = engine.Intermediate
	}
	if !d.Valid() {
		return BestMove{}, fmt.Errorf("%w: unknown difficulty %q", model.ErrInvalidOptions, d)
	}

	result := BestMove{Level: d}
	move, ok := gs.gameManager.engine.BestMove(&b, d, toMove)
	if !ok {
		return result, nil
	}
	result.Move = &move
	result.Notation = board.Notation(&b, move, nil)
	next := b.Apply(move)
	result.FEN = fen.Encode(&next, toMove.Opposite(), 1)
	return result, nil
}

func (gs *GameService) PlayerStats(playerID string) (*storage.GameStats, error) {
	if gs.gameManager.store == nil {
		return nil, ErrStatsDisabled
	}
	return gs.gameManager.store.Stats(playerID)
}
