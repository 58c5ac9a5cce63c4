package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/benbeisheim/percaturan-backend/internal/board"
	"github.com/benbeisheim/percaturan-backend/internal/engine"
	"github.com/benbeisheim/percaturan-backend/internal/fen"
	"github.com/benbeisheim/percaturan-backend/internal/ws"
)

type Resolution string

const (
	ResolveCheckmate   Resolution = "checkmate"
	ResolveStalemate   Resolution = "stalemate"
	ResolveTimeout     Resolution = "timeout"
	ResolveResignation Resolution = "resignation"
)

// Options configure a new game. Zero values select a computer game at
// intermediate difficulty with the human playing white and no clock.
type Options struct {
	Mode        Mode
	Difficulty  engine.Difficulty
	HumanColor  board.Color
	TimeControl time.Duration
	Increment   time.Duration
	FEN         string
}

func (o Options) normalize() (Options, error) {
	if o.Mode == "" {
		o.Mode = ModeComputer
	}
	if !o.Mode.Valid() {
		return o, fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, o.Mode)
	}
	if o.Difficulty == "" {
		o.Difficulty = engine.Intermediate
	}
	if !o.Difficulty.Valid() {
		return o, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidOptions, o.Difficulty)
	}
	if o.TimeControl < 0 || o.Increment < 0 {
		return o, fmt.Errorf("%w: negative time control", ErrInvalidOptions)
	}
	return o, nil
}

// The Game struct focuses on a single game's state and its observers
type Game struct {
	ID          string
	mu          sync.Mutex
	state       GameState
	opts        Options
	owner       string
	start       board.Board
	startToMove board.Color
	fullMove    int
	history     []position
	whiteClock  *Clock
	blackClock  *Clock
	recorded    bool
	connections *GameConnections
}

// GameState is the client view of a game.
type GameState struct {
	ID             string            `json:"id"`
	Board          board.Board       `json:"board"`
	FEN            string            `json:"fen"`
	ToMove         board.Color       `json:"toMove"`
	MoveHistory    []string          `json:"moveHistory"`
	CapturedPieces CapturedPieces    `json:"capturedPieces"`
	IsCheck        bool              `json:"isCheck"`
	IsGameOver     bool              `json:"isGameOver"`
	Winner         *board.Color      `json:"winner"`
	Resolve        *Resolution       `json:"resolve"`
	LastMove       *board.Move       `json:"lastMove"`
	Mode           Mode              `json:"mode"`
	Difficulty     engine.Difficulty `json:"difficulty"`
	HumanColor     board.Color       `json:"humanColor"`
	Timed          bool              `json:"timed"`
	Version        int               `json:"version"`
	Players        Players           `json:"players"`
}

// EngineTurn is everything a search needs, taken while the game is
// waiting for the computer.
type EngineTurn struct {
	GameID     string
	Board      board.Board
	Color      board.Color
	Difficulty engine.Difficulty
	Version    int
}

// Outcome is the result of a finished computer game from its owner's
// side.
type Outcome struct {
	PlayerID   string
	Difficulty engine.Difficulty
	HumanColor board.Color
	Winner     *board.Color
	Resolution Resolution
}

func NewGame(id string, opts Options) (*Game, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	start, toMove := board.New(), board.White
	if opts.FEN != "" {
		start, toMove, err = fen.Decode(opts.FEN)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		_, whiteKing := start.FindKing(board.White)
		_, blackKing := start.FindKing(board.Black)
		if !whiteKing || !blackKing {
			return nil, fmt.Errorf("%w: position needs both kings", ErrInvalidOptions)
		}
		if start.IsInCheck(toMove.Opposite()) {
			return nil, fmt.Errorf("%w: %s is in check but it is %s's move", ErrInvalidOptions, toMove.Opposite(), toMove)
		}
	}

	g := &Game{
		ID:          id,
		opts:        opts,
		start:       start,
		startToMove: toMove,
		connections: NewGameConnections(),
	}
	if opts.TimeControl > 0 {
		g.whiteClock = NewClock(opts.TimeControl, opts.Increment)
		g.blackClock = NewClock(opts.TimeControl, opts.Increment)
	}
	g.reset()
	return g, nil
}

// reset puts the game back on its starting position.
func (g *Game) reset() {
	g.state = GameState{
		ID:             g.ID,
		Board:          g.start,
		ToMove:         g.startToMove,
		MoveHistory:    make([]string, 0),
		CapturedPieces: newCapturedPieces(),
		Mode:           g.opts.Mode,
		Difficulty:     g.opts.Difficulty,
		HumanColor:     g.opts.HumanColor,
		Timed:          g.opts.TimeControl > 0,
		Version:        g.state.Version + 1,
	}
	g.fullMove = 1
	g.history = nil
	g.recorded = false
	for _, c := range []*Clock{g.whiteClock, g.blackClock} {
		if c != nil {
			c.Reset()
		}
	}
	g.refresh()
}

// refresh recomputes everything derived from the board and side to move.
func (g *Game) refresh() {
	g.state.FEN = fen.Encode(&g.state.Board, g.state.ToMove, g.fullMove)
	status := g.state.Board.Status(g.state.ToMove)
	g.state.IsCheck = status == board.Check || status == board.Checkmate
	switch status {
	case board.Checkmate:
		g.end(ResolveCheckmate, g.state.ToMove.Opposite())
	case board.Stalemate:
		g.end(ResolveStalemate, 0)
	}
}

// end finishes the game. winner is ignored for a stalemate.
func (g *Game) end(resolution Resolution, winner board.Color) {
	g.state.IsGameOver = true
	g.state.Resolve = &resolution
	g.state.Winner = nil
	if resolution != ResolveStalemate {
		g.state.Winner = &winner
	}
	for _, c := range []*Clock{g.whiteClock, g.blackClock} {
		if c != nil {
			c.Stop()
		}
	}
	log.Debugf("game %s ended by %s", g.ID, resolution)
}

func (g *Game) clock(c board.Color) *Clock {
	if c == board.White {
		return g.whiteClock
	}
	return g.blackClock
}

// AddPlayer registers the owner of the game. Adding the owner again is
// a no-op.
func (g *Game) AddPlayer(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.owner == "" {
		g.owner = playerID
		return nil
	}
	if g.owner != playerID {
		return ErrGameFull
	}
	return nil
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.owner != "" && g.owner == playerID
}

func (g *Game) authorize(playerID string) error {
	if g.owner != "" && g.owner != playerID {
		return ErrNotInGame
	}
	return nil
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// snapshot copies the state so it can be used after the lock is released.
func (g *Game) snapshot() GameState {
	s := g.state
	s.MoveHistory = slices.Clone(g.state.MoveHistory)
	s.CapturedPieces = CapturedPieces{
		White: slices.Clone(g.state.CapturedPieces.White),
		Black: slices.Clone(g.state.CapturedPieces.Black),
	}
	s.Players = g.players()
	return s
}

func (g *Game) players() Players {
	p := Players{
		White: ClientPlayer{ID: g.owner, Color: board.White},
		Black: ClientPlayer{ID: g.owner, Color: board.Black},
	}
	if g.opts.Mode == ModeComputer {
		if g.opts.HumanColor == board.White {
			p.Black = ClientPlayer{ID: "computer", Color: board.Black, Engine: true}
		} else {
			p.White = ClientPlayer{ID: "computer", Color: board.White, Engine: true}
		}
	}
	if g.whiteClock != nil {
		p.White.TimeLeft = g.whiteClock.TimeLeft().Milliseconds()
		p.Black.TimeLeft = g.blackClock.TimeLeft().Milliseconds()
	}
	return p
}

func (g *Game) engineToMove() bool {
	return g.opts.Mode == ModeComputer && g.state.ToMove != g.opts.HumanColor
}

// LegalTargets returns the squares the piece on sq may move to. Pieces
// of the side not to move have none.
func (g *Game) LegalTargets(sq board.Square) ([]board.Square, error) {
	if !sq.Valid() {
		return nil, ErrInvalidSquare
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.state.Board.At(sq)
	if g.state.IsGameOver || p == nil || p.Color != g.state.ToMove {
		return []board.Square{}, nil
	}
	targets := g.state.Board.LegalMoves(sq)
	if targets == nil {
		targets = []board.Square{}
	}
	return targets, nil
}

func (g *Game) MakeMove(playerID string, req MoveRequest) error {
	g.mu.Lock()
	err := g.makeMove(playerID, req)
	state := g.snapshot()
	g.mu.Unlock()

	if err != nil {
		return err
	}
	g.connections.broadcast(state)
	return nil
}

func (g *Game) makeMove(playerID string, req MoveRequest) error {
	if err := g.authorize(playerID); err != nil {
		return err
	}
	if g.state.IsGameOver {
		return ErrGameOver
	}
	if g.engineToMove() {
		return ErrEngineTurn
	}
	if !req.From.Valid() || !req.To.Valid() {
		return fmt.Errorf("move %s: %w", req.Move(), ErrInvalidSquare)
	}

	piece := g.state.Board.At(req.From)
	if piece == nil {
		return fmt.Errorf("no piece on %s: %w", req.From, ErrIllegalMove)
	}
	if piece.Color != g.state.ToMove {
		return ErrNotYourTurn
	}
	if !slices.Contains(g.state.Board.LegalMoves(req.From), req.To) {
		return fmt.Errorf("move %s: %w", req.Move(), ErrIllegalMove)
	}
	if req.Promotion != nil {
		switch *req.Promotion {
		case board.Queen, board.Rook, board.Bishop, board.Knight:
		default:
			return fmt.Errorf("promotion to %s: %w", *req.Promotion, ErrIllegalMove)
		}
	}

	g.play(req.Move(), req.Promotion)
	return nil
}

// ApplyEngineMove plays a move found by the engine for the position of
// the given version. Results for an older version are rejected.
func (g *Game) ApplyEngineMove(m board.Move, version int) error {
	g.mu.Lock()
	err := g.applyEngineMove(m, version)
	state := g.snapshot()
	g.mu.Unlock()

	if err != nil {
		return err
	}
	g.connections.broadcast(state)
	return nil
}

func (g *Game) applyEngineMove(m board.Move, version int) error {
	if version != g.state.Version {
		return ErrStaleEngineMove
	}
	if g.state.IsGameOver {
		return ErrGameOver
	}
	if !g.engineToMove() {
		return ErrStaleEngineMove
	}
	if !m.From.Valid() || !m.To.Valid() || !slices.Contains(g.state.Board.LegalMoves(m.From), m.To) {
		return fmt.Errorf("engine move %s: %w", m, ErrIllegalMove)
	}
	g.play(m, nil)
	return nil
}

// play applies a validated move.
func (g *Game) play(m board.Move, promotion *board.Kind) {
	b := &g.state.Board
	piece := b.At(m.From)
	mover := piece.Color

	g.history = append(g.history, position{
		board:         g.state.Board,
		toMove:        g.state.ToMove,
		fullMove:      g.fullMove,
		moves:         len(g.state.MoveHistory),
		capturedWhite: len(g.state.CapturedPieces.White),
		capturedBlack: len(g.state.CapturedPieces.Black),
		lastMove:      g.state.LastMove,
		isCheck:       g.state.IsCheck,
		whiteLeft:     g.timeLeft(board.White),
		blackLeft:     g.timeLeft(board.Black),
	})

	var promoteTo *board.Kind
	if piece.Kind == board.Pawn && (m.To.Row == 0 || m.To.Row == 7) {
		kind := board.Queen
		if promotion != nil {
			kind = *promotion
		}
		promoteTo = &kind
	}
	notation := board.Notation(b, m, promoteTo)

	if captured := b.At(m.To); captured != nil {
		if mover == board.White {
			g.state.CapturedPieces.White = append(g.state.CapturedPieces.White, *captured)
		} else {
			g.state.CapturedPieces.Black = append(g.state.CapturedPieces.Black, *captured)
		}
	}

	next := b.Apply(m)
	if promoteTo != nil {
		next.Set(m.To, board.NewPiece(*promoteTo, mover))
	}
	g.state.Board = next

	if c := g.clock(mover); c != nil {
		c.Press()
		g.clock(mover.Opposite()).Start()
	}

	if mover == board.Black {
		g.fullMove++
	}
	g.state.ToMove = mover.Opposite()
	g.state.LastMove = &m
	g.state.Version++
	g.refresh()

	switch {
	case g.state.IsGameOver && g.state.Resolve != nil && *g.state.Resolve == ResolveCheckmate:
		notation += "#"
	case g.state.IsCheck:
		notation += "+"
	}
	g.state.MoveHistory = append(g.state.MoveHistory, notation)
	log.Debugf("game %s: %s played %s", g.ID, mover, notation)
}

// Undo takes back the last move. In a computer game it keeps taking
// back moves until the human is to move again.
func (g *Game) Undo(playerID string) error {
	g.mu.Lock()
	err := g.undo(playerID)
	state := g.snapshot()
	g.mu.Unlock()

	if err != nil {
		return err
	}
	g.connections.broadcast(state)
	return nil
}

func (g *Game) undo(playerID string) error {
	if err := g.authorize(playerID); err != nil {
		return err
	}
	if r := g.state.Resolve; r != nil && (*r == ResolveResignation || *r == ResolveTimeout) {
		return ErrGameOver
	}

	target := len(g.history) - 1
	if g.opts.Mode == ModeComputer {
		for target >= 0 && g.history[target].toMove != g.opts.HumanColor {
			target--
		}
	}
	if target < 0 {
		return ErrNothingToUndo
	}

	p := g.history[target]
	g.history = g.history[:target]
	g.state.Board = p.board
	g.state.ToMove = p.toMove
	g.fullMove = p.fullMove
	g.state.MoveHistory = g.state.MoveHistory[:p.moves]
	g.state.CapturedPieces.White = g.state.CapturedPieces.White[:p.capturedWhite]
	g.state.CapturedPieces.Black = g.state.CapturedPieces.Black[:p.capturedBlack]
	g.state.LastMove = p.lastMove
	g.state.IsCheck = p.isCheck
	g.state.IsGameOver = false
	g.state.Winner = nil
	g.state.Resolve = nil
	g.state.Version++
	g.state.FEN = fen.Encode(&g.state.Board, g.state.ToMove, g.fullMove)

	if g.whiteClock != nil {
		g.whiteClock.Set(p.whiteLeft)
		g.blackClock.Set(p.blackLeft)
		if len(g.history) > 0 {
			g.clock(p.toMove).Start()
		}
	}
	return nil
}

func (g *Game) timeLeft(c board.Color) time.Duration {
	if clock := g.clock(c); clock != nil {
		return clock.TimeLeft()
	}
	return 0
}

func (g *Game) Restart(playerID string) error {
	g.mu.Lock()
	err := g.authorize(playerID)
	if err == nil {
		g.reset()
	}
	state := g.snapshot()
	g.mu.Unlock()

	if err != nil {
		return err
	}
	g.connections.broadcast(state)
	return nil
}

// Resign ends the game in the opponent's favour: the computer's in a
// computer game, otherwise the side not to move.
func (g *Game) Resign(playerID string) error {
	g.mu.Lock()
	err := g.resign(playerID)
	state := g.snapshot()
	g.mu.Unlock()

	if err != nil {
		return err
	}
	g.connections.broadcast(state)
	return nil
}

func (g *Game) resign(playerID string) error {
	if err := g.authorize(playerID); err != nil {
		return err
	}
	if g.state.IsGameOver {
		return ErrGameOver
	}
	loser := g.state.ToMove
	if g.opts.Mode == ModeComputer {
		loser = g.opts.HumanColor
	}
	g.end(ResolveResignation, loser.Opposite())
	g.state.Version++
	return nil
}

// CheckFlag ends the game on time when the running clock has expired.
// It reports whether the game ended.
func (g *Game) CheckFlag() bool {
	g.mu.Lock()
	flagged := false
	if !g.state.IsGameOver {
		if c := g.clock(g.state.ToMove); c != nil && c.Expired() {
			g.end(ResolveTimeout, g.state.ToMove.Opposite())
			g.state.Version++
			flagged = true
		}
	}
	state := g.snapshot()
	g.mu.Unlock()

	if flagged {
		g.connections.broadcast(state)
	}
	return flagged
}

// EngineTurn reports whether the computer is to move and, if so, what it
// should search.
func (g *Game) EngineTurn() (EngineTurn, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.IsGameOver || !g.engineToMove() {
		return EngineTurn{}, false
	}
	return EngineTurn{
		GameID:     g.ID,
		Board:      g.state.Board,
		Color:      g.state.ToMove,
		Difficulty: g.opts.Difficulty,
		Version:    g.state.Version,
	}, true
}

// TakeOutcome returns the result of a finished computer game once. Later
// calls report false until the game is restarted.
func (g *Game) TakeOutcome() (Outcome, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.recorded || !g.state.IsGameOver || g.opts.Mode != ModeComputer || g.owner == "" {
		return Outcome{}, false
	}
	g.recorded = true
	return Outcome{
		PlayerID:   g.owner,
		Difficulty: g.opts.Difficulty,
		HumanColor: g.opts.HumanColor,
		Winner:     g.state.Winner,
		Resolution: *g.state.Resolve,
	}, true
}

// Conn is the part of a websocket connection the game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// The connections for a specific game
type GameConnections struct {
	connections map[Conn]string // connection -> playerID
	mu          sync.Mutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[Conn]string),
	}
}

// RegisterConnection subscribes conn to state updates and sends it the
// current state.
func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	g.mu.Lock()
	err := g.authorize(playerID)
	state := g.snapshot()
	g.mu.Unlock()

	if err != nil {
		return err
	}

	g.connections.mu.Lock()
	g.connections.connections[conn] = playerID
	g.connections.mu.Unlock()
	log.Debugf("registered connection %p for player %s in game %s", conn, playerID, g.ID)

	g.connections.broadcast(state)
	return nil
}

func (g *Game) UnregisterConnection(conn Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if playerID, exists := g.connections.connections[conn]; exists {
		log.Debugf("unregistering connection %p for player %s", conn, playerID)
		delete(g.connections.connections, conn)
	}
}

// Broadcast pushes the current state to every connection.
func (g *Game) Broadcast() {
	g.connections.broadcast(g.GetState())
}

// CloseConnections closes every subscribed connection.
func (g *Game) CloseConnections() {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	for conn := range g.connections.connections {
		conn.Close()
		delete(g.connections.connections, conn)
	}
}

func (gc *GameConnections) broadcast(state GameState) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Errorf("failed to marshal state of game %s: %v", state.ID, err)
		return
	}
	msg := ws.Message{
		Type:    ws.MessageTypeGameState,
		Payload: json.RawMessage(payload),
	}

	// Writes are serialized under the lock; a connection that fails is
	// dropped.
	gc.mu.Lock()
	defer gc.mu.Unlock()
	for conn, playerID := range gc.connections {
		if err := conn.WriteJSON(msg); err != nil {
			log.Warnf("failed to send state to player %s: %v", playerID, err)
			delete(gc.connections, conn)
			conn.Close()
		}
	}
}

func (gc *GameConnections) Count() int {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return len(gc.connections)
}

func (g *Game) ConnectionCount() int {
	return g.connections.Count()
}
