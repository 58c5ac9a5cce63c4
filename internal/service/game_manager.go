// service/game_manager.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/benbeisheim/percaturan-backend/internal/board"
	"github.com/benbeisheim/percaturan-backend/internal/engine"
	"github.com/benbeisheim/percaturan-backend/internal/model"
	"github.com/benbeisheim/percaturan-backend/internal/storage"
)

// StatsStore persists results of finished computer games.
type StatsStore interface {
	RecordResult(playerID string, result storage.GameResult) (*storage.GameStats, error)
	Stats(playerID string) (*storage.GameStats, error)
}

// MoveFinder picks engine moves. *engine.Engine implements it.
type MoveFinder interface {
	BestMove(b *board.Board, d engine.Difficulty, c board.Color) (board.Move, bool)
	Search(b *board.Board, depth int, c board.Color) engine.Result
}

// Minimum time the computer appears to think before its move is played,
// scaled by ManagerOptions.ThinkScale.
var minThinkTime = map[engine.Difficulty]time.Duration{
	engine.Beginner:     2000 * time.Millisecond,
	engine.Intermediate: 2500 * time.Millisecond,
	engine.Advanced:     3000 * time.Millisecond,
	engine.Expert:       3500 * time.Millisecond,
}

type ManagerOptions struct {
	Engine        MoveFinder
	Store         StatsStore // optional
	SearchTimeout time.Duration
	ThinkScale    float64
	TickInterval  time.Duration
	MaxSearches   int
}

type GameManager struct {
	games  map[string]*model.Game
	queue  *model.Queue
	engine MoveFinder
	store  StatsStore
	mu     sync.RWMutex

	searchTimeout time.Duration
	thinkScale    float64
	tick          time.Duration
	searches      chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewGameManager(opts ManagerOptions) *GameManager {
	if opts.Engine == nil {
		opts.Engine = engine.New()
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 30 * time.Second
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond
	}
	if opts.MaxSearches <= 0 {
		opts.MaxSearches = 4
	}
	if opts.ThinkScale < 0 {
		opts.ThinkScale = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	gm := &GameManager{
		games:         make(map[string]*model.Game),
		queue:         model.NewQueue(),
		engine:        opts.Engine,
		store:         opts.Store,
		searchTimeout: opts.SearchTimeout,
		thinkScale:    opts.ThinkScale,
		tick:          opts.TickInterval,
		searches:      make(chan struct{}, opts.MaxSearches),
		ctx:           ctx,
		cancel:        cancel,
	}

	// Start engine turn and clock processor
	gm.wg.Add(1)
	go gm.run()

	return gm
}

// Close stops the processing loop, waits for pending engine turns to
// finish or give up, and closes every websocket connection.
func (gm *GameManager) Close() {
	gm.closeOnce.Do(func() {
		gm.cancel()
		gm.wg.Wait()

		gm.mu.RLock()
		defer gm.mu.RUnlock()
		for _, game := range gm.games {
			game.CloseConnections()
		}
	})
}

func (gm *GameManager) run() {
	defer gm.wg.Done()
	ticker := time.NewTicker(gm.tick)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
			gm.sweep()
			gm.dispatchEngineTurns()
		}
	}
}

// sweep flags expired clocks and queues any game waiting on the engine.
func (gm *GameManager) sweep() {
	for _, game := range gm.snapshotGames() {
		if game.CheckFlag() {
			log.Infof("game %s lost on time", game.ID)
			gm.recordOutcome(game)
			continue
		}
		gm.schedule(game)
	}
}

func (gm *GameManager) snapshotGames() []*model.Game {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	games := make([]*model.Game, 0, len(gm.games))
	for _, game := range gm.games {
		games = append(games, game)
	}
	return games
}

func (gm *GameManager) schedule(game *model.Game) {
	if _, ok := game.EngineTurn(); !ok {
		return
	}
	if err := gm.queue.Add(game.ID); err == nil {
		log.Debugf("queued engine turn for game %s", game.ID)
	}
}

func (gm *GameManager) dispatchEngineTurns() {
	for {
		turn, ok := gm.queue.Next()
		if !ok {
			return
		}
		gm.wg.Add(1)
		go func() {
			defer gm.wg.Done()
			defer gm.queue.Done(turn.GameID)

			select {
			case gm.searches <- struct{}{}:
			case <-gm.ctx.Done():
				return
			}
			var once sync.Once
			gm.playEngineTurn(turn, func() {
				once.Do(func() { <-gm.searches })
			})
		}()
	}
}

type searchResult struct {
	move board.Move
	ok   bool
}

// playEngineTurn searches the queued position and plays the result if
// the game has not changed meanwhile. A search that outlives the timeout
// is abandoned in favour of a one-ply search. release frees the search
// slot; an abandoned search keeps its slot until it returns, so at most
// MaxSearches full searches ever run at once.
func (gm *GameManager) playEngineTurn(queued model.QueuedTurn, release func()) {
	game, err := gm.GetGame(queued.GameID)
	if err != nil {
		release()
		return
	}
	turn, ok := game.EngineTurn()
	if !ok {
		release()
		return
	}

	started := time.Now()
	ctx, cancel := context.WithTimeout(gm.ctx, gm.searchTimeout)
	defer cancel()

	results := make(chan searchResult, 1)
	go func() {
		defer release()
		move, ok := gm.engine.BestMove(&turn.Board, turn.Difficulty, turn.Color)
		results <- searchResult{move: move, ok: ok}
	}()

	var res searchResult
	select {
	case res = <-results:
	case <-ctx.Done():
		if gm.ctx.Err() != nil {
			return
		}
		log.Warnf("engine search for game %s exceeded %s, falling back to one ply", game.ID, gm.searchTimeout)
		r := gm.engine.Search(&turn.Board, 1, turn.Color)
		res = searchResult{move: r.Move, ok: r.Found}
	}
	if !res.ok {
		return
	}

	if wait := gm.thinkTime(turn.Difficulty) - time.Since(started); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-gm.ctx.Done():
			return
		}
	}

	if err := game.ApplyEngineMove(res.move, turn.Version); err != nil {
		if errors.Is(err, model.ErrStaleEngineMove) || errors.Is(err, model.ErrGameOver) {
			log.Debugf("discarding engine move %s for game %s: %v", res.move, game.ID, err)
			return
		}
		log.Errorf("engine move %s for game %s rejected: %v", res.move, game.ID, err)
		return
	}
	log.Debugf("engine played %s in game %s after %s", res.move, game.ID, time.Since(started))
	gm.recordOutcome(game)
}

func (gm *GameManager) thinkTime(d engine.Difficulty) time.Duration {
	return time.Duration(float64(minThinkTime[d]) * gm.thinkScale)
}

// recordOutcome stores the result of a finished computer game once.
func (gm *GameManager) recordOutcome(game *model.Game) {
	if gm.store == nil {
		return
	}
	out, ok := game.TakeOutcome()
	if !ok {
		return
	}

	result := storage.GameResult{
		Outcome:    storage.Loss,
		Difficulty: string(out.Difficulty),
		Resolution: string(out.Resolution),
		PlayedAt:   time.Now(),
	}
	switch {
	case out.Winner == nil:
		result.Outcome = storage.Draw
	case *out.Winner == out.HumanColor:
		result.Outcome = storage.Win
	}
	if _, err := gm.store.RecordResult(out.PlayerID, result); err != nil {
		log.Errorf("failed to record result of game %s: %v", game.ID, err)
		return
	}
	log.Infof("recorded %s for player %s (%s, %s)", result.Outcome, out.PlayerID, result.Difficulty, result.Resolution)
}

// afterChange runs once a player action has been applied to game.
func (gm *GameManager) afterChange(game *model.Game) {
	gm.recordOutcome(game)
	gm.schedule(game)
}

func (gm *GameManager) CreateGame(playerID string, opts model.Options) (*model.Game, error) {
	gameID := uuid.New().String()
	game, err := model.NewGame(gameID, opts)
	if err != nil {
		return nil, err
	}
	if err := game.AddPlayer(playerID); err != nil {
		return nil, err
	}

	gm.mu.Lock()
	gm.games[gameID] = game
	gm.mu.Unlock()

	state := game.GetState()
	log.Infof("created %s game %s for player %s (%s, human plays %s)", state.Mode, gameID, playerID, state.Difficulty, state.HumanColor)
	gm.afterChange(game)
	return game, nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, fmt.Errorf("game %s: %w", gameID, model.ErrGameNotFound)
	}
	return game, nil
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

// update runs a player action on a game and handles its consequences.
func (gm *GameManager) update(gameID string, action func(*model.Game) error) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	if err := action(game); err != nil {
		return model.GameState{}, err
	}
	gm.afterChange(game)
	return game.GetState(), nil
}

func (gm *GameManager) MakeMove(gameID, playerID string, move model.MoveRequest) (model.GameState, error) {
	return gm.update(gameID, func(g *model.Game) error { return g.MakeMove(playerID, move) })
}

func (gm *GameManager) Undo(gameID, playerID string) (model.GameState, error) {
	return gm.update(gameID, func(g *model.Game) error { return g.Undo(playerID) })
}

func (gm *GameManager) Restart(gameID, playerID string) (model.GameState, error) {
	return gm.update(gameID, func(g *model.Game) error { return g.Restart(playerID) })
}

func (gm *GameManager) Resign(gameID, playerID string) (model.GameState, error) {
	return gm.update(gameID, func(g *model.Game) error { return g.Resign(playerID) })
}

func (gm *GameManager) RegisterConnection(gameID, playerID string, conn model.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, conn model.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(conn)
}

// PendingEngineTurns is the number of games waiting for a search slot.
func (gm *GameManager) PendingEngineTurns() int {
	return gm.queue.Size()
}
