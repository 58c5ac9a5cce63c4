package engine

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/benbeisheim/percaturan-backend/internal/board"
)

// Difficulty represents the AI difficulty level.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
	Expert       Difficulty = "expert"
)

// difficultyDepth maps difficulty to search depth in plies.
var difficultyDepth = map[Difficulty]int{
	Beginner:     1,
	Intermediate: 2,
	Advanced:     3,
	Expert:       4,
}

// Depth returns the search depth for d, or 0 for an unknown level.
func (d Difficulty) Depth() int {
	return difficultyDepth[d]
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyDepth[d]
	return ok
}

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if !d.Valid() {
		return "", fmt.Errorf("invalid difficulty %q", s)
	}
	return d, nil
}

// DefaultRandomMoveChance is the probability that a beginner engine
// plays a random move instead of searching.
const DefaultRandomMoveChance = 0.3

// Engine picks moves for the computer opponent. It keeps no position
// state between calls; only its random source is shared, under a lock.
type Engine struct {
	mu               sync.Mutex
	rng              *rand.Rand
	randomMoveChance float64
	workers          int
	pseudoLegal      bool
}

type Option func(*Engine)

// WithRand replaces the random source, mostly for reproducible tests.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

func WithRandomMoveChance(p float64) Option {
	return func(e *Engine) { e.randomMoveChance = p }
}

// WithWorkers searches up to n root moves concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// WithPseudoLegalSearch makes the engine consider moves that leave its
// own king attacked. Such moves are only avoided because losing the
// king costs its material value.
func WithPseudoLegalSearch() Option {
	return func(e *Engine) { e.pseudoLegal = true }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		rng:              rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		randomMoveChance: DefaultRandomMoveChance,
		workers:          1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Candidates returns the moves the engine chooses from for color c.
func (e *Engine) Candidates(b *board.Board, c board.Color) []board.Move {
	if e.pseudoLegal {
		return b.PseudoLegalMovesFor(c)
	}
	return b.LegalMovesFor(c)
}

// BestMove returns the engine's move for color c at difficulty d. It
// returns false when c has no move to play.
func (e *Engine) BestMove(b *board.Board, d Difficulty, c board.Color) (board.Move, bool) {
	if d == Beginner {
		if move, ok := e.randomMove(b, c); ok {
			return move, true
		}
	}
	depth := d.Depth()
	if depth == 0 {
		depth = Beginner.Depth()
	}
	result := e.Search(b, depth, c)
	return result.Move, result.Found
}

// randomMove rolls the beginner dice and, on a hit, picks uniformly among
// the candidate moves.
func (e *Engine) randomMove(b *board.Board, c board.Color) (board.Move, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rng.Float64() >= e.randomMoveChance {
		return board.Move{}, false
	}
	moves := e.Candidates(b, c)
	if len(moves) == 0 {
		return board.Move{}, false
	}
	return moves[e.rng.IntN(len(moves))], true
}
