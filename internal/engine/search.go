package engine

import (
	"golang.org/x/sync/errgroup"

	"github.com/benbeisheim/percaturan-backend/internal/board"
)

// Search constants
const (
	Infinity  = 1_000_000
	MateScore = 100_000
)

// Result is the outcome of a fixed-depth search.
type Result struct {
	Move  board.Move
	Score int    // evaluation after Move, white's point of view
	Nodes uint64 // positions visited
	Found bool   // false when the side to move had no candidate move
}

// Search runs minimax with alpha-beta pruning to depth plies for color c.
// Every root move is searched with a full window, so the result does not
// depend on how many workers share the root. Ties keep the first move in
// generation order.
func (e *Engine) Search(b *board.Board, depth int, c board.Color) Result {
	moves := e.Candidates(b, c)
	if len(moves) == 0 {
		return Result{}
	}
	if depth < 1 {
		depth = 1
	}

	scores := make([]int, len(moves))
	nodes := make([]uint64, len(moves))
	searchRoot := func(i int) {
		s := searcher{pseudoLegal: e.pseudoLegal}
		child := b.Apply(moves[i])
		scores[i] = s.minimax(&child, depth-1, -Infinity, Infinity, c.Opposite())
		nodes[i] = s.nodes
	}

	if e.workers > 1 && len(moves) > 1 {
		var g errgroup.Group
		g.SetLimit(e.workers)
		for i := range moves {
			g.Go(func() error {
				searchRoot(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range moves {
			searchRoot(i)
		}
	}

	var result Result
	for i, m := range moves {
		result.Nodes += nodes[i]
		if !result.Found || better(c, scores[i], result.Score) {
			result.Move = m
			result.Score = scores[i]
			result.Found = true
		}
	}
	return result
}

// better reports whether score a is strictly preferable to b for c.
func better(c board.Color, a, b int) bool {
	if c == board.White {
		return a > b
	}
	return a < b
}

type searcher struct {
	pseudoLegal bool
	nodes       uint64
}

func (s *searcher) candidates(b *board.Board, c board.Color) []board.Move {
	if s.pseudoLegal {
		return b.PseudoLegalMovesFor(c)
	}
	return b.LegalMovesFor(c)
}

// minimax returns the score of b with toMove to play, white maximizing
// and black minimizing.
func (s *searcher) minimax(b *board.Board, depth, alpha, beta int, toMove board.Color) int {
	s.nodes++
	if depth == 0 {
		return Evaluate(b)
	}

	moves := s.candidates(b, toMove)
	if len(moves) == 0 {
		return terminalScore(b, depth, toMove)
	}

	if toMove == board.White {
		best := -Infinity
		for _, m := range moves {
			child := b.Apply(m)
			score := s.minimax(&child, depth-1, alpha, beta, board.Black)
			best = max(best, score)
			alpha = max(alpha, score)
			if beta <= alpha {
				break
			}
		}
		return best
	}

	best := Infinity
	for _, m := range moves {
		child := b.Apply(m)
		score := s.minimax(&child, depth-1, alpha, beta, board.White)
		best = min(best, score)
		beta = min(beta, score)
		if beta <= alpha {
			break
		}
	}
	return best
}

// terminalScore scores a side with no move: mate is scored beyond any
// material swing, closer mates (more depth left) scoring higher, and
// stalemate is level.
func terminalScore(b *board.Board, depth int, toMove board.Color) int {
	if !b.IsInCheck(toMove) {
		return 0
	}
	if toMove == board.White {
		return -(MateScore + depth)
	}
	return MateScore + depth
}
