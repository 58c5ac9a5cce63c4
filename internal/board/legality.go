package board

import "fmt"

// Status classifies the position for the side to move.
type Status uint8

const (
	Ongoing Status = iota
	Check
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Check:
		return "check"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	}
	return "ongoing"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{Ongoing, Check, Checkmate, Stalemate} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("invalid status %q", text)
}

// Terminal reports whether the side to move has no legal move.
func (s Status) Terminal() bool {
	return s == Checkmate || s == Stalemate
}

// IsInCheck reports whether the king of color c is attacked. A board
// without a king of that color is never in check.
func (b *Board) IsInCheck(c Color) bool {
	king, ok := b.FindKing(c)
	if !ok {
		return false
	}
	return b.attacked(king, c.Opposite())
}

// attacked reports whether a piece of color by could capture on sq,
// which must hold a piece of the other color. It looks outward from sq
// instead of generating every attacker's moves.
func (b *Board) attacked(sq Square, by Color) bool {
	if b.rayAttacked(sq, by, rookDirs, Rook) || b.rayAttacked(sq, by, bishopDirs, Bishop) {
		return true
	}
	for _, off := range knightDirs {
		if b.holds(Square{Row: sq.Row + off.Row, Col: sq.Col + off.Col}, by, Knight) {
			return true
		}
	}
	for _, off := range kingDirs {
		if b.holds(Square{Row: sq.Row + off.Row, Col: sq.Col + off.Col}, by, King) {
			return true
		}
	}
	// A pawn of color by attacks one row ahead of itself, so it sits one
	// row behind sq from its own point of view.
	row := sq.Row - PawnDirection(by)
	for _, dc := range [2]int{-1, 1} {
		if b.holds(Square{Row: row, Col: sq.Col + dc}, by, Pawn) {
			return true
		}
	}
	return false
}

func (b *Board) rayAttacked(sq Square, by Color, dirs []Square, slider Kind) bool {
	for _, dir := range dirs {
		target := Square{Row: sq.Row + dir.Row, Col: sq.Col + dir.Col}
		for target.Valid() {
			if p := b.At(target); p != nil {
				if p.Color == by && (p.Kind == slider || p.Kind == Queen) {
					return true
				}
				break
			}
			target = Square{Row: target.Row + dir.Row, Col: target.Col + dir.Col}
		}
	}
	return false
}

func (b *Board) holds(sq Square, c Color, k Kind) bool {
	p := b.At(sq)
	return p != nil && p.Color == c && p.Kind == k
}

// LegalMoves returns the pseudo-legal targets of the piece on sq that do
// not leave its own king in check.
func (b *Board) LegalMoves(sq Square) []Square {
	piece := b.At(sq)
	if piece == nil {
		return nil
	}
	var legal []Square
	for _, to := range b.PseudoLegalMoves(sq) {
		next := b.Apply(Move{From: sq, To: to})
		if !next.IsInCheck(piece.Color) {
			legal = append(legal, to)
		}
	}
	return legal
}

// LegalMovesFor enumerates the legal moves of every piece of color c in
// row-major order.
func (b *Board) LegalMovesFor(c Color) []Move {
	var moves []Move
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p == nil || p.Color != c {
				continue
			}
			from := Square{Row: row, Col: col}
			for _, to := range b.LegalMoves(from) {
				moves = append(moves, Move{From: from, To: to})
			}
		}
	}
	return moves
}

func (b *Board) HasLegalMove(c Color) bool {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p != nil && p.Color == c && len(b.LegalMoves(Square{Row: row, Col: col})) > 0 {
				return true
			}
		}
	}
	return false
}

func (b *Board) IsCheckmate(c Color) bool {
	return b.IsInCheck(c) && !b.HasLegalMove(c)
}

func (b *Board) IsStalemate(c Color) bool {
	return !b.IsInCheck(c) && !b.HasLegalMove(c)
}

// Status classifies the position with c to move.
func (b *Board) Status(c Color) Status {
	inCheck := b.IsInCheck(c)
	hasMove := b.HasLegalMove(c)
	switch {
	case inCheck && !hasMove:
		return Checkmate
	case !hasMove:
		return Stalemate
	case inCheck:
		return Check
	}
	return Ongoing
}
