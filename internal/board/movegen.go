package board

// Direction and offset tables. Their order fixes the order in which
// moves are generated, which the search relies on for tie-breaking.
var (
	rookDirs   = []Square{{Row: 0, Col: 1}, {Row: 0, Col: -1}, {Row: 1, Col: 0}, {Row: -1, Col: 0}}
	bishopDirs = []Square{{Row: 1, Col: 1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: -1, Col: -1}}
	knightDirs = []Square{
		{Row: -2, Col: -1}, {Row: -2, Col: 1}, {Row: -1, Col: -2}, {Row: -1, Col: 2},
		{Row: 1, Col: -2}, {Row: 1, Col: 2}, {Row: 2, Col: -1}, {Row: 2, Col: 1},
	}
	kingDirs = []Square{
		{Row: -1, Col: -1}, {Row: -1, Col: 0}, {Row: -1, Col: 1},
		{Row: 0, Col: -1}, {Row: 0, Col: 1},
		{Row: 1, Col: -1}, {Row: 1, Col: 0}, {Row: 1, Col: 1},
	}
)

// PawnDirection is the row delta of a forward pawn step for c.
func PawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

// PseudoLegalMoves returns the target squares the piece on sq may move
// to by its movement rules alone, ignoring whether the move leaves its
// own king in check. An empty square yields no moves.
func (b *Board) PseudoLegalMoves(sq Square) []Square {
	piece := b.At(sq)
	if piece == nil {
		return nil
	}
	switch piece.Kind {
	case Pawn:
		return b.pawnMoves(sq, piece)
	case Rook:
		return b.slidingMoves(sq, piece, rookDirs, nil)
	case Knight:
		return b.stepMoves(sq, piece, knightDirs)
	case Bishop:
		return b.slidingMoves(sq, piece, bishopDirs, nil)
	case Queen:
		moves := b.slidingMoves(sq, piece, rookDirs, nil)
		return b.slidingMoves(sq, piece, bishopDirs, moves)
	case King:
		return b.stepMoves(sq, piece, kingDirs)
	}
	return nil
}

// PseudoLegalMovesFor enumerates the pseudo-legal moves of every piece
// of color c, scanning squares in row-major order.
func (b *Board) PseudoLegalMovesFor(c Color) []Move {
	var moves []Move
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p == nil || p.Color != c {
				continue
			}
			from := Square{Row: row, Col: col}
			for _, to := range b.PseudoLegalMoves(from) {
				moves = append(moves, Move{From: from, To: to})
			}
		}
	}
	return moves
}

func (b *Board) pawnMoves(sq Square, piece *Piece) []Square {
	var moves []Square
	dir := PawnDirection(piece.Color)

	one := Square{Row: sq.Row + dir, Col: sq.Col}
	if one.Valid() && b.At(one) == nil {
		moves = append(moves, one)
		two := Square{Row: sq.Row + 2*dir, Col: sq.Col}
		if sq.Row == pawnStartRow(piece.Color) && b.At(two) == nil {
			moves = append(moves, two)
		}
	}

	for _, dc := range [2]int{-1, 1} {
		target := Square{Row: sq.Row + dir, Col: sq.Col + dc}
		if !target.Valid() {
			continue
		}
		if occupant := b.At(target); occupant != nil && occupant.Color != piece.Color {
			moves = append(moves, target)
		}
	}
	return moves
}

// slidingMoves walks each ray until the board edge, stopping before an
// own piece and after an opponent piece.
func (b *Board) slidingMoves(sq Square, piece *Piece, dirs []Square, moves []Square) []Square {
	for _, dir := range dirs {
		target := Square{Row: sq.Row + dir.Row, Col: sq.Col + dir.Col}
		for target.Valid() {
			occupant := b.At(target)
			if occupant == nil {
				moves = append(moves, target)
			} else {
				if occupant.Color != piece.Color {
					moves = append(moves, target)
				}
				break
			}
			target = Square{Row: target.Row + dir.Row, Col: target.Col + dir.Col}
		}
	}
	return moves
}

func (b *Board) stepMoves(sq Square, piece *Piece, offsets []Square) []Square {
	var moves []Square
	for _, off := range offsets {
		target := Square{Row: sq.Row + off.Row, Col: sq.Col + off.Col}
		if !target.Valid() {
			continue
		}
		if occupant := b.At(target); occupant == nil || occupant.Color != piece.Color {
			moves = append(moves, target)
		}
	}
	return moves
}
