package engine

import "github.com/benbeisheim/percaturan-backend/internal/board"

// Material values in centipawns, from white's point of view.
var PieceValues = [...]int{
	board.Pawn:   100,
	board.Rook:   500,
	board.Knight: 300,
	board.Bishop: 300,
	board.Queen:  900,
	board.King:   10000,
}

// pawnBonus is indexed by the pawn's own (row, col) for both colors.
var pawnBonus = [8][8]int{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{50, 50, 50, 50, 50, 50, 50, 50},
	{10, 10, 20, 30, 30, 20, 10, 10},
	{5, 5, 10, 25, 25, 10, 5, 5},
	{0, 0, 0, 20, 20, 0, 0, 0},
	{5, -5, -10, 0, 0, -10, -5, 5},
	{5, 10, 10, -20, -20, 10, 10, 5},
	{0, 0, 0, 0, 0, 0, 0, 0},
}

// Evaluate scores b statically. Positive favors white, negative black.
func Evaluate(b *board.Board) int {
	score := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p == nil {
				continue
			}
			value := PieceValues[p.Kind]
			if p.Kind == board.Pawn {
				value += pawnBonus[row][col]
			}
			if p.Color == board.Black {
				value = -value
			}
			score += value
		}
	}
	return score
}
