// Package fen converts boards to and from Forsyth-Edwards Notation.
// Castling rights and en passant targets are not part of the game rules
// here, so they are written as "-" and ignored when reading.
package fen

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/benbeisheim/percaturan-backend/internal/board"
)

const Start = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1"

var toChess = map[board.Piece]chess.Piece{
	{Kind: board.King, Color: board.White}:   chess.WhiteKing,
	{Kind: board.Queen, Color: board.White}:  chess.WhiteQueen,
	{Kind: board.Rook, Color: board.White}:   chess.WhiteRook,
	{Kind: board.Bishop, Color: board.White}: chess.WhiteBishop,
	{Kind: board.Knight, Color: board.White}: chess.WhiteKnight,
	{Kind: board.Pawn, Color: board.White}:   chess.WhitePawn,
	{Kind: board.King, Color: board.Black}:   chess.BlackKing,
	{Kind: board.Queen, Color: board.Black}:  chess.BlackQueen,
	{Kind: board.Rook, Color: board.Black}:   chess.BlackRook,
	{Kind: board.Bishop, Color: board.Black}: chess.BlackBishop,
	{Kind: board.Knight, Color: board.Black}: chess.BlackKnight,
	{Kind: board.Pawn, Color: board.Black}:   chess.BlackPawn,
}

var fromChess = func() map[chess.Piece]*board.Piece {
	m := make(map[chess.Piece]*board.Piece, len(toChess))
	for p, cp := range toChess {
		m[cp] = board.NewPiece(p.Kind, p.Color)
	}
	return m
}()

// chessSquare maps a (row, col) square to the library's a1=0 indexing.
func chessSquare(sq board.Square) chess.Square {
	return chess.Square((7-sq.Row)*8 + sq.Col)
}

func boardSquare(sq chess.Square) board.Square {
	return board.Square{Row: 7 - int(sq.Rank()), Col: int(sq.File())}
}

// Encode returns the FEN of b with toMove to play.
func Encode(b *board.Board, toMove board.Color, fullMove int) string {
	m := make(map[chess.Square]chess.Piece)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p == nil {
				continue
			}
			sq := board.Square{Row: row, Col: col}
			m[chessSquare(sq)] = toChess[*p]
		}
	}
	turn := "w"
	if toMove == board.Black {
		turn = "b"
	}
	if fullMove < 1 {
		fullMove = 1
	}
	return fmt.Sprintf("%s %s - - 0 %d", chess.NewBoard(m).String(), turn, fullMove)
}

// Decode parses s into a board and the side to move.
func Decode(s string) (board.Board, board.Color, error) {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(s)); err != nil {
		return board.Board{}, board.White, fmt.Errorf("parse fen: %w", err)
	}

	var b board.Board
	for sq, cp := range pos.Board().SquareMap() {
		p, ok := fromChess[cp]
		if !ok {
			continue
		}
		b.Set(boardSquare(sq), p)
	}

	toMove := board.White
	if pos.Turn() == chess.Black {
		toMove = board.Black
	}
	return b, toMove, nil
}
