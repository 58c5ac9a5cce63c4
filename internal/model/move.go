package model

import (
	"time"

	"github.com/benbeisheim/percaturan-backend/internal/board"
)

// MoveRequest is a move submitted by a player. Promotion is only read
// when a pawn reaches the last row and defaults to a queen.
type MoveRequest struct {
	From      board.Square `json:"from"`
	To        board.Square `json:"to"`
	Promotion *board.Kind  `json:"promotion,omitempty"`
}

func (r MoveRequest) Move() board.Move {
	return board.Move{From: r.From, To: r.To}
}

type CapturedPieces struct {
	White []board.Piece `json:"white"` // taken by white
	Black []board.Piece `json:"black"` // taken by black
}

func newCapturedPieces() CapturedPieces {
	return CapturedPieces{
		White: make([]board.Piece, 0),
		Black: make([]board.Piece, 0),
	}
}

// position is one entry of the undo history: everything a move changes
// apart from the clocks.
type position struct {
	board         board.Board
	toMove        board.Color
	fullMove      int
	moves         int
	capturedWhite int
	capturedBlack int
	lastMove      *board.Move
	isCheck       bool
	whiteLeft     time.Duration
	blackLeft     time.Duration
}
