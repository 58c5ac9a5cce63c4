package board

import "fmt"

// Square is a (row, col) coordinate. Row 0 is black's back rank and
// row 7 is white's.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

// String returns the algebraic name of the square, e.g. (6,4) is "e2".
func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, 8-s.Row)
}

func (s Square) file() string {
	return fmt.Sprintf("%c", 'a'+s.Col)
}

func ParseSquare(name string) (Square, error) {
	if len(name) != 2 || name[0] < 'a' || name[0] > 'h' || name[1] < '1' || name[1] > '8' {
		return Square{}, fmt.Errorf("invalid square %q", name)
	}
	return Square{Row: 8 - int(name[1]-'0'), Col: int(name[0] - 'a')}, nil
}

type Move struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// Board is an 8x8 grid of pieces, nil meaning empty. It is a value:
// assigning a Board copies the grid.
type Board [8][8]*Piece

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// New returns the standard starting position.
func New() Board {
	var b Board
	for col := 0; col < 8; col++ {
		b[0][col] = NewPiece(backRank[col], Black)
		b[1][col] = NewPiece(Pawn, Black)
		b[6][col] = NewPiece(Pawn, White)
		b[7][col] = NewPiece(backRank[col], White)
	}
	return b
}

// At returns the piece on sq, or nil for an empty or off-board square.
func (b *Board) At(sq Square) *Piece {
	if !sq.Valid() {
		return nil
	}
	return b[sq.Row][sq.Col]
}

// Set places p on sq. Only use it on a board the caller owns.
func (b *Board) Set(sq Square, p *Piece) {
	if sq.Valid() {
		b[sq.Row][sq.Col] = p
	}
}

// Apply returns a copy of the board with the piece on m.From moved to
// m.To. The receiver is not modified.
func (b *Board) Apply(m Move) Board {
	next := *b
	next[m.To.Row][m.To.Col] = next[m.From.Row][m.From.Col]
	next[m.From.Row][m.From.Col] = nil
	return next
}

// Count returns the number of pieces of color c.
func (b *Board) Count(c Color) int {
	n := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b[row][col]; p != nil && p.Color == c {
				n++
			}
		}
	}
	return n
}

// FindKing returns the first king of color c in row-major order.
func (b *Board) FindKing(c Color) (Square, bool) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b[row][col]; p != nil && p.Color == c && p.Kind == King {
				return Square{Row: row, Col: col}, true
			}
		}
	}
	return Square{}, false
}

// String renders the board with black on top, using FEN letters and
// '.' for empty squares.
func (b *Board) String() string {
	out := make([]byte, 0, 72)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			out = append(out, pieceChar(b[row][col]))
		}
		out = append(out, '\n')
	}
	return string(out)
}

func pieceChar(p *Piece) byte {
	if p == nil {
		return '.'
	}
	c := "prnbqk"[p.Kind]
	if p.Color == White {
		c -= 'a' - 'A'
	}
	return c
}
