package board

import (
	"encoding/json"
	"testing"
)

// diagram builds a board from eight rows of FEN letters, black on top,
// '.' for an empty square:
//
//	diagram(t,
//		"rnbqkbnr",
//		"pppppppp",
//		"........",
//		...
//	)
func diagram(t *testing.T, rows ...string) Board {
	t.Helper()
	if len(rows) != 8 {
		t.Fatalf("diagram needs 8 rows, got %d", len(rows))
	}
	var b Board
	for row, line := range rows {
		if len(line) != 8 {
			t.Fatalf("diagram row %d has %d squares", row, len(line))
		}
		for col := 0; col < 8; col++ {
			ch := line[col]
			if ch == '.' {
				continue
			}
			color := Black
			if ch >= 'A' && ch <= 'Z' {
				color = White
				ch += 'a' - 'A'
			}
			kinds := map[byte]Kind{'p': Pawn, 'r': Rook, 'n': Knight, 'b': Bishop, 'q': Queen, 'k': King}
			k, ok := kinds[ch]
			if !ok {
				t.Fatalf("bad diagram letter %q", line[col])
			}
			b[row][col] = NewPiece(k, color)
		}
	}
	return b
}

func sq(t *testing.T, name string) Square {
	t.Helper()
	s, err := ParseSquare(name)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewBoard(t *testing.T) {
	b := New()

	if got := b.Count(White); got != 16 {
		t.Errorf("white pieces = %d, want 16", got)
	}
	if got := b.Count(Black); got != 16 {
		t.Errorf("black pieces = %d, want 16", got)
	}

	if k, ok := b.FindKing(White); !ok || k != (Square{Row: 7, Col: 4}) {
		t.Errorf("white king at %v (found=%v), want (7,4)", k, ok)
	}
	if k, ok := b.FindKing(Black); !ok || k != (Square{Row: 0, Col: 4}) {
		t.Errorf("black king at %v (found=%v), want (0,4)", k, ok)
	}

	if b.IsInCheck(White) || b.IsInCheck(Black) {
		t.Error("nobody should be in check in the starting position")
	}

	want := "rnbqkbnr\npppppppp\n........\n........\n........\n........\nPPPPPPPP\nRNBQKBNR\n"
	if got := b.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestApplyDoesNotMutate(t *testing.T) {
	b := New()
	before := b

	next := b.Apply(Move{From: Square{Row: 6, Col: 4}, To: Square{Row: 4, Col: 4}})

	if b != before {
		t.Fatal("Apply modified the receiver")
	}
	if b.At(Square{Row: 6, Col: 4}) == nil || b.At(Square{Row: 4, Col: 4}) != nil {
		t.Fatal("original board lost its e2 pawn")
	}
	if next.At(Square{Row: 6, Col: 4}) != nil {
		t.Error("origin square not cleared on the copy")
	}
	if p := next.At(Square{Row: 4, Col: 4}); p == nil || p.Kind != Pawn || p.Color != White {
		t.Errorf("e4 holds %v, want white pawn", p)
	}
}

func TestSquareNotation(t *testing.T) {
	tests := []struct {
		sq   Square
		name string
	}{
		{Square{Row: 7, Col: 0}, "a1"},
		{Square{Row: 0, Col: 7}, "h8"},
		{Square{Row: 6, Col: 4}, "e2"},
		{Square{Row: 4, Col: 4}, "e4"},
	}
	for _, tt := range tests {
		if got := tt.sq.String(); got != tt.name {
			t.Errorf("%v.String() = %q, want %q", tt.sq, got, tt.name)
		}
		parsed, err := ParseSquare(tt.name)
		if err != nil {
			t.Fatalf("ParseSquare(%q): %v", tt.name, err)
		}
		if parsed != tt.sq {
			t.Errorf("ParseSquare(%q) = %v, want %v", tt.name, parsed, tt.sq)
		}
	}

	for _, bad := range []string{"", "e", "i1", "a9", "e22"} {
		if _, err := ParseSquare(bad); err == nil {
			t.Errorf("ParseSquare(%q) should fail", bad)
		}
	}
}

func TestPieceJSON(t *testing.T) {
	data, err := json.Marshal(NewPiece(Knight, Black))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"knight","color":"black"}` {
		t.Fatalf("marshal = %s", data)
	}

	var p Piece
	if err := json.Unmarshal([]byte(`{"type":"queen","color":"white"}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Kind != Queen || p.Color != White {
		t.Fatalf("unmarshal = %+v", p)
	}

	if err := json.Unmarshal([]byte(`{"type":"wizard","color":"white"}`), &p); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestNotation(t *testing.T) {
	b := diagram(t,
		"....k...",
		"........",
		"........",
		"...p....",
		"....P...",
		"........",
		"........",
		"....K..R",
	)
	queen := Queen

	tests := []struct {
		name      string
		move      Move
		promotion *Kind
		want      string
	}{
		{"pawn push", Move{From: sq(t, "e4"), To: sq(t, "e5")}, nil, "e5"},
		{"pawn capture", Move{From: sq(t, "e4"), To: sq(t, "d5")}, nil, "exd5"},
		{"rook move", Move{From: sq(t, "h1"), To: sq(t, "h8")}, nil, "Rh8"},
		{"promotion suffix", Move{From: sq(t, "e4"), To: sq(t, "e5")}, &queen, "e5=Q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Notation(&b, tt.move, tt.promotion); got != tt.want {
				t.Errorf("Notation = %q, want %q", got, tt.want)
			}
		})
	}
}
