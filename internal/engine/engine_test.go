package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/benbeisheim/percaturan-backend/internal/board"
)

func place(pieces map[string]board.Piece) board.Board {
	var b board.Board
	for name, p := range pieces {
		sq, err := board.ParseSquare(name)
		if err != nil {
			panic(err)
		}
		piece := p
		b.Set(sq, &piece)
	}
	return b
}

func white(k board.Kind) board.Piece { return board.Piece{Kind: k, Color: board.White} }
func black(k board.Kind) board.Piece { return board.Piece{Kind: k, Color: board.Black} }

func mustSquare(t *testing.T, name string) board.Square {
	t.Helper()
	sq, err := board.ParseSquare(name)
	if err != nil {
		t.Fatal(err)
	}
	return sq
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		board board.Board
		want  int
	}{
		{"empty", board.Board{}, 0},
		{"lone white queen", place(map[string]board.Piece{"d1": white(board.Queen)}), 900},
		{"kings cancel", place(map[string]board.Piece{"e1": white(board.King), "e8": black(board.King)}), 0},
		{"white pawn on e4", place(map[string]board.Piece{"e4": white(board.Pawn)}), 120},
		{"black pawn on d5", place(map[string]board.Piece{"d5": black(board.Pawn)}), -125},
		// The bonus table is read at each pawn's own square, so black's
		// unmoved pawns on the seventh row collect the 50-point row.
		{"starting position", board.New(), 10 - 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(&tt.board); got != tt.want {
				t.Errorf("Evaluate = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDifficulty(t *testing.T) {
	tests := []struct {
		in    string
		depth int
	}{
		{"beginner", 1},
		{"intermediate", 2},
		{"advanced", 3},
		{"expert", 4},
	}
	for _, tt := range tests {
		d, err := ParseDifficulty(tt.in)
		if err != nil {
			t.Fatalf("ParseDifficulty(%q): %v", tt.in, err)
		}
		if d.Depth() != tt.depth {
			t.Errorf("%s depth = %d, want %d", d, d.Depth(), tt.depth)
		}
	}
	if _, err := ParseDifficulty("grandmaster"); err == nil {
		t.Error("expected error for unknown difficulty")
	}
}

func TestSingleLegalMove(t *testing.T) {
	// The black king on a8 can only step to a7.
	pos := place(map[string]board.Piece{
		"a8": black(board.King),
		"b1": white(board.Rook),
		"c6": white(board.King),
	})
	want := board.Move{From: mustSquare(t, "a8"), To: mustSquare(t, "a7")}

	eng := New(WithRandomMoveChance(0))
	if res := eng.Search(&pos, 1, board.Black); !res.Found || res.Move != want {
		t.Fatalf("Search depth 1 = %+v, want %v", res, want)
	}
	move, ok := eng.BestMove(&pos, Beginner, board.Black)
	if !ok || move != want {
		t.Fatalf("BestMove = %v (ok=%v), want %v", move, ok, want)
	}
}

func TestNoMoveAvailable(t *testing.T) {
	mated := place(map[string]board.Piece{
		"e8": black(board.King),
		"e7": white(board.Queen),
		"e6": white(board.King),
	})
	eng := New()
	for _, d := range []Difficulty{Beginner, Intermediate, Advanced, Expert} {
		if move, ok := eng.BestMove(&mated, d, board.Black); ok {
			t.Errorf("%s: got move %v from a mated position", d, move)
		}
	}
}

func TestCapturesHangingQueen(t *testing.T) {
	pos := place(map[string]board.Piece{
		"e1": white(board.King),
		"a1": white(board.Rook),
		"a6": black(board.Queen),
		"h8": black(board.King),
	})
	res := New().Search(&pos, 1, board.White)
	want := board.Move{From: mustSquare(t, "a1"), To: mustSquare(t, "a6")}
	if res.Move != want {
		t.Fatalf("best move = %v, want %v", res.Move, want)
	}
}

func TestFindsBackRankMate(t *testing.T) {
	pos := place(map[string]board.Piece{
		"h8": black(board.King),
		"g7": black(board.Pawn),
		"h7": black(board.Pawn),
		"a1": white(board.Rook),
		"g1": white(board.King),
	})
	res := New().Search(&pos, 2, board.White)
	want := board.Move{From: mustSquare(t, "a1"), To: mustSquare(t, "a8")}
	if res.Move != want {
		t.Fatalf("best move = %v, want %v", res.Move, want)
	}
	if res.Score < MateScore {
		t.Errorf("score = %d, want a mate score", res.Score)
	}
}

func TestExpertMovesOwnPiece(t *testing.T) {
	pos := place(map[string]board.Piece{
		"e8": black(board.King),
		"a8": black(board.Rook),
		"b8": black(board.Knight),
		"c7": black(board.Pawn),
		"d7": black(board.Pawn),
		"e1": white(board.King),
		"d1": white(board.Queen),
		"d2": white(board.Pawn),
		"e2": white(board.Pawn),
	})
	before := pos

	move, ok := New(WithWorkers(4)).BestMove(&pos, Expert, board.Black)
	if !ok {
		t.Fatal("expected a move")
	}
	if pos != before {
		t.Fatal("search modified the board")
	}
	if p := pos.At(move.From); p == nil || p.Color != board.Black {
		t.Fatalf("move %v does not start on a black piece", move)
	}
	if p := pos.At(move.To); p != nil && p.Color == board.Black {
		t.Fatalf("move %v lands on a black piece", move)
	}
	next := pos.Apply(move)
	if next.IsInCheck(board.Black) {
		t.Fatalf("move %v leaves black in check", move)
	}
}

func TestParallelRootMatchesSequential(t *testing.T) {
	start := board.New()
	for _, c := range []board.Color{board.White, board.Black} {
		seq := New(WithWorkers(1)).Search(&start, 3, c)
		par := New(WithWorkers(8)).Search(&start, 3, c)
		if seq.Move != par.Move || seq.Score != par.Score || seq.Nodes != par.Nodes {
			t.Errorf("%s: sequential %+v, parallel %+v", c, seq, par)
		}
	}
}

func TestBeginnerRandomMove(t *testing.T) {
	start := board.New()
	eng := New(WithRand(rand.New(rand.NewPCG(7, 0))), WithRandomMoveChance(1))
	legal := start.LegalMovesFor(board.White)

	seen := make(map[board.Move]bool)
	for i := 0; i < 50; i++ {
		move, ok := eng.BestMove(&start, Beginner, board.White)
		if !ok {
			t.Fatal("expected a move")
		}
		found := false
		for _, m := range legal {
			if m == move {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("random move %v is not legal", move)
		}
		seen[move] = true
	}
	if len(seen) < 2 {
		t.Errorf("50 random picks produced %d distinct moves", len(seen))
	}

	// Only beginners roll the dice.
	searched := New(WithRandomMoveChance(1)).Search(&start, Intermediate.Depth(), board.White)
	move, _ := New(WithRandomMoveChance(1)).BestMove(&start, Intermediate, board.White)
	if move != searched.Move {
		t.Errorf("intermediate BestMove = %v, want searched move %v", move, searched.Move)
	}
}

func TestPseudoLegalSearchCandidates(t *testing.T) {
	pinned := place(map[string]board.Piece{
		"e8": black(board.Rook),
		"e2": white(board.Rook),
		"e1": white(board.King),
		"a8": black(board.King),
	})
	legal := New().Candidates(&pinned, board.White)
	pseudo := New(WithPseudoLegalSearch()).Candidates(&pinned, board.White)
	if len(pseudo) <= len(legal) {
		t.Fatalf("pseudo-legal candidates = %d, legal = %d", len(pseudo), len(legal))
	}

	// Losing the king outweighs everything, so the pinned rook stays on
	// the file even when illegal moves are searched.
	res := New(WithPseudoLegalSearch()).Search(&pinned, 2, board.White)
	if res.Move.From == mustSquare(t, "e2") && res.Move.To.Col != 4 {
		t.Fatalf("pseudo-legal search abandoned the pin: %v", res.Move)
	}
}
