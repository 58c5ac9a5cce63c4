package board

import "fmt"

// Notation formats m, played on b, the way the move list shows it:
// piece letter, the origin file for pawn captures, "x" for a capture,
// the destination square and an optional promotion suffix. Check and
// mate markers are appended by the caller once the resulting position
// is known.
func Notation(b *Board, m Move, promotion *Kind) string {
	piece := b.At(m.From)
	if piece == nil {
		return m.String()
	}
	capture := ""
	if b.At(m.To) != nil {
		capture = "x"
	}
	pawnFile := ""
	if piece.Kind == Pawn && m.From.Col != m.To.Col {
		pawnFile = m.From.file()
	}
	suffix := ""
	if promotion != nil {
		suffix = "=" + promotion.Letter()
	}
	return fmt.Sprintf("%s%s%s%s%s", piece.Kind.Letter(), pawnFile, capture, m.To, suffix)
}
