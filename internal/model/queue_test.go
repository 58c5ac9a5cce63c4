package model

import (
	"errors"
	"testing"
)

func TestQueue(t *testing.T) {
	q := NewQueue()
	for _, id := range []string{"a", "b", "c"} {
		if err := q.Add(id); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}
	if err := q.Add("a"); !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("duplicate Add: err = %v", err)
	}
	if q.Size() != 3 {
		t.Fatalf("Size = %d, want 3", q.Size())
	}

	turn, ok := q.Next()
	if !ok || turn.GameID != "a" {
		t.Fatalf("Next = %+v, %v", turn, ok)
	}
	// Still held while being searched.
	if err := q.Add("a"); !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("Add while active: err = %v", err)
	}
	q.Done("a")
	if err := q.Add("a"); err != nil {
		t.Fatalf("Add after Done: %v", err)
	}

	var order []string
	for {
		turn, ok := q.Next()
		if !ok {
			break
		}
		order = append(order, turn.GameID)
	}
	if len(order) != 3 || order[0] != "b" || order[1] != "c" || order[2] != "a" {
		t.Fatalf("order = %v, want [b c a]", order)
	}
}
