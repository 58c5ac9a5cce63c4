package model

import (
	"sync"
	"time"
)

// QueuedTurn is a game waiting for the computer to move.
type QueuedTurn struct {
	GameID   string
	QueuedAt time.Time
}

// Queue is a FIFO of pending engine turns. A game is held from Add until
// Done, so it is never queued or searched twice at once.
type Queue struct {
	turns  []QueuedTurn
	active map[string]bool
	mu     sync.Mutex
}

func NewQueue() *Queue {
	return &Queue{
		turns:  []QueuedTurn{},
		active: make(map[string]bool),
	}
}

func (q *Queue) Add(gameID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active[gameID] {
		return ErrAlreadyQueued
	}
	q.active[gameID] = true
	q.turns = append(q.turns, QueuedTurn{
		GameID:   gameID,
		QueuedAt: time.Now(),
	})
	return nil
}

// Next pops the longest waiting turn.
func (q *Queue) Next() (QueuedTurn, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.turns) == 0 {
		return QueuedTurn{}, false
	}
	turn := q.turns[0]
	q.turns = q.turns[1:]
	return turn, true
}

// Done releases gameID so it can be queued again.
func (q *Queue) Done(gameID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.active, gameID)
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.turns)
}
