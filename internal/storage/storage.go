package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gofiber/fiber/v2/log"
)

const keyStatsPrefix = "stats:"

// Outcome of a finished game from the player's side.
type Outcome string

const (
	Win  Outcome = "win"
	Loss Outcome = "loss"
	Draw Outcome = "draw"
)

// GameStats stores a player's results against the computer.
type GameStats struct {
	GamesPlayed    int            `json:"gamesPlayed"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Draws          int            `json:"draws"`
	WinsByDiff     map[string]int `json:"winsByDifficulty"`
	CurrentStreak  int            `json:"currentStreak"`
	LongestWinStrk int            `json:"longestWinStreak"`
	LastPlayed     time.Time      `json:"lastPlayed"`
}

func NewGameStats() *GameStats {
	return &GameStats{
		WinsByDiff: make(map[string]int),
	}
}

// WinRate returns the win rate as a percentage (0-100).
func (s *GameStats) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

// GameResult represents the result of a completed game
type GameResult struct {
	Outcome    Outcome
	Difficulty string
	Resolution string
	PlayedAt   time.Time
}

type Options struct {
	Dir      string
	InMemory bool
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
	mu sync.Mutex // serializes read-modify-write of stats
}

func Open(o Options) (*Storage, error) {
	opts := badger.DefaultOptions(o.Dir)
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = badgerLogger{}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Stats loads a player's statistics, returning empty stats if none exist.
func (s *Storage) Stats(playerID string) (*GameStats, error) {
	stats := NewGameStats()

	err := s.db.View(func(txn *badger.Txn) error {
		return loadStats(txn, playerID, stats)
	})
	return stats, err
}

func loadStats(txn *badger.Txn, playerID string, stats *GameStats) error {
	item, err := txn.Get(statsKey(playerID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
}

// RecordResult adds a finished game to a player's statistics.
func (s *Storage) RecordResult(playerID string, result GameResult) (*GameStats, error) {
	if playerID == "" {
		return nil, errors.New("empty player id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := NewGameStats()
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := loadStats(txn, playerID, stats); err != nil {
			return err
		}
		stats.apply(result)

		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return txn.Set(statsKey(playerID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("record result for %s: %w", playerID, err)
	}
	return stats, nil
}

func (s *GameStats) apply(result GameResult) {
	s.GamesPlayed++
	s.LastPlayed = result.PlayedAt
	if s.LastPlayed.IsZero() {
		s.LastPlayed = time.Now()
	}

	switch result.Outcome {
	case Win:
		s.Wins++
		s.CurrentStreak++
		s.LongestWinStrk = max(s.LongestWinStrk, s.CurrentStreak)
		if result.Difficulty != "" {
			s.WinsByDiff[result.Difficulty]++
		}
	case Draw:
		s.Draws++
		s.CurrentStreak = 0
	default:
		s.Losses++
		s.CurrentStreak = 0
	}
}

func statsKey(playerID string) []byte {
	return []byte(keyStatsPrefix + playerID)
}

// badgerLogger routes badger's logs through the fiber logger. Badger's
// info output is noisy, so it is logged at debug level.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{})   { log.Errorf("badger: "+format, args...) }
func (badgerLogger) Warningf(format string, args ...interface{}) { log.Warnf("badger: "+format, args...) }
func (badgerLogger) Infof(format string, args ...interface{})    { log.Debugf("badger: "+format, args...) }
func (badgerLogger) Debugf(format string, args ...interface{})   { log.Debugf("badger: "+format, args...) }
