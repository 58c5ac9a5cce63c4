package model

import (
	"sync"
	"time"
)

type Clock struct {
	mu          sync.Mutex
	initial     time.Duration
	increment   time.Duration
	timeLeft    time.Duration
	lastStarted time.Time // When the clock was last started
	isRunning   bool
	now         func() time.Time
}

func NewClock(initial, increment time.Duration) *Clock {
	return &Clock{
		initial:   initial,
		increment: increment,
		timeLeft:  initial,
		now:       time.Now,
	}
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		c.lastStarted = c.now()
		c.isRunning = true
	}
}

func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stop()
}

func (c *Clock) stop() {
	if c.isRunning {
		c.timeLeft -= c.now().Sub(c.lastStarted)
		c.isRunning = false
	}
}

// Press ends the owner's turn: the clock stops and, if it was running,
// the increment is credited.
func (c *Clock) Press() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		c.stop()
		c.timeLeft += c.increment
	}
}

func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timeLeft = c.initial
	c.isRunning = false
}

// Set stops the clock with d remaining.
func (c *Clock) Set(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timeLeft = d
	c.isRunning = false
}

// TimeLeft never reports less than zero.
func (c *Clock) TimeLeft() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	left := c.timeLeft
	if c.isRunning {
		left -= c.now().Sub(c.lastStarted)
	}
	return max(left, 0)
}

func (c *Clock) Expired() bool {
	return c.TimeLeft() <= 0
}

func (c *Clock) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isRunning
}
