package model

import "github.com/benbeisheim/percaturan-backend/internal/board"

type ClientPlayer struct {
	ID       string      `json:"id"`
	Color    board.Color `json:"color"`
	TimeLeft int64       `json:"timeLeft"` // milliseconds, 0 when untimed
	Engine   bool        `json:"engine"`
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

type Mode string

const (
	// ModeHuman is hotseat play: the owner moves both colours.
	ModeHuman    Mode = "human"
	ModeComputer Mode = "computer"
)

func (m Mode) Valid() bool {
	return m == ModeHuman || m == ModeComputer
}
