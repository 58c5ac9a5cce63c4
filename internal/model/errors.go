package model

import "errors"

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrNotInGame       = errors.New("player not in game")
	ErrGameFull        = errors.New("game already has an owner")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrEngineTurn      = errors.New("computer is to move")
	ErrInvalidSquare   = errors.New("invalid square")
	ErrIllegalMove     = errors.New("illegal move")
	ErrGameOver        = errors.New("game is over")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrStaleEngineMove = errors.New("engine move no longer applies")
	ErrInvalidOptions  = errors.New("invalid game options")
	ErrAlreadyQueued   = errors.New("game already queued")
)
