package service

import "errors"

// Common service errors
var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrProfileNotFound = errors.New("arena profile not found")
)

// Lobby service specific errors
var (
	ErrEmptyPool         = errors.New("no questions match the requested filters")
	ErrAlreadyClaimed    = errors.New("match already claimed by another challenger")
	ErrOwnRoom           = errors.New("cannot challenge your own room")
	ErrNotHost           = errors.New("only the host may perform this action")
	ErrInvalidTransition = errors.New("invalid match status transition")
)

// Battle service specific errors
var (
	ErrNotParticipant   = errors.New("user is not a participant of this match")
	ErrMatchNotPlaying  = errors.New("match is not in playing status")
	ErrQuestionNotFound = errors.New("question not found")
)

// Profile service specific errors
var (
	ErrInvalidAvatarClass = errors.New("unknown avatar class")
	ErrInvalidTowerFloor  = errors.New("tower floor must be at least 1")
)
