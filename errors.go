package main

import "errors"

var (
	ErrInsufficientPlayers = errors.New("insufficient players")
	ErrForbidden           = errors.New("forbidden")
	ErrNameRequired        = errors.New("name required")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrWrongPhase          = errors.New("wrong phase")
)

// errorText maps an operation failure to the text shown to the
// originating client.
func errorText(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "Room does not exist!"
	case errors.Is(err, ErrInsufficientPlayers):
		return "At least 3 players are required to start the game!"
	case errors.Is(err, ErrForbidden):
		return "Only the host can start the next round!"
	case errors.Is(err, ErrPlayerNotFound):
		return "Player not found in this room!"
	case errors.Is(err, ErrNameRequired):
		return "A player name is required!"
	case errors.Is(err, ErrWrongPhase):
		return "That action is not allowed right now!"
	default:
		return "Something went wrong. Please try again."
	}
}
