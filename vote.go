package main

import (
	"github.com/rs/zerolog/log"
)

func (h *Hub) submitVote(c *Client, code, voterName, targetName string) error {
	room, ok := h.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	room.touch()

	if room.phase != PhaseVoting {
		return ErrWrongPhase
	}

	voter := room.findPlayerByName(voterName)
	if voter == nil {
		return ErrPlayerNotFound
	}

	// Keyed by connection identity, so a repeated vote overwrites the
	// voter's earlier choice rather than stuffing the ballot.
	room.votes[voter.ID] = VoteEntry{VoterName: voterName, TargetName: targetName}

	log.Debug().Str("room", code).Str("voter", voterName).Str("target", targetName).Msg("vote received")

	h.broadcast(room, VoteUpdateMessage{
		Type:          "voteUpdate",
		Voter:         voterName,
		Target:        targetName,
		VotesReceived: len(room.votes),
		TotalPlayers:  len(room.players),
	})

	if len(room.votes) >= len(room.players) {
		h.resolveRound(room)
	}

	return nil
}

// resolveRound tallies the ledger and eliminates the target with the
// most votes. Ties break to the lexicographically smallest display name.
// Eliminating the spy ends the game; anything else resolves the round
// and waits for the host.
func (h *Hub) resolveRound(room *Room) {
	counts := make(map[string]int, len(room.votes))
	for _, vote := range room.votes {
		counts[vote.TargetName]++
	}

	eliminated := ""
	top := 0
	for name, count := range counts {
		if count > top || (count == top && name < eliminated) {
			eliminated = name
			top = count
		}
	}

	wasSpyEliminated := eliminated != "" && eliminated == room.spyName

	var message string
	switch {
	case wasSpyEliminated:
		message = eliminated + " was the SPY! Counter Terrorist win! 👅"
	case eliminated == "":
		message = "No votes were cast. SPY WINS! 🕵️"
	default:
		message = eliminated + " was not the spy. SPY WINS! 🕵️"
	}

	log.Info().Str("room", room.code).Str("eliminated", eliminated).Int("votes", top).Bool("spy", wasSpyEliminated).Msg("round resolved")

	h.broadcast(room, RoundResultMessage{
		Type:             "roundResult",
		Eliminated:       eliminated,
		WasSpyEliminated: wasSpyEliminated,
		Spy:              room.spyName,
		Message:          message,
		HostID:           room.host,
	})

	if wasSpyEliminated {
		room.phase = PhaseGameOver
		h.broadcast(room, GameOverMessage{
			Type:             "gameOver",
			Eliminated:       eliminated,
			WasSpyEliminated: wasSpyEliminated,
			Spy:              room.spyName,
			Message:          message,
		})
		return
	}

	room.phase = PhaseRoundResolved
}

func (h *Hub) nextRound(c *Client, code string) error {
	room, ok := h.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	room.touch()

	if room.host != c.id {
		return ErrForbidden
	}
	if room.phase != PhaseRoundResolved {
		return ErrWrongPhase
	}

	room.round++

	log.Info().Str("room", code).Int("round", room.round).Msg("next round requested by host")

	h.startRound(room)

	return nil
}
