package main

import (
	"time"

	"github.com/rs/zerolog/log"
)

// phaseDeadline is posted into the hub loop when a configured phase
// timer fires. Round and phase are captured at scheduling time so stale
// fires are ignored.
type phaseDeadline struct {
	code  string
	round int
	phase RoomPhase
}

func (h *Hub) startGame(c *Client, code, mode string) error {
	room, ok := h.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	room.touch()

	if room.started {
		return ErrWrongPhase
	}
	if len(room.players) < 3 {
		return ErrInsufficientPlayers
	}

	room.started = true
	room.mode = mode
	room.round = 1

	log.Info().Str("room", code).Str("mode", mode).Str("conn", c.id).Int("players", len(room.players)).Msg("game started")

	h.startRound(room)

	return nil
}

// startRound resets all round-scoped state, assigns roles, and walks the
// room into clue collection. Exactly one member becomes the spy; everyone
// else receives the secret word.
func (h *Hub) startRound(room *Room) {
	room.phase = PhaseClueCollection
	room.clues = nil
	room.votes = make(map[string]VoteEntry)
	room.cluesTaken = make(map[string]bool, len(room.players))
	for _, id := range room.order {
		room.cluesTaken[id] = false
	}

	if room.mode == ModeWIS {
		room.word = h.words.Draw(h.rng)
		room.spy = room.order[h.rng.Intn(len(room.order))]
		room.spyName = room.players[room.spy].Name

		for _, id := range room.order {
			p := room.players[id]
			if id == room.spy {
				p.Role = RoleSpy
				p.Word = spyWordPlaceholder
			} else {
				p.Role = RoleNormal
				p.Word = room.word
			}

			log.Debug().Str("room", room.code).Str("player", p.Name).Str("role", p.Role).Msg("role assigned")

			h.sendTo(id, YourRoleMessage{Type: "yourRole", Role: p.Role, Word: p.Word})
		}
	}

	h.broadcast(room, RoundStartedMessage{
		Type:         "roundStarted",
		Round:        room.round,
		Mode:         room.mode,
		Players:      room.playerViews(),
		TotalPlayers: len(room.players),
	})

	for _, id := range room.order {
		p := room.players[id]
		h.sendTo(id, GameStartedMessage{
			Type: "gameStarted",
			Mode: room.mode,
			Role: p.Role,
			Word: p.Word,
		})
	}

	log.Info().Str("room", room.code).Int("round", room.round).Msg("round started")

	h.schedulePhaseDeadline(room, h.cfg.clueTimeout)
}

func (h *Hub) submitClue(c *Client, code, name, clue string) error {
	room, ok := h.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	room.touch()

	if room.phase != PhaseClueCollection {
		return ErrWrongPhase
	}

	p := room.findPlayerByName(name)
	if p == nil {
		return ErrPlayerNotFound
	}

	room.cluesTaken[p.ID] = true
	room.clues = append(room.clues, ClueEntry{PlayerID: p.ID, Name: name, Clue: clue})

	log.Debug().Str("room", code).Str("player", name).Str("clue", clue).Msg("clue received")

	h.broadcast(room, ClueMessage{Type: "clue", Name: name, Clue: clue})
	h.broadcast(room, ClueStatusMessage{
		Type:         "clueStatus",
		CluesGiven:   room.cluesGiven(),
		TotalPlayers: len(room.players),
		Players:      room.playerViews(),
		CluesTaken:   room.cluesTaken,
	})

	// Every current member, spy included, must submit before voting opens.
	if room.cluesGiven() >= len(room.players) {
		h.startVoting(room, "All clues given! Now vote for who is the spy.")
	}

	return nil
}

// startVoting transitions a room from clue collection to voting. The
// phase guard in submitClue makes this fire exactly once per round.
func (h *Hub) startVoting(room *Room, message string) {
	room.phase = PhaseVoting

	log.Info().Str("room", room.code).Int("clues", len(room.clues)).Msg("voting started")

	h.broadcast(room, StartVotingMessage{
		Type:    "startVoting",
		Players: room.playerViews(),
		Clues:   room.clueViews(),
		Message: message,
	})

	h.schedulePhaseDeadline(room, h.cfg.voteTimeout)
}

// recoverState replays the current round to a connection that already
// holds a role in the room: its private role, the round snapshot, every
// stored clue in submission order, and the clue tally. A connection with
// no role here gets nothing; it arrived before assignment or asked about
// the wrong room.
func (h *Hub) recoverState(c *Client, code string) {
	room, ok := h.rooms[code]
	if !ok {
		log.Debug().Str("room", code).Str("conn", c.id).Msg("state requested for unknown room")
		return
	}

	p, member := room.players[c.id]
	if !member || p.Role == "" {
		log.Debug().Str("room", code).Str("conn", c.id).Msg("state requested with no stored role")
		return
	}
	room.touch()

	h.send(c, YourRoleMessage{Type: "yourRole", Role: p.Role, Word: p.Word})
	h.send(c, RoundStartedMessage{
		Type:         "roundStarted",
		Round:        room.round,
		Mode:         room.mode,
		Players:      room.playerViews(),
		TotalPlayers: len(room.players),
	})

	for _, entry := range room.clues {
		h.send(c, ClueMessage{Type: "clue", Name: entry.Name, Clue: entry.Clue})
	}

	h.send(c, ClueStatusMessage{
		Type:         "clueStatus",
		CluesGiven:   room.cluesGiven(),
		TotalPlayers: len(room.players),
		Players:      room.playerViews(),
		CluesTaken:   room.cluesTaken,
	})

	log.Debug().Str("room", code).Str("player", p.Name).Int("clues", len(room.clues)).Msg("state replayed")
}

// schedulePhaseDeadline arms a timer that force-advances the room's
// current phase. A timeout of zero leaves the room waiting indefinitely.
func (h *Hub) schedulePhaseDeadline(room *Room, timeout time.Duration) {
	if timeout <= 0 {
		return
	}

	deadline := phaseDeadline{code: room.code, round: room.round, phase: room.phase}
	time.AfterFunc(timeout, func() {
		select {
		case h.deadlines <- deadline:
		default:
		}
	})
}

// handleDeadline advances a room whose phase timer expired. Fires for
// rooms, rounds, or phases that have since moved on are dropped.
func (h *Hub) handleDeadline(d phaseDeadline) {
	room, ok := h.rooms[d.code]
	if !ok || room.round != d.round || room.phase != d.phase {
		return
	}

	log.Info().Str("room", d.code).Int("round", d.round).Int("phase", int(d.phase)).Msg("phase deadline reached")

	switch d.phase {
	case PhaseClueCollection:
		h.startVoting(room, "Time is up! Now vote for who is the spy.")
	case PhaseVoting:
		h.resolveRound(room)
	}
}
