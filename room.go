package main

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type RoomPhase int

const (
	PhaseLobby RoomPhase = iota
	PhaseClueCollection
	PhaseVoting
	PhaseRoundResolved
	PhaseGameOver
)

const (
	RoleNormal = "normal"
	RoleSpy    = "spy"

	// What the spy sees in place of the secret word.
	spyWordPlaceholder = "?"

	// The only game mode implemented so far.
	ModeWIS = "WIS"
)

// Player is one member of a room, keyed by connection identity. Role and
// Word are assigned at round start and double as the recovery state for
// reconnecting clients, so no separate role cache exists to drift out of
// sync with membership.
type Player struct {
	ID   string
	Name string
	Role string
	Word string
}

// ClueEntry is one submitted clue. The submitting connection is recorded
// alongside the display name so round state never depends on names being
// unique.
type ClueEntry struct {
	PlayerID string
	Name     string
	Clue     string
}

// VoteEntry is one voter's current vote. Last vote wins.
type VoteEntry struct {
	VoterName  string
	TargetName string
}

// Room is a single game session. All fields are owned by the hub
// goroutine; nothing outside it may hold a reference across events.
type Room struct {
	code    string
	host    string // connection id, empty when no member remains
	mode    string
	started bool
	round   int
	phase   RoomPhase

	word    string
	spy     string // connection id of the current spy
	spyName string // display name captured at round start

	players map[string]*Player
	order   []string // connection ids in join order

	cluesTaken map[string]bool
	clues      []ClueEntry
	votes      map[string]VoteEntry // voter connection id -> vote

	lastActive time.Time
}

func (r *Room) touch() {
	r.lastActive = time.Now()
}

// playerViews builds the name-only roster used in broadcast payloads.
func (r *Room) playerViews() map[string]PlayerView {
	views := make(map[string]PlayerView, len(r.players))
	for id, p := range r.players {
		views[id] = PlayerView{Name: p.Name}
	}
	return views
}

func (r *Room) clueViews() []ClueView {
	views := make([]ClueView, 0, len(r.clues))
	for _, entry := range r.clues {
		views = append(views, ClueView{Name: entry.Name, Clue: entry.Clue})
	}
	return views
}

// cluesGiven counts current members marked as having submitted.
func (r *Room) cluesGiven() int {
	given := 0
	for id := range r.players {
		if r.cluesTaken[id] {
			given++
		}
	}
	return given
}

// findPlayerByName resolves a display name to a member, first match in
// join order.
func (r *Room) findPlayerByName(name string) *Player {
	for _, id := range r.order {
		if p := r.players[id]; p.Name == name {
			return p
		}
	}
	return nil
}

func (r *Room) snapshot() RoomUpdateMessage {
	return RoomUpdateMessage{
		Type:    "roomUpdate",
		Code:    r.code,
		Host:    r.host,
		Players: r.playerViews(),
		Started: r.started,
		Mode:    r.mode,
		Round:   r.round,
	}
}

// newRoomCode generates a 4-digit code unused among active rooms,
// retrying on collision rather than overwriting a live session.
func (h *Hub) newRoomCode() string {
	for {
		var buf [2]byte
		if _, err := rand.Read(buf[:]); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		code := strconv.Itoa(1000 + int(binary.BigEndian.Uint16(buf[:]))%9000)

		if _, exists := h.rooms[code]; !exists {
			return code
		}
	}
}

func (h *Hub) createRoom(c *Client, name string) error {
	name, err := h.cleanName(name)
	if err != nil {
		return err
	}

	room := &Room{
		code:       h.newRoomCode(),
		host:       c.id,
		players:    make(map[string]*Player),
		cluesTaken: make(map[string]bool),
		votes:      make(map[string]VoteEntry),
		lastActive: time.Now(),
	}
	room.players[c.id] = &Player{ID: c.id, Name: name}
	room.order = append(room.order, c.id)
	h.rooms[room.code] = room

	log.Info().Str("room", room.code).Str("player", name).Str("conn", c.id).Msg("room created")

	h.send(c, RoomCreatedMessage{Type: "roomCreated", Code: room.code})
	h.broadcast(room, room.snapshot())

	return nil
}

func (h *Hub) joinRoom(c *Client, code, name string) error {
	name, err := h.cleanName(name)
	if err != nil {
		return err
	}

	room, ok := h.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	room.touch()

	if _, member := room.players[c.id]; !member {
		room.order = append(room.order, c.id)
	}
	room.players[c.id] = &Player{ID: c.id, Name: name}

	// A room whose members all disconnected has no host; the next
	// joiner takes over.
	if room.host == "" {
		room.host = c.id
	}

	log.Info().Str("room", code).Str("player", name).Str("conn", c.id).Msg("player joined")

	h.broadcast(room, room.snapshot())

	return nil
}

// removeMember drops a connection from a room, promoting the
// earliest-joined remaining member when the host leaves and deleting the
// room when it empties. Any clue or vote already recorded stands.
func (h *Hub) removeMember(room *Room, id string) {
	p, ok := room.players[id]
	if !ok {
		return
	}

	delete(room.players, id)
	for i, ordered := range room.order {
		if ordered == id {
			room.order = append(room.order[:i], room.order[i+1:]...)
			break
		}
	}

	log.Info().Str("room", room.code).Str("player", p.Name).Str("conn", id).Msg("player left")

	if len(room.players) == 0 {
		delete(h.rooms, room.code)
		log.Info().Str("room", room.code).Msg("room closed, no players remain")
		return
	}

	if room.host == id {
		room.host = room.order[0]
		log.Info().Str("room", room.code).Str("conn", room.host).Msg("host reassigned")
	}

	room.touch()
	h.broadcast(room, room.snapshot())

	// The departure may have been the last submission everyone was
	// waiting on; re-check the phase so the remaining members are not
	// stalled until some other event arrives.
	switch room.phase {
	case PhaseClueCollection:
		if room.cluesGiven() >= len(room.players) {
			h.startVoting(room, "All clues given! Now vote for who is the spy.")
		}
	case PhaseVoting:
		if len(room.votes) >= len(room.players) {
			h.resolveRound(room)
		}
	}
}

// handleDisconnect cleans up a vanished connection across every room it
// joined.
func (h *Hub) handleDisconnect(c *Client) {
	if !c.dropped {
		c.dropped = true
		if existing, ok := h.clients[c.id]; ok && existing == c {
			delete(h.clients, c.id)
		}
		close(c.send)
	}

	for _, room := range h.rooms {
		h.removeMember(room, c.id)
	}
}

// reapIdleRooms removes rooms with no activity past the configured
// timeout, notifying any members still connected.
func (h *Hub) reapIdleRooms(now time.Time) {
	if h.cfg.sessionTimeout <= 0 {
		return
	}
	cutoff := now.Add(-h.cfg.sessionTimeout)

	for code, room := range h.rooms {
		if room.lastActive.After(cutoff) {
			continue
		}

		h.broadcast(room, GameErrorMessage{
			Type:    "gameError",
			Message: "Room closed due to inactivity.",
		})
		delete(h.rooms, code)

		log.Info().Str("room", code).Time("lastActive", room.lastActive).Msg("idle room reaped")
	}
}
