package main

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoom(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	c := addClient(h, "conn-0")

	h.handleMessage(c, ClientMessage{Type: "createRoom", Name: "Alice"})

	msgs := collect(c)

	created := ofType[RoomCreatedMessage](msgs)
	require.Len(t, created, 1)

	code, err := strconv.Atoi(created[0].Code)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, code, 1000)
	assert.LessOrEqual(t, code, 9999)

	updates := ofType[RoomUpdateMessage](msgs)
	require.Len(t, updates, 1)
	assert.Equal(t, c.id, updates[0].Host)
	assert.Len(t, updates[0].Players, 1)
	assert.False(t, updates[0].Started)

	room := h.rooms[created[0].Code]
	require.NotNil(t, room)
	assert.Equal(t, c.id, room.host)
	assert.Equal(t, PhaseLobby, room.phase)
}

func TestCreateRoomBlankName(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	c := addClient(h, "conn-0")

	h.handleMessage(c, ClientMessage{Type: "createRoom", Name: "   "})

	failures := ofType[GameErrorMessage](collect(c))
	require.Len(t, failures, 1)
	assert.Equal(t, "A player name is required!", failures[0].Message)
	assert.Empty(t, h.rooms)
}

func TestCreateRoomTruncatesLongName(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	c := addClient(h, "conn-0")

	h.handleMessage(c, ClientMessage{Type: "createRoom", Name: strings.Repeat("x", 50)})

	created := ofType[RoomCreatedMessage](collect(c))
	require.Len(t, created, 1)

	room := h.rooms[created[0].Code]
	require.NotNil(t, room)
	assert.Len(t, room.players[c.id].Name, h.cfg.maxNameLength)
}

func TestJoinRoomNotFound(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	c := addClient(h, "conn-0")

	h.handleMessage(c, ClientMessage{Type: "joinRoom", Room: "1234", Name: "Bob"})

	failures := ofType[GameErrorMessage](collect(c))
	require.Len(t, failures, 1)
	assert.Equal(t, "Room does not exist!", failures[0].Message)
}

func TestJoinRoomBroadcastsToAllMembers(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	code, clients := createTestRoom(t, h, "Alice", "Bob")

	c := addClient(h, "conn-9")
	h.handleMessage(c, ClientMessage{Type: "joinRoom", Room: code, Name: "Carol"})

	for _, member := range append(clients, c) {
		updates := ofType[RoomUpdateMessage](collect(member))
		require.NotEmpty(t, updates)
		assert.Len(t, updates[len(updates)-1].Players, 3)
	}
}

func TestHostPromotionIsDeterministic(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	code, clients := createTestRoom(t, h, "Alice", "Bob", "Carol")

	h.handleDisconnect(clients[0])

	room := h.rooms[code]
	require.NotNil(t, room)
	assert.Equal(t, clients[1].id, room.host)

	updates := ofType[RoomUpdateMessage](collect(clients[1]))
	require.NotEmpty(t, updates)
	assert.Equal(t, clients[1].id, updates[len(updates)-1].Host)
	assert.Len(t, updates[len(updates)-1].Players, 2)
}

func TestEmptyRoomIsDeleted(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	code, clients := createTestRoom(t, h, "Alice", "Bob")

	h.handleDisconnect(clients[0])
	h.handleDisconnect(clients[1])

	assert.NotContains(t, h.rooms, code)
}

func TestDisconnectMidRoundKeepsRecordedState(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	code, clients := createTestRoom(t, h, "Alice", "Bob", "Carol", "Dave")
	startTestGame(t, h, code, clients)

	h.handleMessage(clients[1], ClientMessage{Type: "clue", Room: code, Name: "Bob", Clue: "something"})
	h.handleDisconnect(clients[1])

	room := h.rooms[code]
	require.NotNil(t, room)
	assert.Len(t, room.clues, 1)
	assert.Equal(t, "Bob", room.clues[0].Name)
	assert.NotContains(t, room.players, clients[1].id)
}

func TestDisconnectCompletesCluePhase(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	code, clients := createTestRoom(t, h, "Alice", "Bob", "Carol")
	startTestGame(t, h, code, clients)

	h.handleMessage(clients[0], ClientMessage{Type: "clue", Room: code, Name: "Alice", Clue: "one"})
	h.handleMessage(clients[1], ClientMessage{Type: "clue", Room: code, Name: "Bob", Clue: "two"})
	for _, c := range clients {
		collect(c)
	}

	// The only member still owing a clue leaves; the remaining members
	// should move on to voting instead of waiting forever.
	h.handleDisconnect(clients[2])

	room := h.rooms[code]
	require.NotNil(t, room)
	assert.Equal(t, PhaseVoting, room.phase)

	voting := ofType[StartVotingMessage](collect(clients[0]))
	require.Len(t, voting, 1)
	assert.Len(t, voting[0].Clues, 2)
}

func TestDisconnectCompletesVotingPhase(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	code, clients := createTestRoom(t, h, "Alice", "Bob", "Carol")
	startTestGame(t, h, code, clients)
	submitAllClues(t, h, code, clients)

	room := h.rooms[code]
	spyName := room.spyName

	h.handleMessage(clients[0], ClientMessage{Type: "vote", Room: code, PlayerName: "Alice", TargetName: spyName})
	h.handleMessage(clients[1], ClientMessage{Type: "vote", Room: code, PlayerName: "Bob", TargetName: spyName})
	for _, c := range clients {
		collect(c)
	}

	h.handleDisconnect(clients[2])

	assert.Equal(t, PhaseGameOver, room.phase)

	results := ofType[RoundResultMessage](collect(clients[0]))
	require.Len(t, results, 1)
	assert.Equal(t, spyName, results[0].Eliminated)
	assert.True(t, results[0].WasSpyEliminated)
}

func TestReapIdleRooms(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	h.cfg.sessionTimeout = time.Minute

	code, clients := createTestRoom(t, h, "Alice", "Bob", "Carol")
	h.rooms[code].lastActive = time.Now().Add(-2 * time.Minute)

	fresh, _ := createTestRoom(t, h, "Dave", "Erin", "Frank")

	h.reapIdleRooms(time.Now())

	assert.NotContains(t, h.rooms, code)
	assert.Contains(t, h.rooms, fresh)

	failures := ofType[GameErrorMessage](collect(clients[0]))
	require.Len(t, failures, 1)
	assert.Equal(t, "Room closed due to inactivity.", failures[0].Message)
}

func TestNewRoomCodeStaysInRange(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)

	for i := 0; i < 50; i++ {
		code, err := strconv.Atoi(h.newRoomCode())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, code, 1000)
		assert.LessOrEqual(t, code, 9999)
	}
}
