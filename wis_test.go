package main

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testConfig() *Config {
	return &Config{
		bind:          "127.0.0.1",
		port:          8080,
		maxNameLength: 32,
		rateLimit:     20,
		rateBurst:     40,
	}
}

func newTestHub(t *testing.T, words ...string) *Hub {
	t.Helper()

	if len(words) == 0 {
		words = []string{"APPLE", "ROCKET", "VOLCANO"}
	}

	h := newHub(testConfig(), &WordSource{words: words})
	h.rng = rand.New(rand.NewSource(42))

	return h
}

func addClient(h *Hub, id string) *Client {
	c := &Client{
		id:      id,
		send:    make(chan any, 64),
		limiter: rate.NewLimiter(rate.Limit(100), 100),
	}
	h.clients[id] = c
	return c
}

// collect drains everything currently queued for a client.
func collect(c *Client) []any {
	var msgs []any
	for {
		select {
		case m, ok := <-c.send:
			if !ok {
				return msgs
			}
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func ofType[T any](msgs []any) []T {
	var out []T
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// createTestRoom creates a room with the first name as creator, joins the
// rest, and drains all lobby traffic.
func createTestRoom(t *testing.T, h *Hub, names ...string) (string, []*Client) {
	t.Helper()

	creator := addClient(h, uuid.NewString())
	h.handleMessage(creator, ClientMessage{Type: "createRoom", Name: names[0]})

	created := ofType[RoomCreatedMessage](collect(creator))
	require.Len(t, created, 1)
	code := created[0].Code

	clients := []*Client{creator}
	for _, name := range names[1:] {
		c := addClient(h, uuid.NewString())
		h.handleMessage(c, ClientMessage{Type: "joinRoom", Room: code, Name: name})
		clients = append(clients, c)
	}

	for _, c := range clients {
		collect(c)
	}

	return code, clients
}

// startTestGame starts a WIS round and drains the per-member role
// traffic, returning the index of the spy in clients.
func startTestGame(t *testing.T, h *Hub, code string, clients []*Client) int {
	t.Helper()

	h.handleMessage(clients[0], ClientMessage{Type: "startGame", Room: code, Mode: ModeWIS})

	room := h.rooms[code]
	require.NotNil(t, room)
	require.True(t, room.started)

	spyIdx := -1
	for i, c := range clients {
		if c.id == room.spy {
			spyIdx = i
		}
		collect(c)
	}
	require.GreaterOrEqual(t, spyIdx, 0)

	return spyIdx
}

// submitAllClues walks every member through the clue phase, leaving the
// room in the voting phase.
func submitAllClues(t *testing.T, h *Hub, code string, clients []*Client) {
	t.Helper()

	room := h.rooms[code]
	require.NotNil(t, room)

	for i, c := range clients {
		name := room.players[c.id].Name
		h.handleMessage(c, ClientMessage{Type: "clue", Room: code, Name: name, Clue: fmt.Sprintf("clue-%d", i)})
	}
	for _, c := range clients {
		collect(c)
	}

	require.Equal(t, PhaseVoting, room.phase)
}

func TestGameScenario(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)

	alice := addClient(h, "conn-a")
	h.handleMessage(alice, ClientMessage{Type: "createRoom", Name: "Alice"})

	created := ofType[RoomCreatedMessage](collect(alice))
	require.Len(t, created, 1)
	code := created[0].Code
	assert.Regexp(t, `^\d{4}$`, code)

	bob := addClient(h, "conn-b")
	h.handleMessage(bob, ClientMessage{Type: "joinRoom", Room: code, Name: "Bob"})

	// Starting with two players fails and the room stays in the lobby.
	h.handleMessage(alice, ClientMessage{Type: "startGame", Room: code, Mode: ModeWIS})
	failures := ofType[GameErrorMessage](collect(alice))
	require.Len(t, failures, 1)
	assert.Equal(t, "At least 3 players are required to start the game!", failures[0].Message)
	assert.False(t, h.rooms[code].started)

	carol := addClient(h, "conn-c")
	h.handleMessage(carol, ClientMessage{Type: "joinRoom", Room: code, Name: "Carol"})

	updates := ofType[RoomUpdateMessage](collect(carol))
	require.NotEmpty(t, updates)
	assert.Len(t, updates[len(updates)-1].Players, 3)
	collect(alice)
	collect(bob)

	// Third player present, the game starts.
	h.handleMessage(alice, ClientMessage{Type: "startGame", Room: code, Mode: ModeWIS})

	spies := 0
	for _, c := range []*Client{alice, bob, carol} {
		msgs := collect(c)

		roles := ofType[YourRoleMessage](msgs)
		require.Len(t, roles, 1)
		if roles[0].Role == RoleSpy {
			spies++
			assert.Equal(t, spyWordPlaceholder, roles[0].Word)
		} else {
			assert.Equal(t, RoleNormal, roles[0].Role)
			assert.Equal(t, h.rooms[code].word, roles[0].Word)
		}

		rounds := ofType[RoundStartedMessage](msgs)
		require.Len(t, rounds, 1)
		assert.Equal(t, 1, rounds[0].Round)
		assert.Equal(t, 3, rounds[0].TotalPlayers)

		started := ofType[GameStartedMessage](msgs)
		require.Len(t, started, 1)
		assert.Equal(t, roles[0].Role, started[0].Role)
		assert.Equal(t, roles[0].Word, started[0].Word)
	}
	assert.Equal(t, 1, spies)
}

func TestEvictedClientIsTerminal(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)

	c := &Client{id: uuid.NewString(), send: make(chan any, 1)}
	h.clients[c.id] = c
	c.send <- RoomCreatedMessage{Type: "roomCreated"}

	// The buffer is full, so this send evicts the client.
	h.send(c, GameErrorMessage{Type: "gameError"})

	assert.True(t, c.dropped)
	assert.NotContains(t, h.clients, c.id)

	// Its channel is closed now; further sends and queued events from
	// the connection must be ignored rather than panicking the hub.
	h.send(c, GameErrorMessage{Type: "gameError"})
	h.handleMessage(c, ClientMessage{Type: "createRoom", Name: "Alice"})
	assert.Empty(t, h.rooms)

	// A late disconnect of the same connection is a no-op, not a
	// double close.
	h.handleDisconnect(c)

	// The eviction itself is still observable downstream: the queued
	// message survives and the channel reads as closed afterwards.
	msg, ok := <-c.send
	assert.True(t, ok)
	assert.Equal(t, RoomCreatedMessage{Type: "roomCreated"}, msg)
	_, ok = <-c.send
	assert.False(t, ok)
}

func TestUnknownEventIgnored(t *testing.T) {
	t.Parallel()

	h := newTestHub(t)
	c := addClient(h, "conn-0")

	h.handleMessage(c, ClientMessage{Type: "selfDestruct"})

	assert.Empty(t, collect(c))
}
