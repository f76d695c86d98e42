// Who Is Spy
//
// Players join a room via a shared 4-digit code. Each round, one member
// is secretly the spy; everyone else receives a common secret word. All
// players submit a free-text clue, then vote to eliminate a suspected
// spy. Eliminating the spy ends the game; otherwise the host starts the
// next round.
//
// The hub goroutine owns every room and processes one event at a time:
// client messages, disconnects, phase deadlines, and reaper ticks all
// arrive over channels and are handled to completion before the next,
// so room state needs no locking.

package main

import (
	"context"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

type inboundEvent struct {
	client *Client
	msg    ClientMessage
}

type roomLookup struct {
	code string
	resp chan bool
}

type Hub struct {
	cfg   *Config
	words *WordSource
	rng   *rand.Rand

	clients map[string]*Client
	rooms   map[string]*Room

	register   chan *Client
	unregister chan *Client
	events     chan inboundEvent
	deadlines  chan phaseDeadline
	lookups    chan roomLookup
}

func newHub(cfg *Config, words *WordSource) *Hub {
	return &Hub{
		cfg:        cfg,
		words:      words,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		clients:    make(map[string]*Client),
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan inboundEvent, 256),
		deadlines:  make(chan phaseDeadline, 64),
		lookups:    make(chan roomLookup),
	}
}

func (h *Hub) run(ctx context.Context) {
	var reaper <-chan time.Time
	if h.cfg.sessionTimeout > 0 {
		ticker := time.NewTicker(h.cfg.sessionTimeout / 2)
		defer ticker.Stop()
		reaper = ticker.C
	}

	for {
		select {
		case c := <-h.register:
			h.clients[c.id] = c
			log.Debug().Str("conn", c.id).Msg("connection registered")

		case c := <-h.unregister:
			h.handleDisconnect(c)

		case ev := <-h.events:
			h.handleMessage(ev.client, ev.msg)

		case d := <-h.deadlines:
			h.handleDeadline(d)

		case now := <-reaper:
			h.reapIdleRooms(now)

		case lookup := <-h.lookups:
			_, ok := h.rooms[lookup.code]
			lookup.resp <- ok

		case <-ctx.Done():
			return
		}
	}
}

// roomExists answers membership queries from outside the hub goroutine.
func (h *Hub) roomExists(ctx context.Context, code string) bool {
	lookup := roomLookup{code: code, resp: make(chan bool, 1)}
	select {
	case h.lookups <- lookup:
	case <-ctx.Done():
		return false
	}
	select {
	case ok := <-lookup.resp:
		return ok
	case <-ctx.Done():
		return false
	}
}

// handleMessage maps one inbound client event to the matching operation.
// Any failure is logged and surfaced to the sender as a gameError.
func (h *Hub) handleMessage(c *Client, msg ClientMessage) {
	if c.dropped {
		log.Debug().Str("conn", c.id).Str("event", msg.Type).Msg("event from evicted connection ignored")
		return
	}

	var err error

	switch msg.Type {
	case "createRoom":
		err = h.createRoom(c, msg.Name)
	case "joinRoom":
		err = h.joinRoom(c, msg.Room, msg.Name)
	case "startGame":
		err = h.startGame(c, msg.Room, msg.Mode)
	case "getGameState":
		h.recoverState(c, msg.Room)
	case "clue":
		err = h.submitClue(c, msg.Room, msg.Name, msg.Clue)
	case "vote":
		err = h.submitVote(c, msg.Room, msg.PlayerName, msg.TargetName)
	case "nextRound":
		err = h.nextRound(c, msg.Room)
	default:
		log.Debug().Str("conn", c.id).Str("event", msg.Type).Msg("unknown event type ignored")
	}

	if err != nil {
		log.Warn().Err(err).Str("conn", c.id).Str("event", msg.Type).Str("room", msg.Room).Msg("event rejected")
		h.send(c, GameErrorMessage{Type: "gameError", Message: errorText(err)})
	}
}

func (h *Hub) cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}

	runes := []rune(name)
	if len(runes) > h.cfg.maxNameLength {
		name = string(runes[:h.cfg.maxNameLength])
	}

	return name, nil
}

// send delivers to one client without blocking the hub; a client whose
// buffer is full is dropped and cleaned up via its own read pump. An
// already-evicted client's channel is closed and must not be sent to.
func (h *Hub) send(c *Client, msg any) {
	if c.dropped {
		return
	}

	select {
	case c.send <- msg:
	default:
		h.drop(c)
	}
}

func (h *Hub) sendTo(id string, msg any) {
	if c, ok := h.clients[id]; ok {
		h.send(c, msg)
	}
}

func (h *Hub) broadcast(room *Room, msg any) {
	for _, id := range room.order {
		h.sendTo(id, msg)
	}
}

func (h *Hub) drop(c *Client) {
	if c.dropped {
		return
	}
	c.dropped = true

	if existing, ok := h.clients[c.id]; ok && existing == c {
		delete(h.clients, c.id)
	}
	close(c.send)

	log.Debug().Str("conn", c.id).Msg("slow client dropped")
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("ip", realIP(r)).Msg("websocket upgrade failed")
			return
		}

		client := &Client{
			id:      uuid.NewString(),
			conn:    conn,
			send:    make(chan any, 32),
			limiter: rate.NewLimiter(rate.Limit(cfg.rateLimit), cfg.rateBurst),
		}

		h.register <- client

		go client.writePump()
		client.readPump(h)
	}
}

// qrHandler renders a PNG QR code pointing at the join URL for a live
// room, for passing a phone around the table.
func qrHandler(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		if !h.roomExists(r.Context(), code) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/?room=" + code

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// registerSpyGame wires the game into the router:
//   - $prefix/ws        → the bidirectional event channel
//   - $prefix/qr/:code  → PNG QR code linking to a live room
func registerSpyGame(ctx context.Context, cfg *Config, h *Hub, mux *httprouter.Router) {
	go h.run(ctx)

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, h))
	mux.GET(cfg.prefix+"/qr/:code", qrHandler(cfg, h))
}
