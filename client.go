package main

import (
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Client is one live websocket connection. Its id is the connection
// identity used for membership and role lookups for as long as the
// connection lasts.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan any
	limiter *rate.Limiter

	// Set by the hub goroutine when the client is evicted, before its
	// send channel is closed. Eviction is terminal: once set, the hub
	// never touches the channel again and ignores the connection's
	// remaining queued events.
	dropped bool
}

// readPump forwards decoded client events into the hub until the
// connection drops, then reports the disconnect.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if !c.limiter.Allow() {
			log.Debug().Str("conn", c.id).Str("event", msg.Type).Msg("rate limit exceeded, event dropped")
			continue
		}

		h.events <- inboundEvent{client: c, msg: msg}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
