// File: server/websocket.go
package server

import (
	"encoding/json"

	"golang.org/x/net/websocket"
)

// Frame kinds accepted on the websocket.
const (
	FrameAsk  = "ask"
	FrameTell = "tell"
)

// request is one inbound websocket frame.
type request struct {
	ID      string          `json:"id"`
	Actor   string          `json:"actor"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// HandleSocket serves a websocket connection. Every ask frame is answered
// with a reply frame carrying the same id; replies may arrive out of order.
// Tell frames are answered only when they cannot be delivered.
func (s *Server) HandleSocket() func(ws *websocket.Conn) {
	return func(ws *websocket.Conn) {
		c := newConnection(s, ws)
		c.serve()
	}
}
