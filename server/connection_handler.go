// File: server/connection_handler.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"

	"github.com/lguibr/dflow/value"
)

const readTimeout = 90 * time.Second

// connection manages a single websocket connection: one read loop, asks
// running concurrently, writes serialized.
type connection struct {
	server *Server
	conn   *websocket.Conn
	logger *zap.Logger

	writeMu  sync.Mutex
	inflight sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func newConnection(s *Server, ws *websocket.Conn) *connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &connection{
		server: s,
		conn:   ws,
		logger: s.logger.With(zap.String("conn", uuid.NewString())),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *connection) serve() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("connection panicked",
				zap.Any("recovered", r),
				zap.String("stack", string(debug.Stack())))
		}
		c.cancel()
		c.inflight.Wait()
		_ = c.conn.Close()
		c.logger.Debug("connection closed")
	}()
	c.logger.Debug("connection opened")
	c.readLoop()
}

func (c *connection) readLoop() {
	for {
		var req request
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		err := websocket.JSON.Receive(c.conn, &req)
		if err != nil {
			var syntax *json.SyntaxError
			var typ *json.UnmarshalTypeError
			if errors.As(err, &syntax) || errors.As(err, &typ) {
				c.write(reply{Error: fmt.Sprintf("malformed frame: %v", err)})
				continue
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.logger.Debug("read timeout, closing")
			} else if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.logger.Debug("read error", zap.Error(err))
			}
			return
		}
		c.handle(req)
	}
}

func (c *connection) handle(req request) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	payload, err := value.UnmarshalJSON(req.Payload)
	if err != nil {
		c.write(reply{ID: req.ID, Error: fmt.Sprintf("bad payload: %v", err)})
		return
	}
	switch req.Kind {
	case FrameTell:
		if err := c.server.tell(req.Actor, payload); err != nil {
			c.write(reply{ID: req.ID, Error: err.Error()})
		}
	case FrameAsk, "":
		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()
			result, err := c.server.ask(c.ctx, req.Actor, payload)
			if err != nil {
				c.logger.Warn("ask failed", zap.String("id", req.ID), zap.String("actor", req.Actor), zap.Error(err))
				c.write(reply{ID: req.ID, Error: err.Error()})
				return
			}
			c.write(reply{ID: req.ID, Result: result})
		}()
	default:
		c.write(reply{ID: req.ID, Error: fmt.Sprintf("unknown frame kind %q", req.Kind)})
	}
}

func (c *connection) write(r reply) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := websocket.JSON.Send(c.conn, r); err != nil {
		c.logger.Debug("error writing frame", zap.Error(err))
	}
}
