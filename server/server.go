// File: server/server.go
package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"

	"github.com/lguibr/dflow/actor"
	"github.com/lguibr/dflow/value"
)

// ErrUnknownActor is returned for a target that is neither a registered name
// nor the address of a live actor.
var ErrUnknownActor = errors.New("unknown actor")

// Options configures a Server.
type Options struct {
	AskTimeout time.Duration
	RateLimit  float64 // requests per second, shared by every client
	Burst      int
	Logger     *zap.Logger
}

// Server translates external HTTP and websocket requests into asks and tells
// against actors of one engine.
type Server struct {
	engine     *actor.Engine
	logger     *zap.Logger
	limiter    *rate.Limiter
	askTimeout time.Duration

	mu    sync.RWMutex
	names map[string]*actor.PID
}

// New creates a server in front of engine.
func New(engine *actor.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AskTimeout <= 0 {
		opts.AskTimeout = 5 * time.Second
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	return &Server{
		engine:     engine,
		logger:     opts.Logger,
		limiter:    rate.NewLimiter(limit, max(opts.Burst, 1)),
		askTimeout: opts.AskTimeout,
		names:      make(map[string]*actor.PID),
	}
}

// Register exposes pid under name.
func (s *Server) Register(name string, pid *actor.PID) {
	s.mu.Lock()
	s.names[name] = pid
	s.mu.Unlock()
}

// resolve finds the actor registered as target, or the live actor whose
// address is target.
func (s *Server) resolve(target string) (*actor.PID, error) {
	s.mu.RLock()
	pid, ok := s.names[target]
	s.mu.RUnlock()
	if ok {
		return pid, nil
	}
	if pid, ok := s.engine.Lookup(value.Address{ID: target}); ok {
		return pid, nil
	}
	return nil, ErrUnknownActor
}

// Handler returns the HTTP routes:
//
//	POST /ask/{actor}   body is the JSON payload, reply is the JSON result
//	POST /tell/{actor}  fire and forget
//	GET  /actors        registered names and live actors
//	GET  /ws            websocket carrying JSON frames
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask/{actor}", s.HandleAsk())
	mux.HandleFunc("POST /tell/{actor}", s.HandleTell())
	mux.HandleFunc("GET /actors", s.HandleActors())
	mux.Handle("GET /ws", websocket.Handler(s.HandleSocket()))
	return mux
}
