// File: server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lguibr/dflow/actor"
	"github.com/lguibr/dflow/value"
)

const maxBody = 1 << 20

var errRateLimited = errors.New("rate limit exceeded")

// reply is the body of every ask answer.
type reply struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ask runs one external request against target and returns the JSON
// encoding of its result. A failure value is an ordinary result.
func (s *Server) ask(ctx context.Context, target string, payload value.Complete) (json.RawMessage, error) {
	if !s.limiter.Allow() {
		return nil, errRateLimited
	}
	pid, err := s.resolve(target)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.askTimeout)
	defer cancel()
	result, err := s.engine.AskContext(ctx, pid, payload)
	if errors.Is(err, context.DeadlineExceeded) {
		err = actor.ErrAskTimeout
	}
	if err != nil {
		return nil, err
	}
	data, err := value.MarshalJSON(result)
	if err != nil {
		return nil, fmt.Errorf("result has no JSON form: %w", err)
	}
	return data, nil
}

func (s *Server) tell(target string, payload value.Complete) error {
	if !s.limiter.Allow() {
		return errRateLimited
	}
	pid, err := s.resolve(target)
	if err != nil {
		return err
	}
	s.engine.Tell(pid, payload)
	return nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnknownActor):
		return http.StatusNotFound
	case errors.Is(err, actor.ErrAskTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, actor.ErrEngineStopped):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func readPayload(r *http.Request) (value.Complete, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, err
	}
	return value.UnmarshalJSON(data)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Debug("error writing response", zap.Error(err))
	}
}

// recoverHTTP turns a panic in a handler into a 500.
func (s *Server) recoverHTTP(w http.ResponseWriter, id string) {
	if rec := recover(); rec != nil {
		s.logger.Error("handler panicked",
			zap.String("request", id),
			zap.Any("recovered", rec),
			zap.String("stack", string(debug.Stack())))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleAsk answers POST /ask/{actor}.
func (s *Server) HandleAsk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		defer s.recoverHTTP(w, id)
		target := r.PathValue("actor")
		log := s.logger.With(zap.String("request", id), zap.String("actor", target))

		payload, err := readPayload(r)
		if err != nil {
			log.Debug("bad payload", zap.Error(err))
			s.writeJSON(w, http.StatusBadRequest, reply{ID: id, Error: err.Error()})
			return
		}
		result, err := s.ask(r.Context(), target, payload)
		if err != nil {
			log.Warn("ask failed", zap.Error(err))
			s.writeJSON(w, statusOf(err), reply{ID: id, Error: err.Error()})
			return
		}
		log.Debug("ask answered")
		s.writeJSON(w, http.StatusOK, reply{ID: id, Result: result})
	}
}

// HandleTell answers POST /tell/{actor} with 202 once the payload is queued.
func (s *Server) HandleTell() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		defer s.recoverHTTP(w, id)
		payload, err := readPayload(r)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, reply{ID: id, Error: err.Error()})
			return
		}
		if err := s.tell(r.PathValue("actor"), payload); err != nil {
			s.writeJSON(w, statusOf(err), reply{ID: id, Error: err.Error()})
			return
		}
		s.writeJSON(w, http.StatusAccepted, reply{ID: id})
	}
}

type actorsBody struct {
	Names  map[string]string `json:"names"`
	Actors []string          `json:"actors"`
}

// HandleActors lists registered names and live actor addresses.
func (s *Server) HandleActors() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := actorsBody{Names: make(map[string]string), Actors: []string{}}
		s.mu.RLock()
		for name, pid := range s.names {
			body.Names[name] = pid.ID
		}
		s.mu.RUnlock()
		for _, pid := range s.engine.Actors() {
			body.Actors = append(body.Actors, pid.ID)
		}
		s.writeJSON(w, http.StatusOK, body)
	}
}
