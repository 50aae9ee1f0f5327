package stdlib

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/dflow/actor"
	"github.com/lguibr/dflow/store"
	"github.com/lguibr/dflow/value"
)

type kvSystem struct {
	router  *actor.PID
	readers []*actor.PID
	writer  *actor.PID
}

func spawnKV(t *testing.T, e *actor.Engine, s store.Store, readers int) kvSystem {
	t.Helper()
	var sys kvSystem
	for i := 0; i < readers; i++ {
		pid, err := e.Spawn(actor.NewProps(func() actor.Actor { return &Reader{Store: s} }))
		require.NoError(t, err)
		sys.readers = append(sys.readers, pid)
	}
	writer, err := e.Spawn(actor.NewProps(func() actor.Actor { return &Writer{Store: s} }))
	require.NoError(t, err)
	sys.writer = writer
	sys.router, err = e.Spawn(actor.NewProps(func() actor.Actor { return NewRouter(sys.readers, writer) }))
	require.NoError(t, err)
	return sys
}

func TestRouter_PutThenGet(t *testing.T) {
	for _, driver := range []string{"memory", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			s, err := store.Open(driver)
			require.NoError(t, err)
			defer s.Close()
			e := newTestEngine(t, 0)
			sys := spawnKV(t, e, s, 3)

			got, err := e.Ask(sys.router, GetRequest("a"), testTimeout)
			require.NoError(t, err)
			assert.Equal(t, value.Null{}, got)

			got, err = e.Ask(sys.router, PutRequest("a", value.Int64(1)), testTimeout)
			require.NoError(t, err)
			assert.Equal(t, replyOK, got)

			for i := 0; i < 3; i++ {
				got, err = e.Ask(sys.router, GetRequest("a"), testTimeout)
				require.NoError(t, err)
				assert.Equal(t, value.Int64(1), got)
			}
		})
	}
}

func TestRouter_ReaderFailureIsOwnedByReader(t *testing.T) {
	e := newTestEngine(t, 0)
	sys := spawnKV(t, e, store.NewMemStore(), 2)

	bad, err := value.NewCompleteRec(labelGet, []value.CompleteField{{Feature: featKey, Value: value.Int64(5)}})
	require.NoError(t, err)
	got, err := e.Ask(sys.router, bad, testTimeout)
	require.NoError(t, err)
	failed, ok := got.(*value.FailedValue)
	require.True(t, ok, "got %s", got)
	assert.Contains(t, []value.Address{sys.readers[0].Address(), sys.readers[1].Address()}, failed.Owner)

	// Neither the reader nor the router is affected.
	got, err = e.Ask(sys.router, PutRequest("k", value.Str("v")), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, replyOK, got)
	got, err = e.Ask(sys.router, GetRequest("k"), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, value.Str("v"), got)
}

func TestRouter_UnknownRequestOwnedByRouter(t *testing.T) {
	e := newTestEngine(t, 0)
	sys := spawnKV(t, e, store.NewMemStore(), 1)

	got, err := e.Ask(sys.router, value.Str("drop"), testTimeout)
	require.NoError(t, err)
	failed, ok := got.(*value.FailedValue)
	require.True(t, ok, "got %s", got)
	assert.Equal(t, sys.router.Address(), failed.Owner)
	assert.Equal(t, "UnrecognizedMessageError", failed.Details)
}

// exclusiveStore records any overlap between a Put and another operation.
type exclusiveStore struct {
	store.Store
	readers    atomic.Int32
	writers    atomic.Int32
	maxReaders atomic.Int32
	violations atomic.Int32
}

func (s *exclusiveStore) Get(ctx context.Context, key string) (value.Complete, bool, error) {
	n := s.readers.Add(1)
	defer s.readers.Add(-1)
	for {
		m := s.maxReaders.Load()
		if n <= m || s.maxReaders.CompareAndSwap(m, n) {
			break
		}
	}
	if s.writers.Load() > 0 {
		s.violations.Add(1)
	}
	time.Sleep(time.Millisecond)
	return s.Store.Get(ctx, key)
}

func (s *exclusiveStore) Put(ctx context.Context, key string, v value.Complete) error {
	if s.writers.Add(1) > 1 || s.readers.Load() > 0 {
		s.violations.Add(1)
	}
	defer s.writers.Add(-1)
	time.Sleep(time.Millisecond)
	return s.Store.Put(ctx, key, v)
}

func TestRouter_WritesExcludeReads(t *testing.T) {
	s := &exclusiveStore{Store: store.NewMemStore()}
	e := newTestEngine(t, 0)
	sys := spawnKV(t, e, s, 4)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			req := GetRequest(key)
			if i%5 == 0 {
				req = PutRequest(key, value.Int64(i))
			}
			got, err := e.Ask(sys.router, req, 5*testTimeout)
			if err != nil {
				errs <- err
				return
			}
			if f, ok := got.(*value.FailedValue); ok {
				errs <- fmt.Errorf("request %d failed: %s", i, f)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Zero(t, s.violations.Load())
}

func TestRouter_ReadsRunConcurrently(t *testing.T) {
	s := &exclusiveStore{Store: store.NewMemStore()}
	e := newTestEngine(t, 0)
	sys := spawnKV(t, e, s, 4)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Ask(sys.router, GetRequest("missing"), testTimeout)
			assert.NoError(t, err)
			assert.Equal(t, value.Null{}, got)
		}()
	}
	wg.Wait()
	assert.Zero(t, s.violations.Load())
}
