package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/lguibr/dflow/actor"
	"github.com/lguibr/dflow/stdlib"
	"github.com/lguibr/dflow/value"
)

const testTimeout = 2 * time.Second

// echoActor answers every request with a one-element tuple holding its
// payload.
type echoActor struct{}

func (echoActor) Receive(ctx *actor.Context) error {
	switch msg := ctx.Message().(type) {
	case actor.Started, actor.Stopping:
	case value.Complete:
		ctx.Respond(value.NewCompleteTuple(nil, msg))
	}
	return nil
}

func setupTestServer(t *testing.T, opts Options) (*Server, *actor.Engine, *httptest.Server) {
	t.Helper()
	engine := actor.NewEngine(actor.Options{Workers: 2})
	srv := New(engine, opts)

	echo, err := engine.Spawn(actor.NewProps(func() actor.Actor { return echoActor{} }))
	require.NoError(t, err)
	srv.Register("echo", echo)
	calc, err := stdlib.NewRegistry().Spawn(engine, "Actors.Calculator")
	require.NoError(t, err)
	srv.Register("calculator", calc)

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		assert.NoError(t, engine.Shutdown(testTimeout))
	})
	return srv, engine, hs
}

func postAsk(t *testing.T, url, body string) (int, reply) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var r reply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	return resp.StatusCode, r
}

func decode(t *testing.T, raw json.RawMessage) any {
	t.Helper()
	var x any
	require.NoError(t, json.Unmarshal(raw, &x))
	return x
}

func TestHandleAsk(t *testing.T) {
	_, _, hs := setupTestServer(t, Options{})

	status, r := postAsk(t, hs.URL+"/ask/calculator", `"calculate"`)
	require.Equal(t, http.StatusOK, status, r.Error)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, float64(7), decode(t, r.Result))

	status, r = postAsk(t, hs.URL+"/ask/echo", `{"$label": "point", "x": 1, "y": [true, "a"]}`)
	require.Equal(t, http.StatusOK, status, r.Error)
	want := []any{map[string]any{"$label": "point", "x": float64(1), "y": []any{true, "a"}}}
	assert.Empty(t, cmp.Diff(want, decode(t, r.Result)))
}

func TestHandleAsk_FailureIsAResult(t *testing.T) {
	_, _, hs := setupTestServer(t, Options{})

	status, r := postAsk(t, hs.URL+"/ask/calculator", `"divide"`)
	require.Equal(t, http.StatusOK, status)
	got, ok := decode(t, r.Result).(map[string]any)
	require.True(t, ok)
	failed, ok := got["$failed"].(map[string]any)
	require.True(t, ok, "got %v", got)
	assert.Equal(t, "UncaughtThrow", failed["details"])
}

func TestHandleAsk_Errors(t *testing.T) {
	_, _, hs := setupTestServer(t, Options{})

	status, r := postAsk(t, hs.URL+"/ask/nobody", `1`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, ErrUnknownActor.Error(), r.Error)

	status, _ = postAsk(t, hs.URL+"/ask/echo", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	resp, err := http.Get(hs.URL + "/ask/echo")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleAsk_ByAddress(t *testing.T) {
	srv, _, hs := setupTestServer(t, Options{})
	pid, err := srv.resolve("echo")
	require.NoError(t, err)

	status, r := postAsk(t, hs.URL+"/ask/"+pid.ID, `"hi"`)
	require.Equal(t, http.StatusOK, status, r.Error)
}

func TestHandleAsk_RateLimited(t *testing.T) {
	_, _, hs := setupTestServer(t, Options{RateLimit: 0.001, Burst: 1})

	status, _ := postAsk(t, hs.URL+"/ask/echo", `1`)
	assert.Equal(t, http.StatusOK, status)
	status, r := postAsk(t, hs.URL+"/ask/echo", `1`)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, errRateLimited.Error(), r.Error)
}

func TestHandleTellAndActors(t *testing.T) {
	_, engine, hs := setupTestServer(t, Options{})

	resp, err := http.Post(hs.URL+"/tell/echo", "application/json", strings.NewReader(`"x"`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, err = http.Get(hs.URL + "/actors")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body actorsBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Names, 2)
	assert.Len(t, body.Actors, len(engine.Actors()))
}

func TestHandleSocket(t *testing.T) {
	_, _, hs := setupTestServer(t, Options{})

	wsURL := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	ws, err := websocket.Dial(wsURL, "", hs.URL)
	require.NoError(t, err)
	defer ws.Close()

	frames := []request{
		{ID: "1", Actor: "calculator", Kind: FrameAsk, Payload: json.RawMessage(`"calculate"`)},
		{ID: "2", Actor: "echo", Kind: FrameAsk, Payload: json.RawMessage(`"hi"`)},
		{ID: "3", Actor: "nobody", Kind: FrameAsk, Payload: json.RawMessage(`1`)},
		{ID: "4", Actor: "echo", Kind: FrameTell, Payload: json.RawMessage(`1`)},
	}
	for _, f := range frames {
		require.NoError(t, websocket.JSON.Send(ws, f))
	}

	got := make(map[string]reply)
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(testTimeout)))
	for len(got) < 3 {
		var r reply
		require.NoError(t, websocket.JSON.Receive(ws, &r))
		got[r.ID] = r
	}
	assert.Equal(t, float64(7), decode(t, got["1"].Result))
	assert.Equal(t, []any{"hi"}, decode(t, got["2"].Result))
	assert.Equal(t, ErrUnknownActor.Error(), got["3"].Error)
	assert.NotContains(t, got, "4")
}
