package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio-backend/internal/services"
)

func sseServer(t *testing.T, hits *atomic.Int32, records ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, rec := range records {
			io.WriteString(w, "data: "+rec+"\n\n")
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestAsk_StreamsRawReply(t *testing.T) {
	var hits atomic.Int32
	srv := sseServer(t, &hits,
		`{"chunk":"I build ","accumulated":"I build "}`,
		`{"chunk":"web apps.","accumulated":"I build web apps."}`,
		`{"done":true,"content":"I build web apps."}`,
	)

	out, _, err := execute(t, "", "ask", "--raw", "--url", srv.URL, "what", "do", "you", "build?")

	require.NoError(t, err)
	assert.Equal(t, "I build web apps.\n", out)
	assert.Equal(t, int32(1), hits.Load())
}

func TestAsk_LocalRefusal(t *testing.T) {
	var hits atomic.Int32
	srv := sseServer(t, &hits)

	out, _, err := execute(t, "", "ask", "--raw", "--url", srv.URL, "What is React?")

	require.NoError(t, err)
	assert.Equal(t, services.RefusalMessage+"\n", out)
	assert.Zero(t, hits.Load())
}

func TestAsk_ErrorExitsNonZero(t *testing.T) {
	var hits atomic.Int32
	srv := sseServer(t, &hits, `{"error":"**Content Blocked**: nope"}`)

	_, errOut, err := execute(t, "", "ask", "--raw", "--url", srv.URL, "hello")

	require.Error(t, err)
	assert.Contains(t, errOut, "**Content Blocked**: nope")
}

func TestChat_ReplKeepsHistory(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"content":"Sure."}`)
	}))
	defer srv.Close()

	out, _, err := execute(t, "hello\n/tokens\ntell me more about your work\n/quit\n", "chat", "--raw", "--url", srv.URL)

	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, out, "Feel free to ask me anything")
	assert.Contains(t, out, "2 messages, about")
	require.Len(t, bodies, 2)
	assert.NotContains(t, bodies[0], "conversationHistory")
	assert.Contains(t, bodies[1], `"conversationHistory":[{"role":"user","content":"hello"},{"role":"assistant","content":"Sure."}]`)
}
