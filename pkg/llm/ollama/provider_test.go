package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"doc-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamChatEmitsFragmentsUntilDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hello "},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"world"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")
	fragments, err := provider.StreamChat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	var text string
	for frag := range fragments {
		require.NoError(t, frag.Err)
		text += frag.Content
	}
	assert.Equal(t, "Hello world", text)
}

func TestStreamChatReleasesStreamOnCancel(t *testing.T) {
	// The backend emits one fragment and then holds the stream open until the
	// client hangs up, like a generation still in progress.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"partial"},"done":false}`)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")
	baseline := runtime.NumGoroutine()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fragments, err := provider.StreamChat(ctx, []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	frag := <-fragments
	require.NoError(t, frag.Err)
	assert.Equal(t, "partial", frag.Content)

	// The consumer walks away without draining the channel. Cancellation must
	// still unwind the stream goroutine and the connection behind it.
	cancel()

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline
	}, 2*time.Second, 10*time.Millisecond, "stream goroutine still running after cancel")

	_, open := <-fragments
	assert.False(t, open, "fragment channel must be closed after cancel")
}
