package server

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/iamNilotpal/kvs/internal/pool"
	"github.com/iamNilotpal/kvs/internal/protocol"
	"github.com/iamNilotpal/kvs/pkg/kvs"
	"github.com/iamNilotpal/kvs/pkg/logger"
	"github.com/iamNilotpal/kvs/pkg/options"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	store, err := kvs.Open("server-test", options.WithDataDir(dir))
	require.NoError(t, err)

	s, err := New(&Config{
		Addr:         "127.0.0.1:0",
		Store:        store,
		Pool:         pool.NewSharedQueuePool(2),
		Logger:       logger.New("server-test"),
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)

	go s.Serve()
	t.Cleanup(func() {
		require.NoError(t, s.Shutdown())
		require.NoError(t, store.Close())
	})
	return s
}

func roundTrip(t *testing.T, addr string, req protocol.Request) protocol.Response {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, protocol.WriteRequest(conn, req))
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	resp, err := protocol.ReadResponse(bufio.NewReader(conn))
	require.NoError(t, err)
	return resp
}

func TestServerSetGetRemove(t *testing.T) {
	s := startTestServer(t)

	resp := roundTrip(t, s.Addr(), protocol.SetRequest("foo", "bar"))
	require.True(t, resp.Ok)

	resp = roundTrip(t, s.Addr(), protocol.GetRequest("foo"))
	require.True(t, resp.Ok)
	require.Equal(t, "bar", resp.Val)

	resp = roundTrip(t, s.Addr(), protocol.RemoveRequest("foo"))
	require.True(t, resp.Ok)

	resp = roundTrip(t, s.Addr(), protocol.GetRequest("foo"))
	require.False(t, resp.Ok)
	require.NotEmpty(t, resp.Err)
}

// TestServerHandlesConcurrentClients dials spec §8's 100-concurrent-
// clients scenario end to end: each goroutine opens its own connection
// and round-trips a Set then a Get, so this exercises the accept loop,
// the shared-queue pool, and per-connection dispatch all under real
// concurrent load, not just the engine's internal locking.
func TestServerHandlesConcurrentClients(t *testing.T) {
	s := startTestServer(t)

	const clients = 100
	var wg sync.WaitGroup
	wg.Add(clients)
	for i := 0; i < clients; i++ {
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("client%d", i)
			val := fmt.Sprintf("val%d", i)

			resp := roundTrip(t, s.Addr(), protocol.SetRequest(key, val))
			require.True(t, resp.Ok)

			resp = roundTrip(t, s.Addr(), protocol.GetRequest(key))
			require.True(t, resp.Ok)
			require.Equal(t, val, resp.Val)
		}(i)
	}
	wg.Wait()
}
