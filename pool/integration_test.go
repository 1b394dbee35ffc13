package pool

// pool/integration_test.go
//
// 端到端:真实工厂 + 进程内假服务端,验证池化会话上的读写往返
// 与并发借用下的独占性。

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// kvServer 只认键值命令的极简假服务端
type kvServer struct {
	ln net.Listener

	mu   sync.Mutex
	data map[string]string
}

func startKVServer(t *testing.T) (*kvServer, string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &kvServer{ln: ln, data: map[string]string{}}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return s, host, port
}

func (s *kvServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *kvServer) handle(conn net.Conn) {
	defer conn.Close()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var req map[string]any
		if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
			fmt.Fprint(conn, `{"status":"ERROR","message":"bad request"}`+"\n")
			continue
		}

		typ, _ := req["type"].(string)
		key, _ := req["key"].(string)
		out := map[string]any{"status": "OK"}

		s.mu.Lock()
		switch typ {
		case "":
			// 认证:一律接受
			out["user"] = map[string]any{"username": req["username"], "role": "admin"}
		case "LIST_SPACES":
			out["spaces"] = []string{"main"}
		case "PUT":
			value, _ := req["value"].(string)
			s.data[key] = value
		case "GET":
			if value, ok := s.data[key]; ok {
				out["value"] = value
			} else {
				out = map[string]any{"status": "ERROR", "message": "key not found"}
			}
		}
		s.mu.Unlock()

		data, _ := json.Marshal(out)
		_, _ = conn.Write(append(data, '\n'))
	}
}

func TestPooledPutGetRoundTrip(t *testing.T) {
	_, host, port := startKVServer(t)

	p, err := NewConnectionPool(&PoolConfig{
		Host:                host,
		Port:                port,
		Timeout:             2 * time.Second,
		Username:            "admin",
		Password:            "secret",
		MinSize:             1,
		MaxSize:             2,
		AcquireTimeout:      time.Second,
		HealthCheckInterval: time.Minute,
		Logger:              quietLogger(),
	})
	require.NoError(t, err)
	defer p.Close()

	ss, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer ss.Release()

	c := ss.Client()
	require.NotNil(t, c)

	_, err = c.UseSpace("main")
	require.NoError(t, err)

	resp, err := c.Put("k", "v")
	require.NoError(t, err)
	require.True(t, resp.OK())

	resp, err = c.Get("k")
	require.NoError(t, err)
	require.True(t, resp.OK())
	assert.Equal(t, "v", resp.Value)

	resp, err = c.Get("unset")
	require.NoError(t, err)
	assert.False(t, resp.OK(), "missing key is a not-found reply, not an error")
}

func TestConcurrentWorkersWriteDisjointKeys(t *testing.T) {
	const workers = 8

	_, host, port := startKVServer(t)

	p, err := NewConnectionPool(&PoolConfig{
		Host:                host,
		Port:                port,
		Timeout:             2 * time.Second,
		MinSize:             2,
		MaxSize:             4,
		AcquireTimeout:      5 * time.Second,
		HealthCheckInterval: time.Minute,
		Logger:              quietLogger(),
	})
	require.NoError(t, err)
	defer p.Close()

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			ss, err := p.Acquire(context.Background())
			if err != nil {
				return err
			}
			defer ss.Release()

			c := ss.Client()
			if _, err := c.UseSpace("main"); err != nil {
				return err
			}
			key := fmt.Sprintf("worker-%d", i)
			resp, err := c.Put(key, key)
			if err != nil {
				return err
			}
			if !resp.OK() {
				return fmt.Errorf("put %s: %s", key, resp.Message)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// 所有写入均可读回,互不串扰
	ss, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer ss.Release()

	c := ss.Client()
	_, err = c.UseSpace("main")
	require.NoError(t, err)
	for i := 0; i < workers; i++ {
		key := fmt.Sprintf("worker-%d", i)
		resp, err := c.Get(key)
		require.NoError(t, err)
		require.True(t, resp.OK())
		assert.Equal(t, key, resp.Value)
	}

	stats := p.Stats()
	assert.LessOrEqual(t, stats.ActiveConnections, 4)
}
