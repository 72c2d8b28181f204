package httpserver_test

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/kroma-labs/sentinel-service/httpserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := httpserver.DefaultConfig()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []httpserver.Option
		wantAddr string
	}{
		{
			name:     "given no options, then default addr",
			wantAddr: ":8080",
		},
		{
			name:     "given addr option, then addr applied",
			opts:     []httpserver.Option{httpserver.WithAddr(":9090")},
			wantAddr: ":9090",
		},
		{
			name:     "given config with empty addr, then default addr",
			opts:     []httpserver.Option{httpserver.WithConfig(httpserver.Config{})},
			wantAddr: ":8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httpserver.New(tt.opts...)
			assert.Equal(t, tt.wantAddr, srv.Addr())
		})
	}
}

func TestServer_RequiresHandler(t *testing.T) {
	t.Parallel()

	srv := httpserver.New()
	err := srv.ListenAndServe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler is required")
}

func TestServer_ListenError(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(
		httpserver.WithAddr("256.0.0.1:bad"),
		httpserver.WithHandler(okHandler()),
	)
	err := srv.ListenAndServe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}

func startServer(
	t *testing.T,
	handler http.Handler,
	shutdownTimeout time.Duration,
) (addr string, cancel context.CancelFunc, done <-chan error, buf *lockedBuffer) {
	t.Helper()

	logger, buf := newBufferLogger(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := httpserver.New(
		httpserver.WithHandler(handler),
		httpserver.WithLogger(logger),
		httpserver.WithShutdownTimeout(shutdownTimeout),
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	return ln.Addr().String(), cancel, errCh, buf
}

func waitErr(t *testing.T, done <-chan error) error {
	t.Helper()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
		return nil
	}
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	t.Run("given running server, when context cancelled, then clean shutdown", func(t *testing.T) {
		t.Parallel()

		addr, cancel, done, buf := startServer(t, okHandler(), time.Second)

		resp, err := http.Get("http://" + addr + "/")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		cancel()
		require.NoError(t, waitErr(t, done))

		started := recordsWithEvent(t, buf, "server_started")
		require.Len(t, started, 1)
		_, port, _ := net.SplitHostPort(addr)
		assert.Equal(t, port, formatPort(metaOf(t, started[0])["port"]))

		assert.Len(t, recordsWithEvent(t, buf, "graceful_shutdown_started"), 1)
		assert.Len(t, recordsWithEvent(t, buf, "graceful_shutdown_complete"), 1)
		assert.Empty(t, recordsWithEvent(t, buf, "graceful_shutdown_timeout"))
	})

	t.Run("given in-flight request, when shutdown starts, then request completes", func(t *testing.T) {
		t.Parallel()

		entered := make(chan struct{})
		release := make(chan struct{})
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			close(entered)
			<-release
			w.WriteHeader(http.StatusOK)
		})

		addr, cancel, done, _ := startServer(t, handler, 5*time.Second)

		respCh := make(chan int, 1)
		go func() {
			resp, err := http.Get("http://" + addr + "/slow")
			if err != nil {
				respCh <- 0
				return
			}
			_ = resp.Body.Close()
			respCh <- resp.StatusCode
		}()

		<-entered
		cancel()
		time.Sleep(50 * time.Millisecond)
		close(release)

		assert.Equal(t, http.StatusOK, <-respCh)
		assert.NoError(t, waitErr(t, done))
	})

	t.Run("given stuck request, when grace period expires, then forced close", func(t *testing.T) {
		t.Parallel()

		entered := make(chan struct{})
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			close(entered)
			<-release
		})

		addr, cancel, done, buf := startServer(t, handler, 50*time.Millisecond)

		clientErr := make(chan error, 1)
		go func() {
			resp, err := http.Get("http://" + addr + "/stuck")
			if err == nil {
				_ = resp.Body.Close()
			}
			clientErr <- err
		}()

		<-entered
		cancel()

		assert.ErrorIs(t, waitErr(t, done), httpserver.ErrShutdownTimeout)
		assert.Error(t, <-clientErr)

		records := recordsWithEvent(t, buf, "graceful_shutdown_timeout")
		require.Len(t, records, 1)
		assert.Equal(t, "error", records[0]["level"])
	})

	t.Run("given shutdown called directly, then serve returns nil", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		srv := httpserver.New(httpserver.WithHandler(okHandler()))

		done := make(chan error, 1)
		go func() { done <- srv.Serve(context.Background(), ln) }()

		require.Eventually(t, func() bool {
			resp, err := http.Get("http://" + ln.Addr().String() + "/")
			if err != nil {
				return false
			}
			_ = resp.Body.Close()
			return true
		}, 2*time.Second, 10*time.Millisecond)

		require.NoError(t, srv.Shutdown(context.Background()))
		assert.NoError(t, waitErr(t, done))
	})
}

func formatPort(v any) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return strconv.Itoa(int(f))
}
