package app_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"admin_console/internal/config"
	"admin_console/internal/testutil/testserver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServe_ShutdownReleasesParkedPolls(t *testing.T) {
	ts := testserver.New(t, func(cfg *config.Config) {
		cfg.Realtime.LongPollTimeout = 30 * time.Second
	})
	token, _ := ts.CreateAndLoginAdmin(t, "root@corp.io", "All")

	ts.App.Config.Server.Host = "127.0.0.1"
	ts.App.Config.Server.Port = freePort(t)
	base := fmt.Sprintf("http://%s", ts.App.Config.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- ts.App.Serve(ctx) }()

	require.Eventually(t, func() bool {
		res, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	polled := make(chan int, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodGet, base+"/polling/api", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			polled <- 0
			return
		}
		res.Body.Close()
		polled <- res.StatusCode
	}()
	require.Eventually(t, func() bool { return ts.App.PollQueue.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	start := time.Now()
	cancel()

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve не завершился")
	}
	assert.Less(t, time.Since(start), 5*time.Second)

	select {
	case code := <-polled:
		assert.Equal(t, http.StatusOK, code, "опрос отпущен ответом, а не обрывом соединения")
	case <-time.After(time.Second):
		t.Fatal("опрос не завершился")
	}
}
