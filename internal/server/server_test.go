package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/logging"
)

const testManifest = `{"apps":[
  {"id":"notes","name":"Notes","kind":"window","showsDesktopIcon":true},
  {"id":"win-taskmgr","name":"Tasks","kind":"window","system":true}
]}`

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	manifestPath := filepath.Join(dir, "apps.json")
	require.NoError(t, os.WriteFile(manifestPath, []byte(testManifest), 0o644))

	cfg := config.Default()
	cfg.Logging.Development = true
	cfg.Storage.Backend = "file"
	cfg.Storage.Path = filepath.Join(dir, "layout")
	cfg.Desktop.ManifestPath = manifestPath
	cfg.RateLimit.Enabled = false
	return cfg
}

type running struct {
	base string
	stop func() error
}

func start(t *testing.T, cfg *config.Config) *running {
	t.Helper()
	srv, err := New(cfg, &logging.Logger{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	return &running{
		base: "http://" + ln.Addr().String(),
		stop: func() error {
			cancel()
			select {
			case err := <-done:
				return err
			case <-time.After(15 * time.Second):
				t.Fatal("server did not shut down")
				return nil
			}
		},
	}
}

func (r *running) call(t *testing.T, method, path string) map[string]interface{} {
	t.Helper()
	req, err := http.NewRequest(method, r.base+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, sonic.Unmarshal(body, &out))
	}
	out["_status"] = resp.StatusCode
	return out
}

func TestServeAndShutdown(t *testing.T) {
	r := start(t, testConfig(t, t.TempDir()))

	health := r.call(t, "GET", "/health")
	assert.Equal(t, http.StatusOK, health["_status"])

	apps := r.call(t, "GET", "/api/apps")
	assert.EqualValues(t, 2, apps["count"])

	metrics := r.call(t, "GET", "/metrics")
	assert.Equal(t, http.StatusOK, metrics["_status"])

	require.NoError(t, r.stop())
}

func TestLayoutSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	r := start(t, cfg)
	opened := r.call(t, "POST", "/api/apps/notes/open")
	require.Equal(t, "open", opened["state"])
	require.NoError(t, r.stop())

	r = start(t, cfg)
	defer r.stop()
	app := r.call(t, "GET", "/api/apps/notes")
	assert.Equal(t, "open", app["state"])
	assert.Greater(t, app["zIndex"].(float64), float64(100))
}

func TestNewFailsOnMissingManifest(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Desktop.ManifestPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(cfg, &logging.Logger{Logger: zaptest.NewLogger(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load manifest")
}

func TestNewFailsOnUnknownBackend(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Storage.Backend = "etcd"

	_, err := New(cfg, &logging.Logger{Logger: zaptest.NewLogger(t)})
	require.Error(t, err)
}
