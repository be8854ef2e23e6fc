package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"swupdate/internal/daemon"
	"swupdate/internal/httpapi"
)

// writeScript writes a worker script into dir.
func writeScript(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sw.js"), []byte(body), 0o644))
}

// startServer boots a daemon over dir and serves it with httptest.
func startServer(t *testing.T, dir string, reload bool) (*httptest.Server, *daemon.Daemon) {
	t.Helper()
	d, err := daemon.New(testContext(t), daemon.Options{
		ScriptsDir:     dir,
		Script:         "sw.js",
		JournalPath:    filepath.Join(dir, "journal.db"),
		ReloadOnUpdate: reload,
		Logger:         zerolog.Nop(),
		Registerer:     prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(httpapi.NewMux(d))
	t.Cleanup(func() {
		srv.Close()
		_ = d.Close()
	})
	return srv, d
}

// doJSON issues method on path and decodes the JSON body into out.
func doJSON(t *testing.T, srv *httptest.Server, method, path string, out any) int {
	t.Helper()
	req, err := http.NewRequestWithContext(testContext(t), method, srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
