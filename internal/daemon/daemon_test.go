package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swupdate/internal/registry"
	"swupdate/internal/updater"
)

func writeScript(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sw.js"), []byte(body), 0o644))
}

func newDaemon(t *testing.T, reload bool) (*Daemon, string) {
	t.Helper()
	dir := t.TempDir()
	writeScript(t, dir, "// v1")
	d, err := New(context.Background(), Options{
		ScriptsDir:     dir,
		Script:         "sw.js",
		ReloadOnUpdate: reload,
		Logger:         zerolog.Nop(),
		Registerer:     prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d, dir
}

func TestDaemon_StartsControlled(t *testing.T) {
	d, _ := newDaemon(t, true)
	assert.True(t, d.Ready())
	st := d.Status()
	assert.Equal(t, string(updater.PhaseControlled), st.Phase)
	assert.Equal(t, "/sw.js", st.ScriptURL)
	require.NotNil(t, st.Controller)
	require.NotNil(t, st.Active)
	assert.Equal(t, st.Controller.ID, st.Active.ID)
	assert.Nil(t, st.Waiting)
}

func TestDaemon_CheckUnchangedScript(t *testing.T) {
	d, _ := newDaemon(t, true)
	resp, err := d.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, resp.Installed)
	assert.NotEmpty(t, resp.Digest)
}

func TestDaemon_UpdateFlowReloadsIntoNewSession(t *testing.T) {
	d, dir := newDaemon(t, true)
	oldController := d.Status().Controller.ID

	sent, err := d.Update()
	require.NoError(t, err)
	assert.False(t, sent, "nothing to activate before a script change")

	writeScript(t, dir, "// v2")
	resp, err := d.Check(context.Background())
	require.NoError(t, err)
	require.True(t, resp.Installed)

	st := d.Status()
	assert.Equal(t, string(updater.PhaseUpdateDetected), st.Phase)
	assert.True(t, st.UpdateAvailable)
	require.NotNil(t, st.Waiting)
	assert.Equal(t, resp.WorkerID, st.Waiting.ID)

	sent, err = d.Update()
	require.NoError(t, err)
	assert.True(t, sent)

	assert.Equal(t, 2, d.Sessions())
	st = d.Status()
	assert.Equal(t, string(updater.PhaseControlled), st.Phase, "reload starts a fresh page session")
	assert.False(t, st.UpdateAvailable)
	require.NotNil(t, st.Controller)
	assert.Equal(t, resp.WorkerID, st.Controller.ID)
	assert.NotEqual(t, oldController, st.Controller.ID)

	events, err := d.Events(context.Background(), 0)
	require.NoError(t, err)
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, updater.EvUpdateAvailable)
	assert.Contains(t, names, updater.EvActivationSent)
	assert.Contains(t, names, updater.EvReload)
}

func TestDaemon_NoReloadKeepsSession(t *testing.T) {
	d, dir := newDaemon(t, false)
	writeScript(t, dir, "// v2")
	_, err := d.Check(context.Background())
	require.NoError(t, err)

	sent, err := d.Update()
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 1, d.Sessions())
	st := d.Status()
	assert.Equal(t, string(updater.PhaseReloaded), st.Phase)
	assert.True(t, st.Reloaded)
}

func TestDaemon_RunPollsScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "// v1")
	d, err := New(context.Background(), Options{
		ScriptsDir:     dir,
		Script:         "sw.js",
		ReloadOnUpdate: true,
		CheckInterval:  10 * time.Millisecond,
		Logger:         zerolog.Nop(),
		Registerer:     prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	writeScript(t, dir, "// v2")
	require.Eventually(t, func() bool { return d.Status().UpdateAvailable }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestNew_MissingScript(t *testing.T) {
	_, err := New(context.Background(), Options{ScriptsDir: t.TempDir(), Script: "sw.js", Registerer: prometheus.NewRegistry()})
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrScriptNotFound)
	assert.Contains(t, err.Error(), "no scripts in dir")

	_, err = New(context.Background(), Options{Registerer: prometheus.NewRegistry()})
	require.Error(t, err)
}

func TestNew_MissingScriptListsAvailable(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"app.js", "worker.mjs", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	_, err := New(context.Background(), Options{ScriptsDir: dir, Script: "sw.js", Registerer: prometheus.NewRegistry()})
	require.ErrorIs(t, err, registry.ErrScriptNotFound)
	assert.Contains(t, err.Error(), "available: app.js, worker.mjs")
}

func TestNew_ScriptsDirMustExist(t *testing.T) {
	_, err := New(context.Background(), Options{
		ScriptsDir: filepath.Join(t.TempDir(), "missing"),
		Script:     "sw.js",
		Registerer: prometheus.NewRegistry(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan scripts dir")
}
