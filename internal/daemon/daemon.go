// Package daemon wires the update coordinator to the in-memory platform, the
// script registry and the journal, and serves them to the HTTP layer.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"swupdate/internal/journal"
	"swupdate/internal/platform"
	"swupdate/internal/registry"
	"swupdate/internal/updater"
	"swupdate/pkg/types"
)

// Options configure a Daemon. Empty ScriptsDir means the working directory.
// ReloadOnUpdate is passed through as is, so callers wanting the coordinator
// default must set it to true.
type Options struct {
	ScriptsDir     string
	Script         string
	JournalPath    string
	ReloadOnUpdate bool
	CheckInterval  time.Duration
	Logger         zerolog.Logger
	// Registerer receives the coordinator event counter; nil uses the
	// default prometheus registry.
	Registerer prometheus.Registerer
}

// Daemon owns one simulated page: a container controlled by the current
// script version and the coordinator watching it. Every reload starts a new
// page session with a fresh coordinator, since coordinator state lives for
// one page lifetime.
type Daemon struct {
	opts      Options
	log       zerolog.Logger
	container *platform.Container
	reg       *platform.Registration
	journal   *journal.Store
	pub       updater.EventPublisher

	mu       sync.Mutex
	coord    *updater.Coordinator
	sessions int
	closed   bool
}

var errClosed = errors.New("daemon closed")

// New opens the journal, loads the worker script, puts the page under the
// control of that script's worker and starts the first coordinator session.
func New(ctx context.Context, opts Options) (*Daemon, error) {
	if opts.Script == "" {
		return nil, fmt.Errorf("new daemon: script is required")
	}
	if opts.ScriptsDir == "" {
		opts.ScriptsDir = "."
	}
	scripts, err := registry.LoadDir(opts.ScriptsDir)
	if err != nil {
		return nil, fmt.Errorf("scan scripts dir: %w", err)
	}
	script, err := pickScript(scripts, opts.Script)
	if err != nil {
		return nil, fmt.Errorf("load worker script: %w", err)
	}
	opts.Logger.Debug().Int("scripts", len(scripts)).Str("dir", opts.ScriptsDir).Msg("scripts dir scanned")
	store, err := journal.Open(opts.JournalPath, opts.Logger)
	if err != nil {
		return nil, err
	}
	metrics, err := updater.NewMetricsPublisher(opts.Registerer)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	d := &Daemon{
		opts:      opts,
		log:       opts.Logger,
		container: platform.NewContainer(platform.WithLogger(opts.Logger)),
		journal:   store,
		pub:       updater.MultiPublisher{store, metrics},
	}
	reg, w, err := d.container.Bootstrap(ctx, scriptURL(opts.Script), script.Digest)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("bootstrap page: %w", err)
	}
	d.reg = reg
	d.log.Info().Str("script", reg.ScriptURL()).Str("worker_id", w.ID()).Str("digest", script.Digest).Msg("page controlled")

	if err := d.startSession(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return d, nil
}

// pickScript returns the script named name from a directory scan.
func pickScript(scripts []types.Script, name string) (types.Script, error) {
	base := path.Base(name)
	ids := make([]string, 0, len(scripts))
	for _, s := range scripts {
		if s.ID == base {
			return s, nil
		}
		ids = append(ids, s.ID)
	}
	if len(ids) == 0 {
		return types.Script{}, fmt.Errorf("%s: %w (no scripts in dir)", name, registry.ErrScriptNotFound)
	}
	return types.Script{}, fmt.Errorf("%s: %w (available: %s)", name, registry.ErrScriptNotFound, strings.Join(ids, ", "))
}

func scriptURL(name string) string { return path.Join("/", path.Base(name)) }

// startSession replaces the current coordinator with a new one bound to the
// same registration, as a reloaded page would.
func (d *Daemon) startSession(ctx context.Context) error {
	d.mu.Lock()
	d.sessions++
	session := d.sessions
	prev := d.coord
	d.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}

	log := d.log.With().Int("session", session).Logger()
	coord, err := updater.New(
		updater.Resolved(d.reg),
		updater.Env{Container: d.container, Reloader: updater.ReloaderFunc(d.reload)},
		updater.WithLogger(log),
		updater.WithEventPublisher(d.pub),
		updater.WithReloadOnUpdate(d.opts.ReloadOnUpdate),
	)
	if err != nil {
		return fmt.Errorf("new coordinator: %w", err)
	}
	if _, err := coord.On(updater.EventUpdateAvailable, func() {
		log.Info().Msg("new worker installed; POST /update to activate")
	}); err != nil {
		return err
	}
	if _, err := coord.On(updater.EventUpdate, func() {
		log.Info().Msg("control moved to the new worker")
	}); err != nil {
		return err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		_ = coord.Close()
		return errClosed
	}
	d.coord = coord
	d.mu.Unlock()

	if _, err := coord.CheckForUpdates(ctx); err != nil {
		return fmt.Errorf("check for updates: %w", err)
	}
	return nil
}

// reload is the coordinator's reload action.
func (d *Daemon) reload() {
	d.log.Info().Msg("reloading page")
	if err := d.startSession(context.Background()); err != nil && !errors.Is(err, errClosed) {
		d.log.Error().Err(err).Msg("reload failed")
	}
}

func (d *Daemon) current() *updater.Coordinator {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.coord
}

// Sessions reports how many page sessions have been started.
func (d *Daemon) Sessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions
}

func (d *Daemon) Status() types.StatusResponse { return d.current().Status() }

func (d *Daemon) Ready() bool { return d.current().Ready() }

func (d *Daemon) Update() (bool, error) { return d.current().Update() }

// Check re-reads the worker script; a changed digest installs a new worker.
func (d *Daemon) Check(ctx context.Context) (types.CheckResponse, error) {
	script, err := registry.Find(d.opts.ScriptsDir, d.opts.Script)
	if err != nil {
		return types.CheckResponse{}, err
	}
	w, installed, err := d.reg.Update(ctx, script)
	if err != nil {
		return types.CheckResponse{}, fmt.Errorf("update registration: %w", err)
	}
	resp := types.CheckResponse{Installed: installed, Digest: script.Digest}
	if installed {
		resp.WorkerID = w.ID()
		d.log.Info().Str("worker_id", w.ID()).Str("digest", script.Digest).Msg("script changed; new worker installed")
	}
	return resp, nil
}

func (d *Daemon) Events(ctx context.Context, limit int) ([]types.EventRecord, error) {
	return d.journal.Recent(ctx, limit)
}

// Run checks the script every CheckInterval until ctx is done. It returns
// immediately when the interval is zero.
func (d *Daemon) Run(ctx context.Context) {
	if d.opts.CheckInterval <= 0 {
		return
	}
	t := time.NewTicker(d.opts.CheckInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := d.Check(ctx); err != nil && ctx.Err() == nil {
				d.log.Error().Err(err).Msg("update check failed")
			}
		}
	}
}

// Close detaches the current coordinator and closes the journal.
func (d *Daemon) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	coord := d.coord
	d.mu.Unlock()
	if coord != nil {
		_ = coord.Close()
	}
	return d.journal.Close()
}
