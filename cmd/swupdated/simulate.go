package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"swupdate/internal/platform"
	"swupdate/internal/updater"
)

type simulateOptions struct {
	fresh    bool
	noReload bool
	activate bool
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one update cycle against an in-process page and print what happened",
		Example: "  swupdated simulate\n" +
			"  swupdated simulate --fresh\n" +
			"  swupdated simulate --activate=false",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd.ErrOrStderr(), root.logLevel, root.logJSON)
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), opts, updater.WithLogger(log))
		},
	}
	cmd.Flags().BoolVar(&opts.fresh, "fresh", false, "Start with no controlling worker (first visit)")
	cmd.Flags().BoolVar(&opts.noReload, "no-reload", false, "Do not reload once control moves")
	cmd.Flags().BoolVar(&opts.activate, "activate", true, "Activate the new worker once it is available")
	return cmd
}

// runSimulate walks a page through install, detection, activation and
// reload, then writes the event trail and final status to out.
func runSimulate(ctx context.Context, out io.Writer, opts *simulateOptions, coordOpts ...updater.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	const script = "/sw.js"
	container := platform.NewContainer(platform.WithClaimOnFirstInstall(opts.fresh))
	reg, err := container.Register(ctx, script)
	if err != nil {
		return err
	}
	if !opts.fresh {
		if _, _, err := container.Bootstrap(ctx, script, "v1"); err != nil {
			return err
		}
	}

	reloads := 0
	pub := updater.NewMemoryPublisher()
	coordOpts = append(coordOpts,
		updater.WithEventPublisher(pub),
		updater.WithReloadOnUpdate(!opts.noReload),
	)
	coord, err := updater.New(container.Source(script), updater.Env{
		Container: container,
		Reloader:  updater.ReloaderFunc(func() { reloads++ }),
	}, coordOpts...)
	if err != nil {
		return err
	}
	defer coord.Close()
	if _, err := coord.On(updater.EventUpdateAvailable, func() {
		fmt.Fprintln(out, "> update available")
	}); err != nil {
		return err
	}
	if _, err := coord.On(updater.EventUpdate, func() {
		fmt.Fprintln(out, "> updated")
	}); err != nil {
		return err
	}

	if _, err := coord.CheckForUpdates(ctx); err != nil {
		return err
	}
	next := reg.Install("v2")
	if err := next.FinishInstall(); err != nil {
		return err
	}
	if opts.activate {
		if _, err := coord.Update(); err != nil {
			return err
		}
		// a duplicate notification must not reload twice
		container.FireControllerChange()
	}

	fmt.Fprintln(out, "events:")
	for _, e := range pub.Events() {
		if e.WorkerID != "" {
			fmt.Fprintf(out, "  %s worker=%s\n", e.Name, e.WorkerID)
			continue
		}
		fmt.Fprintf(out, "  %s\n", e.Name)
	}
	fmt.Fprintf(out, "reloads: %d\n", reloads)
	b, err := json.MarshalIndent(coord.Status(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "status: %s\n", b)
	return nil
}
