package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/corey/cfodash/internal/app"
)

func run(cmd *cobra.Command, p app.Profile, opts *options) error {
	if err := setupLogging(opts.logLevel, cmd.ErrOrStderr()); err != nil {
		return err
	}

	root, err := app.ResolveRoot(opts.dir)
	if err != nil {
		return err
	}
	if err := os.Chdir(root); err != nil {
		return fmt.Errorf("chdir %s: %w", root, err)
	}

	a, err := app.New(app.Config{
		Profile:     p,
		Root:        root,
		Host:        opts.host,
		Port:        opts.port,
		OpenBrowser: p.OpenBrowser && !opts.noOpen,
		OpenDelay:   opts.openDelay,
		Watch:       opts.watch,
	})
	if err != nil {
		return err
	}

	// Registered before Start so an early Ctrl+C still shuts down cleanly.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := a.Start(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, line := range p.Banner(a.URL()) {
		fmt.Fprintln(out, line)
	}

	select {
	case <-sigCh:
	case <-cmd.Context().Done():
	}

	// An interrupt always ends in a clean exit; shutdown trouble is only logged.
	if err := a.Stop(); err != nil {
		log.WithError(err).Warn("shutdown")
	}
	fmt.Fprintf(out, "\n%s\n", p.StoppedLine)
	return nil
}
