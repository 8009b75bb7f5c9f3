// Package cli builds the cobra command shared by the cfo-dashboard and
// cfo-testserver binaries.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/corey/cfodash/internal/app"
)

// options holds flag values. Every default reproduces the fixed behavior of
// running the binary without arguments.
type options struct {
	port      int
	dir       string
	host      string
	noOpen    bool
	openDelay time.Duration
	watch     bool
	logLevel  string
}

// NewCommand returns the root command for profile p.
func NewCommand(p app.Profile) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          p.Name,
		Short:        p.Short,
		Long:         p.Short + ".\nFiles are served from the directory containing the binary unless --dir is given.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, p, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.port, "port", "p", p.Port, "port to listen on")
	f.StringVarP(&opts.dir, "dir", "d", "", "directory to serve (default: directory of the executable)")
	f.StringVar(&opts.host, "host", "", "interface to listen on (default: all)")
	f.BoolVar(&opts.watch, "watch", false, "log changes to served files")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	if p.OpenBrowser {
		f.BoolVar(&opts.noOpen, "no-open", false, "do not open a browser tab")
		f.DurationVar(&opts.openDelay, "open-delay", app.DefaultOpenDelay, "wait before opening the browser")
	}
	return cmd
}

// Execute runs the root command for profile p.
func Execute(p app.Profile) error {
	return NewCommand(p).Execute()
}
