package cli

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// setupLogging configures the process-wide logger. Access and lifecycle logs
// go to w; stdout is reserved for the startup banner.
func setupLogging(level string, w io.Writer) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return nil
}
