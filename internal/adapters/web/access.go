package web

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// logRequest writes one access log line per request. Client and server
// errors are logged at warn level.
func logRequest(r *http.Request, w *headerWriter, elapsed time.Duration) {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	entry := log.WithFields(log.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"status":   status,
		"bytes":    w.bytes,
		"remote":   r.RemoteAddr,
		"duration": elapsed.Round(time.Microsecond).String(),
	})
	if status >= http.StatusBadRequest {
		entry.Warn("request failed")
		return
	}
	entry.Info("request served")
}
