package web

import "net/http"

// CacheDefeatHeaders tells clients never to reuse a cached copy.
func CacheDefeatHeaders() http.Header {
	return http.Header{
		"Cache-Control": {"no-cache, no-store, must-revalidate"},
		"Pragma":        {"no-cache"},
		"Expires":       {"0"},
	}
}

// CORSHeaders lets scripts from any origin read responses.
func CORSHeaders() http.Header {
	return http.Header{
		"Access-Control-Allow-Origin":  {"*"},
		"Access-Control-Allow-Methods": {"GET, POST, OPTIONS"},
		"Access-Control-Allow-Headers": {"Content-Type"},
	}
}

// headerWriter applies extra headers at WriteHeader time. net/http strips
// Cache-Control from error responses produced by the file server, so setting
// them up front is not enough.
type headerWriter struct {
	http.ResponseWriter
	extra       http.Header
	status      int
	bytes       int64
	wroteHeader bool
}

func (w *headerWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.status = code
		h := w.ResponseWriter.Header()
		for k, v := range w.extra {
			h[k] = append([]string(nil), v...)
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *headerWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
