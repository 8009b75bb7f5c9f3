package app

import (
	"net/http"

	"github.com/corey/cfodash/internal/adapters/web"
)

// Profile fixes what one binary serves: its port, the headers forced onto
// every response, and what it prints.
type Profile struct {
	Name        string
	Short       string
	Port        int
	Headers     http.Header
	Preflight   bool // answer CORS preflight requests
	OpenBrowser bool // launch a browser tab shortly after startup
	StoppedLine string

	banner func(url string) []string
}

// Banner returns the startup lines for a server reachable at url.
func (p Profile) Banner(url string) []string {
	if p.banner == nil {
		return []string{"Serving at " + url}
	}
	return p.banner(url)
}

// Dashboard serves the dashboard with cache-defeating headers and opens it
// in the browser.
func Dashboard() Profile {
	return Profile{
		Name:        "cfo-dashboard",
		Short:       "Serve the CFO dashboard with caching disabled and open it in a browser",
		Port:        8090,
		Headers:     web.CacheDefeatHeaders(),
		OpenBrowser: true,
		StoppedLine: "Server stopped",
		banner: func(url string) []string {
			return []string{
				"CFO Dashboard server running at " + url,
				"Press Ctrl+C to stop the server",
			}
		},
	}
}

// TestServer serves the same tree with permissive CORS headers so pages on
// other origins can call it during local API testing.
func TestServer() Profile {
	return Profile{
		Name:        "cfo-testserver",
		Short:       "Serve the CFO dashboard with permissive CORS headers for API testing",
		Port:        8081,
		Headers:     web.CORSHeaders(),
		Preflight:   true,
		StoppedLine: "Server stopped.",
		banner: func(url string) []string {
			return []string{
				"Server running at " + url + "/",
				"Open " + url + "/cfo-dashboard.html",
				"Press Ctrl+C to stop the server",
			}
		},
	}
}
