// Package app wires the static file server, the optional asset watcher and
// the one-shot browser launch together. It provides lifecycle management:
// create, start, stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/corey/cfodash/internal/adapters/browser"
	fsw "github.com/corey/cfodash/internal/adapters/fsnotify"
	"github.com/corey/cfodash/internal/adapters/web"
	"github.com/corey/cfodash/internal/ports"
)

// DefaultOpenDelay is how long after startup the browser is launched.
const DefaultOpenDelay = time.Second

// Config holds initialization parameters for the App.
type Config struct {
	Profile     Profile
	Root        string        // directory to serve, must exist
	Host        string        // listen host, empty for all interfaces
	Port        int           // listen port, 0 picks a free one
	OpenBrowser bool          // launch a browser tab after OpenDelay
	OpenDelay   time.Duration // default: DefaultOpenDelay
	Watch       bool          // log changes to served assets

	ShutdownTimeout time.Duration // default: web.DefaultShutdownTimeout

	Opener  ports.Opener  // optional: default launches the system browser
	Watcher ports.Watcher // optional: default is fsnotify, created on Start
}

// App is the top-level container wiring all components together.
type App struct {
	Root      string
	Profile   Profile
	WebServer *web.Server
	Watcher   ports.Watcher

	cfg       Config
	opener    ports.Opener
	mu        sync.Mutex
	openTimer *time.Timer
	stopped   bool
}

// New creates an App with all dependencies wired. Does not start services.
func New(cfg Config) (*App, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("root directory required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", cfg.Root, err)
	}
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	if cfg.OpenDelay <= 0 {
		cfg.OpenDelay = DefaultOpenDelay
	}
	opener := cfg.Opener
	if opener == nil {
		opener = browser.New()
	}

	return &App{
		Root:    root,
		Profile: cfg.Profile,
		WebServer: web.NewServer(web.Options{
			Root:      root,
			Headers:   cfg.Profile.Headers,
			Preflight: cfg.Profile.Preflight,

			ShutdownTimeout: cfg.ShutdownTimeout,
		}),
		Watcher: cfg.Watcher,
		cfg:     cfg,
		opener:  opener,
	}, nil
}

// Start binds the listener and begins serving. A bind failure is returned;
// watcher and browser problems are only logged.
func (a *App) Start() error {
	if err := a.WebServer.Start(a.cfg.Host, a.cfg.Port); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	log.WithFields(log.Fields{
		"profile": a.Profile.Name,
		"root":    a.Root,
		"port":    a.WebServer.Port(),
	}).Info("server started")

	if a.cfg.Watch {
		a.startWatcher()
	}
	if a.cfg.OpenBrowser {
		a.scheduleOpen(a.URL(), a.cfg.OpenDelay)
	}
	return nil
}

// Stop cancels a pending browser launch, stops the watcher and shuts the
// server down. Idempotent.
func (a *App) Stop() error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	if a.openTimer != nil {
		a.openTimer.Stop()
	}
	a.mu.Unlock()

	if a.Watcher != nil {
		if err := a.Watcher.Stop(); err != nil {
			log.WithError(err).Warn("stop watcher")
		}
	}
	if err := a.WebServer.Stop(); err != nil {
		// Stalled connections were force-closed by the server.
		if errors.Is(err, context.DeadlineExceeded) {
			log.WithError(err).Warn("closed connections still open after shutdown timeout")
			return nil
		}
		return fmt.Errorf("stop server: %w", err)
	}
	return nil
}

// URL returns the address to open in a browser.
func (a *App) URL() string {
	return a.WebServer.URL()
}

// scheduleOpen launches the browser once, off the serving path.
func (a *App) scheduleOpen(url string, delay time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.openTimer = time.AfterFunc(delay, func() {
		if err := a.opener.Open(url); err != nil {
			log.WithError(err).Debug("could not open browser")
		}
	})
}

func (a *App) startWatcher() {
	if a.Watcher == nil {
		w, err := fsw.NewWatcher()
		if err != nil {
			log.WithError(err).Warn("file watcher unavailable")
			return
		}
		a.Watcher = w
	}
	if err := a.Watcher.Watch(a.Root, a.onAssetChanged); err != nil {
		log.WithError(err).Warn("file watcher unavailable")
	}
}

func (a *App) onAssetChanged(path string) {
	rel, err := filepath.Rel(a.Root, path)
	if err != nil {
		rel = path
	}
	log.WithField("path", filepath.ToSlash(rel)).Info("asset changed")
}
