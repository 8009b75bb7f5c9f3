package app

import (
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpener records every URL it is asked to open.
type fakeOpener struct {
	calls chan string
	err   error
}

func newFakeOpener(err error) *fakeOpener {
	return &fakeOpener{calls: make(chan string, 4), err: err}
}

func (f *fakeOpener) Open(url string) error {
	f.calls <- url
	return f.err
}

// fakeWatcher captures the callback so tests can drive it directly.
type fakeWatcher struct {
	mu       sync.Mutex
	root     string
	onChange func(string)
	stops    int
	watchErr error
}

func (f *fakeWatcher) Watch(root string, onChange func(string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.root = root
	f.onChange = onChange
	return f.watchErr
}

func (f *fakeWatcher) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func newRoot(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cfo-dashboard.html"), []byte("<h1>CFO</h1>"), 0644))
	return dir
}

func startApp(t *testing.T, cfg Config) *App {
	t.Helper()
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Start())
	t.Cleanup(func() { a.Stop() })
	return a
}

func fetch(t *testing.T, a *App, path string) *http.Response {
	t.Helper()
	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(a.WebServer.Port()) + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNew_RequiresExistingRoot(t *testing.T) {
	_, err := New(Config{Profile: Dashboard()})
	assert.Error(t, err)

	_, err = New(Config{Profile: Dashboard(), Root: filepath.Join(t.TempDir(), "missing")})
	assert.True(t, errors.Is(err, ErrRootNotDir))
}

func TestDashboardProfile_ServesWithCacheDefeat(t *testing.T) {
	opener := newFakeOpener(nil)
	a := startApp(t, Config{Profile: Dashboard(), Root: newRoot(t), Opener: opener})

	resp := fetch(t, a, "/cfo-dashboard.html")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>CFO</h1>", string(body))
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestTestServerProfile_ServesWithCORS(t *testing.T) {
	a := startApp(t, Config{Profile: TestServer(), Root: newRoot(t)})

	resp := fetch(t, a, "/cfo-dashboard.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", resp.Header.Get("Access-Control-Allow-Headers"))
	assert.Empty(t, resp.Header.Get("Pragma"))

	resp = fetch(t, a, "/missing.html")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStart_OpensBrowserOnceAfterDelay(t *testing.T) {
	opener := newFakeOpener(nil)
	a := startApp(t, Config{
		Profile:     Dashboard(),
		Root:        newRoot(t),
		OpenBrowser: true,
		OpenDelay:   20 * time.Millisecond,
		Opener:      opener,
	})

	select {
	case url := <-opener.calls:
		assert.Equal(t, "http://localhost:"+strconv.Itoa(a.WebServer.Port()), url)
	case <-time.After(2 * time.Second):
		t.Fatal("browser was never opened")
	}

	select {
	case url := <-opener.calls:
		t.Fatalf("browser opened twice (second: %s)", url)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStart_BrowserFailureDoesNotAffectServing(t *testing.T) {
	opener := newFakeOpener(errors.New("no display"))
	a := startApp(t, Config{
		Profile:     Dashboard(),
		Root:        newRoot(t),
		OpenBrowser: true,
		OpenDelay:   10 * time.Millisecond,
		Opener:      opener,
	})

	select {
	case <-opener.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("browser was never opened")
	}

	resp := fetch(t, a, "/cfo-dashboard.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStop_CancelsPendingBrowserLaunch(t *testing.T) {
	opener := newFakeOpener(nil)
	a, err := New(Config{
		Profile:     Dashboard(),
		Root:        newRoot(t),
		Host:        "127.0.0.1",
		OpenBrowser: true,
		OpenDelay:   200 * time.Millisecond,
		Opener:      opener,
	})
	require.NoError(t, err)
	require.NoError(t, a.Start())
	require.NoError(t, a.Stop())

	select {
	case url := <-opener.calls:
		t.Fatalf("browser opened after Stop: %s", url)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestNoBrowserWhenDisabled(t *testing.T) {
	opener := newFakeOpener(nil)
	startApp(t, Config{Profile: Dashboard(), Root: newRoot(t), OpenDelay: 10 * time.Millisecond, Opener: opener})

	select {
	case url := <-opener.calls:
		t.Fatalf("unexpected browser launch: %s", url)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStart_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	a, err := New(Config{
		Profile: TestServer(),
		Root:    newRoot(t),
		Host:    "127.0.0.1",
		Port:    ln.Addr().(*net.TCPAddr).Port,
	})
	require.NoError(t, err)

	err = a.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start server")
}

func TestStop_TerminatesServingAndIsIdempotent(t *testing.T) {
	a, err := New(Config{Profile: TestServer(), Root: newRoot(t), Host: "127.0.0.1"})
	require.NoError(t, err)
	require.NoError(t, a.Start())
	addr := "127.0.0.1:" + strconv.Itoa(a.WebServer.Port())

	require.NoError(t, a.Stop())
	require.NoError(t, a.Stop())

	_, err = net.Dial("tcp", addr)
	assert.Error(t, err)
}

func TestWatch_WiresWatcherToRoot(t *testing.T) {
	root := newRoot(t)
	w := &fakeWatcher{}
	a := startApp(t, Config{Profile: Dashboard(), Root: root, Watch: true, Watcher: w})

	w.mu.Lock()
	assert.Equal(t, root, w.root)
	require.NotNil(t, w.onChange)
	onChange := w.onChange
	w.mu.Unlock()

	onChange(filepath.Join(root, "cfo-dashboard.html"))

	require.NoError(t, a.Stop())
	w.mu.Lock()
	assert.Equal(t, 1, w.stops)
	w.mu.Unlock()
}

func TestWatch_FailureIsNotFatal(t *testing.T) {
	w := &fakeWatcher{watchErr: errors.New("too many open files")}
	a := startApp(t, Config{Profile: Dashboard(), Root: newRoot(t), Watch: true, Watcher: w})

	resp := fetch(t, a, "/cfo-dashboard.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProfiles(t *testing.T) {
	d := Dashboard()
	assert.Equal(t, 8090, d.Port)
	assert.True(t, d.OpenBrowser)
	assert.False(t, d.Preflight)
	assert.Equal(t, []string{
		"CFO Dashboard server running at http://localhost:8090",
		"Press Ctrl+C to stop the server",
	}, d.Banner("http://localhost:8090"))

	s := TestServer()
	assert.Equal(t, 8081, s.Port)
	assert.False(t, s.OpenBrowser)
	assert.True(t, s.Preflight)
	assert.Equal(t, []string{
		"Server running at http://localhost:8081/",
		"Open http://localhost:8081/cfo-dashboard.html",
		"Press Ctrl+C to stop the server",
	}, s.Banner("http://localhost:8081"))
}

func TestStop_StalledClientStillStopsCleanly(t *testing.T) {
	a, err := New(Config{
		Profile:         TestServer(),
		Root:            newRoot(t),
		Host:            "127.0.0.1",
		ShutdownTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, a.Start())
	addr := "127.0.0.1:" + strconv.Itoa(a.WebServer.Port())

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\n"))
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	assert.NoError(t, a.Stop(), "a shutdown timeout is logged, not returned")

	_, err = net.Dial("tcp", addr)
	assert.Error(t, err)
}
