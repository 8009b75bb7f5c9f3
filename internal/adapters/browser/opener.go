// Package browser launches the desktop's default browser on a URL.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener implements ports.Opener with the platform's URL handler command.
type Opener struct {
	goos  string
	start func(name string, args ...string) error
}

// New creates an Opener for the running platform.
func New() *Opener {
	return &Opener{goos: runtime.GOOS, start: startDetached}
}

// Open launches the browser without waiting for it to exit.
func (o *Opener) Open(url string) error {
	name, args, err := command(o.goos, url)
	if err != nil {
		return err
	}
	if err := o.start(name, args...); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// command returns the program and arguments that open url on goos.
func command(goos, url string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	case "darwin":
		return "open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform %s", goos)
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child so it doesn't linger as a zombie.
	go cmd.Wait()
	return nil
}
