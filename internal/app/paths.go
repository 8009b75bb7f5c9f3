package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrRootNotDir is returned when the directory to serve is missing or is a file.
var ErrRootNotDir = errors.New("not a directory")

// ResolveRoot returns the absolute directory to serve. An explicit dir wins;
// otherwise the directory holding the running executable, falling back to
// the working directory for binaries built by "go run" or "go test".
func ResolveRoot(dir string) (string, error) {
	if dir == "" {
		dir = executableDir()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", dir, err)
	}
	if err := checkRoot(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func checkRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("root %s: %w", dir, ErrRootNotDir)
	}
	return nil
}

func executableDir() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		if dir := filepath.Dir(exe); !isBuildCacheDir(dir) {
			return dir
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// isBuildCacheDir reports whether dir is one of the throwaway go-build*
// directories the go command links temporary binaries into.
func isBuildCacheDir(dir string) bool {
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if strings.HasPrefix(part, "go-build") {
			return true
		}
	}
	return false
}
