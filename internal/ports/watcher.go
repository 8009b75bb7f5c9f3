package ports

// Watcher reports edits to the served asset tree so a running dashboard
// server can tell the developer a reload will pick them up.
type Watcher interface {
	// Watch begins reporting changes under root, including directories
	// created later. onChange receives absolute file paths and may run on any
	// goroutine; VCS, editor and dependency paths never reach it.
	Watch(root string, onChange func(filePath string)) error

	// Stop releases the watch. No onChange call starts after it returns.
	// Calling it twice is harmless.
	Stop() error
}
