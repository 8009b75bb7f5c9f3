package ports

// Opener hands a URL to the desktop's default browser.
// Open must not block on the browser process itself.
type Opener interface {
	Open(url string) error
}
