package browser

import (
	"fmt"
	"sync"
)

// Fake is an in-memory Controller for tests and dry runs. It records the
// order of opened URLs and the last activated handle.
type Fake struct {
	mu        sync.Mutex
	opened    []string
	active    TabHandle
	handles   map[TabHandle]string
	nextID    int
	FailOpen  bool // next CreateTab returns an error
	closed    bool
}

// NewFake creates an empty fake controller.
func NewFake() *Fake {
	return &Fake{handles: make(map[TabHandle]string)}
}

func (f *Fake) CreateTab(url string) (TabHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailOpen {
		return "", fmt.Errorf("tab open failed for %s", url)
	}
	f.nextID++
	handle := TabHandle(fmt.Sprintf("tab_%d", f.nextID))
	f.handles[handle] = url
	f.opened = append(f.opened, url)
	return handle, nil
}

func (f *Fake) SwitchActiveTab(id TabHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.handles[id]; !ok {
		return fmt.Errorf("tab %q not found", id)
	}
	f.active = id
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// OpenedURLs returns the URLs opened so far, in order.
func (f *Fake) OpenedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.opened...)
}

// ActiveURL returns the URL of the currently active tab, or "".
func (f *Fake) ActiveURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handles[f.active]
}
