// Package browser provides the tab controller used to execute insight and
// workflow actions: opening URLs as tabs and switching the active tab.
package browser

// TabHandle identifies one opened tab for later activation.
type TabHandle string

// Controller is the engine's outward tab surface. Implementations must keep
// handles valid until Close.
type Controller interface {
	// CreateTab opens url in a new tab and returns its handle.
	CreateTab(url string) (TabHandle, error)

	// SwitchActiveTab brings the tab with the given handle to the front.
	SwitchActiveTab(id TabHandle) error

	// Close releases all tabs and underlying browser resources.
	Close() error
}
