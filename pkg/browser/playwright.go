package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightController drives a real Chromium instance through Playwright.
// One browser context hosts all tabs; handles map to pages.
type PlaywrightController struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	pages   map[TabHandle]playwright.Page
	nextID  int

	headless bool
}

// PlaywrightOption customizes controller construction.
type PlaywrightOption func(*PlaywrightController)

// WithHeadless controls whether the browser runs headless. Defaults to true.
func WithHeadless(headless bool) PlaywrightOption {
	return func(c *PlaywrightController) {
		c.headless = headless
	}
}

// NewPlaywrightController creates a controller. Initialize must be called
// before the first CreateTab.
func NewPlaywrightController(opts ...PlaywrightOption) *PlaywrightController {
	c := &PlaywrightController{
		pages:    make(map[TabHandle]playwright.Page),
		headless: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize installs and starts Playwright and launches the browser.
// Driver output is discarded so it cannot interleave with engine output.
func (c *PlaywrightController) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pw != nil {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &c.headless,
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	context, err := browser.NewContext()
	if err != nil {
		browser.Close()
		pw.Stop()
		return fmt.Errorf("failed to create context: %w", err)
	}

	c.pw = pw
	c.browser = browser
	c.context = context
	return nil
}

// CreateTab opens url in a fresh page and returns its handle.
func (c *PlaywrightController) CreateTab(url string) (TabHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.context == nil {
		return "", fmt.Errorf("controller not initialized")
	}

	page, err := c.context.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	if _, err := page.Goto(url); err != nil {
		page.Close()
		return "", fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	c.nextID++
	handle := TabHandle(fmt.Sprintf("tab_%d", c.nextID))
	c.pages[handle] = page
	return handle, nil
}

// SwitchActiveTab brings the tab's page to the front.
func (c *PlaywrightController) SwitchActiveTab(id TabHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, ok := c.pages[id]
	if !ok {
		return fmt.Errorf("tab %q not found", id)
	}
	if err := page.BringToFront(); err != nil {
		return fmt.Errorf("failed to activate tab %q: %w", id, err)
	}
	return nil
}

// Close shuts down all pages, the browser, and the Playwright driver.
func (c *PlaywrightController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for handle, page := range c.pages {
		_ = page.Close() // continue cleanup on error
		delete(c.pages, handle)
	}
	if c.context != nil {
		_ = c.context.Close()
		c.context = nil
	}
	if c.browser != nil {
		_ = c.browser.Close()
		c.browser = nil
	}
	if c.pw != nil {
		if err := c.pw.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		c.pw = nil
	}
	return nil
}
