package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/guoriyue/repo-starrer/pkg/starrer"
)

// Viewport used for every session.
const (
	viewportWidth  = 1508
	viewportHeight = 859
)

// Config describes how to open a browser session.
type Config struct {
	// StorageState is an optional path to a saved cookie snapshot. It is
	// applied to ephemeral sessions only and silently skipped when the
	// file does not exist.
	StorageState string

	// ProfileDir binds the session to a persistent user-data directory so
	// a manual sign-in is remembered across runs. When set it takes
	// precedence over StorageState.
	ProfileDir string

	Headless bool
}

// Session is an open browser process with one page. It implements
// starrer.Page: Close shuts the page, Shutdown the browser process.
type Session struct {
	browser    *rod.Browser
	page       *rod.Page
	persistent bool
}

// Open launches a browser and prepares a page according to cfg.
func Open(cfg Config) (*Session, error) {
	l := launcher.New()

	// Use CHROME_BIN if set (Docker environment)
	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		l = l.Bin(chromeBin)
	}

	l = l.Headless(cfg.Headless)

	// Additional Chrome flags for Docker compatibility
	l = l.Set("no-sandbox")
	l = l.Set("disable-gpu")
	l = l.Set("disable-dev-shm-usage")

	persistent := cfg.ProfileDir != ""
	if persistent {
		dir, err := expandHome(cfg.ProfileDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve profile dir: %w", err)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create profile dir: %w", err)
		}
		l = l.UserDataDir(dir)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := firstOrNewPage(b, persistent)
	if err != nil {
		b.Close()
		return nil, err
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	if !persistent && cfg.StorageState != "" {
		cookies, err := LoadStorageState(cfg.StorageState)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to load storage state: %w", err)
		}
		if len(cookies) > 0 {
			if err := b.SetCookies(cookies); err != nil {
				b.Close()
				return nil, fmt.Errorf("failed to apply storage state: %w", err)
			}
		}
	}

	return &Session{browser: b, page: page, persistent: persistent}, nil
}

// firstOrNewPage reuses the profile's initial tab when one exists.
func firstOrNewPage(b *rod.Browser, persistent bool) (*rod.Page, error) {
	if persistent {
		pages, err := b.Pages()
		if err == nil && len(pages) > 0 {
			return pages.First(), nil
		}
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return page, nil
}

// Navigate loads url and waits for the document load event.
func (s *Session) Navigate(url string, timeout time.Duration) error {
	page := s.page.Timeout(timeout)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

// WaitVisible blocks until selector is present and visible.
func (s *Session) WaitVisible(selector string, timeout time.Duration) error {
	el, err := s.page.Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

// Count returns the number of elements currently matching selector.
func (s *Session) Count(selector string) (int, error) {
	els, err := s.page.Elements(selector)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

// Find returns the first element matching selector, or nil when absent.
func (s *Session) Find(selector string) (starrer.Node, error) {
	has, el, err := s.page.Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}
	return &Element{el: el}, nil
}

// FindX returns the first element matching xpath, or nil when absent.
func (s *Session) FindX(xpath string) (starrer.Node, error) {
	has, el, err := s.page.HasX(xpath)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}
	return &Element{el: el}, nil
}

// Screenshot captures a full-page PNG to path.
func (s *Session) Screenshot(path string) error {
	data, err := s.page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("failed to take screenshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save screenshot: %w", err)
	}
	return nil
}

// Close closes the page's browsing context. Called exactly once per run.
func (s *Session) Close() error {
	return s.page.Close()
}

// Shutdown closes the browser process for ephemeral sessions. A persistent
// profile's browser lifecycle is managed outside this process.
func (s *Session) Shutdown() {
	if s.persistent {
		return
	}
	s.browser.Close()
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// Element is a rod-backed starrer.Node.
type Element struct {
	el *rod.Element
}

// Find returns the first descendant matching selector, or nil when absent.
func (e *Element) Find(selector string) (starrer.Node, error) {
	has, el, err := e.el.Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}
	return &Element{el: el}, nil
}

// ScrollIntoView scrolls the element into the visible area.
func (e *Element) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}

// Click performs a single left click on the element.
func (e *Element) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}
