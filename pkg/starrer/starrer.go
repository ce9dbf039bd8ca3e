package starrer

import (
	"fmt"
	"log"
	"time"

	"github.com/guoriyue/repo-starrer/pkg/models"
)

// Selectors for the repository listing page. The star form sits at a fixed
// structural offset under each list item; the aria-label lookup is the
// fallback when that structure is absent.
const (
	listContainerSelector = "#user-repositories-list"
	listItemSelector      = "#user-repositories-list li"
	starFormXPath         = "//div[@id='user-repositories-list']/ul/li[%d]/div[2]/div[1]/div[2]/form"
	submitButtonSelector  = "button[type='submit']"
	starButtonSelector    = "#user-repositories-list li:nth-child(%d) button[aria-label*='Star']"
)

// Default wait budgets. The list can render well after the initial document
// load, so its wait is much larger than the navigation wait.
const (
	DefaultNavigateTimeout = 60 * time.Second
	DefaultListTimeout     = 1000 * time.Second
	DefaultSettleDelay     = 3 * time.Second
	DefaultScrollPause     = 200 * time.Millisecond
	DefaultResponseWait    = 800 * time.Millisecond
	DefaultThrottleDelay   = 300 * time.Millisecond
)

// Page is the subset of browser page behavior the starrer needs.
// Find and FindX return a nil Node when no element matches.
type Page interface {
	Navigate(url string, timeout time.Duration) error
	WaitVisible(selector string, timeout time.Duration) error
	Count(selector string) (int, error)
	Find(selector string) (Node, error)
	FindX(xpath string) (Node, error)
	Close() error
}

// Node is a handle to a located DOM element.
type Node interface {
	Find(selector string) (Node, error)
	ScrollIntoView() error
	Click() error
}

// Options configures a single star run.
type Options struct {
	URL string

	NavigateTimeout time.Duration
	ListTimeout     time.Duration
	SettleDelay     time.Duration
	ScrollPause     time.Duration
	ResponseWait    time.Duration
	ThrottleDelay   time.Duration

	// OnItem, when set, is called once per list entry after it has been
	// attempted. starred reports whether the click sequence completed;
	// err is the per-item failure, if any. Entries whose star control is
	// simply absent report starred=false, err=nil.
	OnItem func(index int, starred bool, err error)

	// OnFailure, when set, is called for structural failures while the
	// page is still open, so callers can capture diagnostics before the
	// session is torn down.
	OnFailure func(err error)
}

// DefaultOptions returns run options for url with the standard wait budgets.
func DefaultOptions(url string) Options {
	return Options{
		URL:             url,
		NavigateTimeout: DefaultNavigateTimeout,
		ListTimeout:     DefaultListTimeout,
		SettleDelay:     DefaultSettleDelay,
		ScrollPause:     DefaultScrollPause,
		ResponseWait:    DefaultResponseWait,
		ThrottleDelay:   DefaultThrottleDelay,
	}
}

func (o Options) navigateTimeout() time.Duration {
	if o.NavigateTimeout > 0 {
		return o.NavigateTimeout
	}
	return DefaultNavigateTimeout
}

func (o Options) listTimeout() time.Duration {
	if o.ListTimeout > 0 {
		return o.ListTimeout
	}
	return DefaultListTimeout
}

// Run navigates to the repository listing page and attempts to star every
// entry present when the list is first enumerated. The page is closed exactly
// once before Run returns, on every path.
//
// Per-item failures are logged and skipped; failures during navigation or
// setup abort the run and are returned to the caller. The returned counters
// are valid on both paths.
func Run(page Page, opts Options) (models.RunResult, error) {
	var result models.RunResult

	defer func() {
		if err := page.Close(); err != nil {
			log.Printf("Error closing browser session: %v", err)
		}
	}()

	fail := func(err error) error {
		if opts.OnFailure != nil {
			opts.OnFailure(err)
		}
		return err
	}

	log.Printf("Navigating to %s", opts.URL)
	if err := page.Navigate(opts.URL, opts.navigateTimeout()); err != nil {
		return result, fail(fmt.Errorf("failed to navigate to %s: %w", opts.URL, err))
	}

	// The listing renders client-side after the document load event.
	time.Sleep(opts.SettleDelay)

	if err := page.WaitVisible(listContainerSelector, opts.listTimeout()); err != nil {
		return result, fail(fmt.Errorf("repository list did not appear: %w", err))
	}

	total, err := page.Count(listItemSelector)
	if err != nil {
		return result, fail(fmt.Errorf("failed to enumerate repositories: %w", err))
	}
	result.TotalRepos = total
	log.Printf("Found %d repositories on the page", total)

	for index := 1; index <= total; index++ {
		starred, err := starItem(page, index, total, opts)
		switch {
		case err != nil:
			log.Printf("Error starring repository %d: %v", index, err)
		case starred:
			result.StarredCount++
			log.Printf("Starred %d/%d", index, total)
		default:
			log.Printf("No star control found for repository %d", index)
		}
		if opts.OnItem != nil {
			opts.OnItem(index, starred, err)
		}
	}

	log.Printf("Run complete: starred %d/%d repositories", result.StarredCount, result.TotalRepos)
	return result, nil
}

// starItem attempts the click sequence for one list entry. It reports whether
// the star control was clicked; a missing control is not an error.
func starItem(page Page, index, total int, opts Options) (bool, error) {
	form, err := page.FindX(fmt.Sprintf(starFormXPath, index))
	if err != nil {
		return false, err
	}

	if form != nil {
		button, err := form.Find(submitButtonSelector)
		if err != nil {
			return false, err
		}
		if button == nil {
			return false, nil
		}

		if err := button.ScrollIntoView(); err != nil {
			return false, err
		}
		time.Sleep(opts.ScrollPause)

		log.Printf("Starring repository %d/%d", index, total)
		if err := button.Click(); err != nil {
			return false, err
		}

		// The star submit is handled asynchronously; give it time, then
		// throttle before moving on.
		time.Sleep(opts.ResponseWait)
		time.Sleep(opts.ThrottleDelay)
		return true, nil
	}

	// No form at the expected offset; try the labeled button directly.
	button, err := page.Find(fmt.Sprintf(starButtonSelector, index))
	if err != nil {
		return false, err
	}
	if button == nil {
		return false, nil
	}

	if err := button.ScrollIntoView(); err != nil {
		return false, err
	}
	if err := button.Click(); err != nil {
		return false, err
	}
	time.Sleep(opts.ResponseWait)
	return true, nil
}
