package starrer

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// stubNode is a scriptable DOM element handle.
type stubNode struct {
	submit    *stubNode
	scrollErr error
	clickErr  error
	clicks    int
}

func (n *stubNode) Find(selector string) (Node, error) {
	if n.submit == nil {
		return nil, nil
	}
	return n.submit, nil
}

func (n *stubNode) ScrollIntoView() error { return n.scrollErr }

func (n *stubNode) Click() error {
	if n.clickErr != nil {
		return n.clickErr
	}
	n.clicks++
	return nil
}

// stubPage is a scriptable Page for exercising the run loop without a browser.
type stubPage struct {
	navigateErr error
	waitErr     error
	countErr    error

	total     int
	forms     map[int]*stubNode // star form per 1-based index
	fallbacks map[int]*stubNode // labeled button per 1-based index
	lookupErr map[int]error     // forced failure on the form lookup

	closeCount int
}

func (p *stubPage) Navigate(url string, _ time.Duration) error { return p.navigateErr }

func (p *stubPage) WaitVisible(selector string, _ time.Duration) error { return p.waitErr }

func (p *stubPage) Count(selector string) (int, error) {
	if p.countErr != nil {
		return 0, p.countErr
	}
	return p.total, nil
}

func (p *stubPage) Find(selector string) (Node, error) {
	for i := 1; i <= p.total; i++ {
		if selector == fmt.Sprintf(starButtonSelector, i) {
			if b := p.fallbacks[i]; b != nil {
				return b, nil
			}
			return nil, nil
		}
	}
	return nil, nil
}

func (p *stubPage) FindX(xpath string) (Node, error) {
	for i := 1; i <= p.total; i++ {
		if xpath == fmt.Sprintf(starFormXPath, i) {
			if err := p.lookupErr[i]; err != nil {
				return nil, err
			}
			if f := p.forms[i]; f != nil {
				return f, nil
			}
			return nil, nil
		}
	}
	return nil, nil
}

func (p *stubPage) Close() error {
	p.closeCount++
	return nil
}

func formWithSubmit() *stubNode {
	return &stubNode{submit: &stubNode{}}
}

func TestRunStarsAllRepositories(t *testing.T) {
	page := &stubPage{
		total: 3,
		forms: map[int]*stubNode{1: formWithSubmit(), 2: formWithSubmit(), 3: formWithSubmit()},
	}

	result, err := Run(page, Options{URL: "https://github.com/karpathy?tab=repositories"})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if result.TotalRepos != 3 {
		t.Errorf("TotalRepos = %d, want 3", result.TotalRepos)
	}
	if result.StarredCount != 3 {
		t.Errorf("StarredCount = %d, want 3", result.StarredCount)
	}
	for i := 1; i <= 3; i++ {
		if got := page.forms[i].submit.clicks; got != 1 {
			t.Errorf("item %d submit clicks = %d, want 1", i, got)
		}
	}
	if page.closeCount != 1 {
		t.Errorf("closeCount = %d, want 1", page.closeCount)
	}
}

func TestRunFailureIsolation(t *testing.T) {
	// Item 2's lookup fails; items 1 and 3 must still be attempted.
	page := &stubPage{
		total:     3,
		forms:     map[int]*stubNode{1: formWithSubmit(), 3: formWithSubmit()},
		lookupErr: map[int]error{2: errors.New("detached node")},
	}

	var attempted []int
	opts := Options{
		URL: "https://example.test/repos",
		OnItem: func(index int, starred bool, err error) {
			attempted = append(attempted, index)
		},
	}

	result, err := Run(page, opts)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil (per-item failures are swallowed)", err)
	}
	if result.StarredCount != 2 {
		t.Errorf("StarredCount = %d, want 2", result.StarredCount)
	}
	if len(attempted) != 3 {
		t.Fatalf("attempted %d items, want 3", len(attempted))
	}
	for i, want := range []int{1, 2, 3} {
		if attempted[i] != want {
			t.Errorf("attempted[%d] = %d, want %d", i, attempted[i], want)
		}
	}
}

func TestRunMixedControls(t *testing.T) {
	// Items 1 and 3 expose a form with a submit control, item 2 exposes
	// neither form nor labeled button.
	page := &stubPage{
		total: 3,
		forms: map[int]*stubNode{1: formWithSubmit(), 3: formWithSubmit()},
	}

	type itemOutcome struct {
		starred bool
		err     error
	}
	outcomes := make(map[int]itemOutcome)
	opts := Options{
		URL: "https://example.test/repos",
		OnItem: func(index int, starred bool, err error) {
			outcomes[index] = itemOutcome{starred: starred, err: err}
		},
	}

	result, err := Run(page, opts)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if result.TotalRepos != 3 || result.StarredCount != 2 {
		t.Errorf("got total=%d starred=%d, want total=3 starred=2", result.TotalRepos, result.StarredCount)
	}
	if o := outcomes[2]; o.starred || o.err != nil {
		t.Errorf("item 2 outcome = %+v, want not starred and no error", o)
	}
}

func TestRunFallbackButton(t *testing.T) {
	// No form at the structural offset, but a labeled star button exists.
	fallback := &stubNode{}
	page := &stubPage{
		total:     1,
		fallbacks: map[int]*stubNode{1: fallback},
	}

	result, err := Run(page, Options{URL: "https://example.test/repos"})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if result.StarredCount != 1 {
		t.Errorf("StarredCount = %d, want 1", result.StarredCount)
	}
	if fallback.clicks != 1 {
		t.Errorf("fallback clicks = %d, want 1", fallback.clicks)
	}
}

func TestRunListNeverAppears(t *testing.T) {
	page := &stubPage{
		total:   5,
		forms:   map[int]*stubNode{1: formWithSubmit()},
		waitErr: errors.New("timeout waiting for selector"),
	}

	itemCalls := 0
	opts := Options{
		URL:    "https://example.test/repos",
		OnItem: func(int, bool, error) { itemCalls++ },
	}

	result, err := Run(page, opts)
	if err == nil {
		t.Fatal("Run() error = nil, want list wait failure")
	}
	if result.TotalRepos != 0 || result.StarredCount != 0 {
		t.Errorf("got total=%d starred=%d, want zero counters", result.TotalRepos, result.StarredCount)
	}
	if itemCalls != 0 {
		t.Errorf("items attempted = %d, want 0", itemCalls)
	}
	if page.forms[1].submit.clicks != 0 {
		t.Errorf("submit clicked despite missing list")
	}
	if page.closeCount != 1 {
		t.Errorf("closeCount = %d, want 1", page.closeCount)
	}
}

func TestRunNavigationFailure(t *testing.T) {
	page := &stubPage{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}

	_, err := Run(page, Options{URL: "https://nonexistent.test"})
	if err == nil {
		t.Fatal("Run() error = nil, want navigation failure")
	}
	if page.closeCount != 1 {
		t.Errorf("closeCount = %d, want 1", page.closeCount)
	}
}

func TestRunPerItemClickFailure(t *testing.T) {
	tests := []struct {
		name        string
		forms       map[int]*stubNode
		wantStarred int
	}{
		{
			name: "click fails on first item only",
			forms: map[int]*stubNode{
				1: {submit: &stubNode{clickErr: errors.New("element not clickable")}},
				2: formWithSubmit(),
			},
			wantStarred: 1,
		},
		{
			name: "scroll fails on second item only",
			forms: map[int]*stubNode{
				1: formWithSubmit(),
				2: {submit: &stubNode{scrollErr: errors.New("node destroyed")}},
			},
			wantStarred: 1,
		},
		{
			name: "form present but no submit control",
			forms: map[int]*stubNode{
				1: {submit: nil},
				2: formWithSubmit(),
			},
			wantStarred: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &stubPage{total: 2, forms: tt.forms}

			result, err := Run(page, Options{URL: "https://example.test/repos"})
			if err != nil {
				t.Fatalf("Run() error = %v, want nil", err)
			}
			if result.StarredCount != tt.wantStarred {
				t.Errorf("StarredCount = %d, want %d", result.StarredCount, tt.wantStarred)
			}
			if result.StarredCount > result.TotalRepos {
				t.Errorf("StarredCount %d exceeds TotalRepos %d", result.StarredCount, result.TotalRepos)
			}
		})
	}
}
