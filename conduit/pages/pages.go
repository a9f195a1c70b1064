// Package pages contains page objects for the Conduit web front end. Each page object exposes the
// selectors it relies on and the actions a user performs on that page, so that browser tests read
// as a sequence of user steps.
package pages

import (
	"fmt"

	pw "github.com/playwright-community/playwright-go"
)

// Session is a running browser with a single page open.
type Session struct {
	runner  *pw.Playwright
	browser pw.Browser
	Page    pw.Page
}

// SessionOptions configures StartSession.
type SessionOptions struct {
	// BaseURL is the front end root; relative URLs given to Page.Goto are resolved against it.
	BaseURL string

	// Headless controls whether the browser window is hidden.
	Headless bool
}

// StartSession launches Chromium and opens a page. The caller must call Close.
func StartSession(opts SessionOptions) (*Session, error) {
	runner, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	browser, err := runner.Chromium.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(opts.Headless),
	})
	if err != nil {
		_ = runner.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	page, err := browser.NewPage(pw.BrowserNewPageOptions{
		BaseURL: pw.String(opts.BaseURL),
	})
	if err != nil {
		_ = browser.Close()
		_ = runner.Stop()
		return nil, fmt.Errorf("could not open page: %w", err)
	}
	return &Session{runner: runner, browser: browser, Page: page}, nil
}

// Screenshot saves an image of the whole page to path.
func (s *Session) Screenshot(path string) error {
	_, err := s.Page.Screenshot(pw.PageScreenshotOptions{
		Path:     pw.String(path),
		FullPage: pw.Bool(true),
	})
	return err
}

// ExpectCount waits until selector matches exactly count elements, or the assertion times out.
func (s *Session) ExpectCount(selector string, count int) error {
	return pw.NewPlaywrightAssertions().Locator(s.Page.Locator(selector)).ToHaveCount(count)
}

func (s *Session) Close() error {
	err := s.browser.Close()
	if stopErr := s.runner.Stop(); err == nil {
		err = stopErr
	}
	return err
}
