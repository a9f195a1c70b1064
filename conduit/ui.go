package conduit

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/conduit-qa/conduit-test-harness/conduit/pages"
	"github.com/conduit-qa/conduit-test-harness/framework/apitest"
)

// Number of items in the navigation bar, both before and after signing in.
const navBarItems = 3

var nonFileNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func doUITests(t *apitest.T) {
	t.Run("login", doUILoginTest)
}

// startBrowser opens a browser session that is closed when the test ends. If the test has failed by
// then, a screenshot is saved first.
func startBrowser(t *apitest.T) *pages.Session {
	t.Helper()
	c := requireContext(t)
	session, err := pages.StartSession(pages.SessionOptions{
		BaseURL:  c.harness.UIBaseURL(),
		Headless: c.ui.Headless,
	})
	if err != nil {
		t.Errorf("could not start browser: %s", err)
		t.FailNow()
	}
	t.Defer(func() {
		if t.Failed() && c.ui.ScreenshotDir != "" {
			saveScreenshot(t, session, c.ui.ScreenshotDir)
		}
		if err := session.Close(); err != nil {
			t.Debug("Error closing browser: %s", err)
		}
	})
	return session
}

func saveScreenshot(t *apitest.T, session *pages.Session, dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Debug("Could not create screenshot directory: %s", err)
		return
	}
	path := filepath.Join(dir, nonFileNameChars.ReplaceAllString(t.ID().String(), "_")+".png")
	if err := session.Screenshot(path); err != nil {
		t.Debug("Could not save screenshot: %s", err)
		return
	}
	t.Debug("Saved screenshot to %s", path)
}

func doUILoginTest(t *apitest.T) {
	t.RequireCapability(CapabilityUI)
	t.RequireCapability(CapabilityCredentials)
	t.NonCritical("browser tests depend on the public front end and a local browser install")

	creds := requireContext(t).credentials
	session := startBrowser(t)
	home := pages.NewHomePage(session.Page)
	login := pages.NewLoginPage(session.Page)

	check := func(err error) {
		if err != nil {
			t.Errorf("%s", err)
			t.FailNow()
		}
	}

	t.Step("GIVEN - I am at the login page", func() {
		check(home.Open())
		check(session.ExpectCount(home.Selectors.NavBar, navBarItems))
		check(home.GoToLoginPage())
	})
	t.Step("WHEN - I add valid credentials", func() {
		check(login.FillLoginForm(creds.Email, creds.Password))
	})
	t.Step("AND - I click the sign in button", func() {
		check(login.SignIn())
	})
	t.Step("THEN - I am back on the home page with the signed in nav bar", func() {
		check(session.ExpectCount(home.Selectors.NavBar, navBarItems))
	})
}
