package pages

import (
	pw "github.com/playwright-community/playwright-go"
)

// HomeSelectors are the elements of the home page that tests look for.
type HomeSelectors struct {
	NavBar   string
	LoginBtn string
}

var homeSelectors = HomeSelectors{
	NavBar:   `ul[class*="navbar-nav"] li`,
	LoginBtn: `a[routerlink="/login"]`,
}

type HomePage struct {
	page      pw.Page
	Selectors HomeSelectors
}

func NewHomePage(page pw.Page) HomePage {
	return HomePage{page: page, Selectors: homeSelectors}
}

// Open navigates to the root of the front end.
func (p HomePage) Open() error {
	_, err := p.page.Goto("/")
	return err
}

func (p HomePage) GoToLoginPage() error {
	return p.page.Locator(p.Selectors.LoginBtn).Click()
}
