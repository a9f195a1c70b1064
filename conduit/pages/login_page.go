package pages

import (
	pw "github.com/playwright-community/playwright-go"
)

type LoginPage struct {
	page pw.Page
}

func NewLoginPage(page pw.Page) LoginPage {
	return LoginPage{page: page}
}

// FillLoginForm types the credentials into the email and password fields.
func (p LoginPage) FillLoginForm(email, password string) error {
	if err := p.page.GetByRole(*pw.AriaRoleTextbox, pw.PageGetByRoleOptions{Name: "email"}).Fill(email); err != nil {
		return err
	}
	return p.page.GetByRole(*pw.AriaRoleTextbox, pw.PageGetByRoleOptions{Name: "password"}).Fill(password)
}

func (p LoginPage) SignIn() error {
	return p.page.GetByRole(*pw.AriaRoleButton, pw.PageGetByRoleOptions{Name: "Sign in"}).Click()
}
