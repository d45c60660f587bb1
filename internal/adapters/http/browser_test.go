package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
)

// newBrowserPage serves the app on a loopback listener and opens it in headless Chromium.
// Browser tests need an installed Playwright driver and only run with SIGNUP_BROWSER_TESTS=1.
func newBrowserPage(t *testing.T) (playwright.Page, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if os.Getenv("SIGNUP_BROWSER_TESTS") != "1" {
		t.Skip("set SIGNUP_BROWSER_TESTS=1 to run browser tests")
	}

	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	handler = newUIHandler(t, srv.URL, []byte("0123456789abcdef0123456789abcdef"), 2*time.Second)

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		t.Fatalf("failed to launch browser: %v", err)
	}
	page, err := browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() {
		page.Close()
		browser.Close()
		pw.Stop()
	})

	if _, err := page.Goto(srv.URL + "/"); err != nil {
		t.Fatalf("failed to open page: %v", err)
	}
	return page, srv.URL
}

var (
	afterActionURL = regexp.MustCompile(`/ui/\?done=1$`)
	confirmURL     = regexp.MustCompile(`/ui/unregister$`)
)

func waitForURL(t *testing.T, page playwright.Page, url *regexp.Regexp) {
	t.Helper()
	if err := page.WaitForURL(url, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("page did not reach %s: %v", url, err)
	}
}

func TestBrowser_SignupAndRemove(t *testing.T) {
	page, _ := newBrowserPage(t)

	if err := page.Locator("#email").Fill("newstudent@mergington.edu"); err != nil {
		t.Fatalf("fill email: %v", err)
	}
	if _, err := page.Locator("#activity").SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice("Programming Class"),
	}); err != nil {
		t.Fatalf("select activity: %v", err)
	}
	if err := page.Locator("#signup-form button[type=submit]").Click(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitForURL(t, page, afterActionURL)

	msg := page.Locator("#message")
	text, err := msg.TextContent()
	if err != nil {
		t.Fatalf("message text: %v", err)
	}
	if !strings.Contains(text, "Signed up newstudent@mergington.edu for Programming Class") {
		t.Errorf("message = %q", text)
	}
	if class, _ := msg.GetAttribute("class"); class != "success" {
		t.Errorf("message class = %q, want success", class)
	}
	if v, _ := page.Locator("#email").InputValue(); v != "" {
		t.Errorf("email field not cleared: %q", v)
	}

	// The inline script hides the message once its delay elapses.
	if err := page.Locator("#message.hidden").WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Errorf("message never hid: %v", err)
	}

	card := page.Locator(".activity-card", playwright.PageLocatorOptions{HasText: "Programming Class"})
	remove := card.Locator(`.delete-btn[aria-label="Remove newstudent@mergington.edu"]`)
	if err := remove.Click(); err != nil {
		t.Fatalf("click remove: %v", err)
	}
	waitForURL(t, page, confirmURL)
	prompt, err := page.Locator("#confirm-prompt").TextContent()
	if err != nil {
		t.Fatalf("confirm prompt: %v", err)
	}
	if prompt != "Unregister newstudent@mergington.edu from Programming Class?" {
		t.Errorf("prompt = %q", prompt)
	}
	if err := page.Locator("#confirm-yes").Click(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	waitForURL(t, page, afterActionURL)

	text, _ = page.Locator("#message").TextContent()
	if !strings.Contains(text, "Unregistered newstudent@mergington.edu from Programming Class") {
		t.Errorf("message = %q", text)
	}
	n, err := card.Locator(".participant-email", playwright.LocatorLocatorOptions{HasText: "newstudent@mergington.edu"}).Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("removed participant still listed")
	}
}

func TestBrowser_DuplicateSignupKeepsForm(t *testing.T) {
	page, _ := newBrowserPage(t)

	page.Locator("#email").Fill("michael@mergington.edu")
	page.Locator("#activity").SelectOption(playwright.SelectOptionValues{Values: playwright.StringSlice("Chess Club")})
	if err := page.Locator("#signup-form button[type=submit]").Click(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitForURL(t, page, afterActionURL)

	if class, _ := page.Locator("#message").GetAttribute("class"); class != "error" {
		t.Errorf("message class = %q, want error", class)
	}
	if v, _ := page.Locator("#email").InputValue(); v != "michael@mergington.edu" {
		t.Errorf("email field = %q, want it kept", v)
	}
	if v, _ := page.Locator("#activity").InputValue(); v != "Chess Club" {
		t.Errorf("activity field = %q, want it kept", v)
	}
}
