package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"testing"
	"time"

	"clubsignup/internal/adapters/apiclient"
	"clubsignup/internal/adapters/http/perf"
	"clubsignup/internal/adapters/i18n"
	"clubsignup/internal/application/viewcontroller"
	"clubsignup/internal/domain/status"
	"clubsignup/internal/platform/uricomponent"
)

// uiServer runs the whole surface on a real listener so the page controller
// reaches the activities API over HTTP, as in production.
type uiServer struct {
	srv    *httptest.Server
	client *http.Client
}

func newUIServer(t *testing.T, csrfKey []byte) *uiServer {
	t.Helper()
	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	handler = newUIHandler(t, srv.URL, csrfKey, 0)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &uiServer{srv: srv, client: &http.Client{Jar: jar}}
}

// newUIHandler wires the full surface with page controllers calling back into baseURL.
// hideAfter <= 0 keeps the default message delays.
func newUIHandler(t *testing.T, baseURL string, csrfKey []byte, hideAfter time.Duration) http.Handler {
	t.Helper()
	tr := i18n.NewTranslator("en")
	col := perf.NewCollector(64)
	api := apiclient.New(baseURL, apiclient.WithCollector(col))
	sessions := viewcontroller.NewRegistry(func(locale string) *viewcontroller.Controller {
		return viewcontroller.New(viewcontroller.Deps{
			API:             api,
			Translator:      tr,
			SignupHideAfter: hideAfter,
			RemoveHideAfter: hideAfter,
		}, locale)
	}, 0)

	return NewMux(Deps{
		Activities: newSeededStore(t),
		Sessions:   sessions,
		Translator: tr,
		Collector:  col,
		CSRFKey:    csrfKey,
	})
}

func (u *uiServer) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := u.client.Get(u.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func (u *uiServer) post(t *testing.T, path string, form url.Values) (int, string, *url.URL) {
	t.Helper()
	resp, err := u.client.PostForm(u.srv.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body), resp.Request.URL
}

func (u *uiServer) view(t *testing.T) viewcontroller.View {
	t.Helper()
	code, body := u.get(t, "/ui/view")
	if code != http.StatusOK {
		t.Fatalf("GET /ui/view status = %d", code)
	}
	var v viewcontroller.View
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func participantsOf(v viewcontroller.View, name string) []string {
	for _, c := range v.List.Cards {
		if c.Name == name {
			out := make([]string, 0, len(c.Participants))
			for _, p := range c.Participants {
				out = append(out, p.Email)
			}
			return out
		}
	}
	return nil
}

func removeForm(activityName, addr, answer string) url.Values {
	form := url.Values{
		"activity": {uricomponent.Encode(activityName)},
		"email":    {uricomponent.Encode(addr)},
	}
	if answer != "" {
		form.Set("confirmed", answer)
	}
	return form
}

func TestPage_InitialRender(t *testing.T) {
	u := newUIServer(t, nil)
	code, body := u.get(t, "/ui/")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	for _, want := range []string{
		`id="activities-list"`,
		`<h4>Chess Club</h4>`,
		`10 spots left`,
		`michael@mergington.edu`,
		`<option value="Gym Class">Gym Class</option>`,
		`-- Select an activity --`,
		`id="message" class="hidden"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Count(body, `class="activity-card"`) != 9 {
		t.Errorf("cards = %d, want 9", strings.Count(body, `class="activity-card"`))
	}
}

func TestPage_SignupSuccess(t *testing.T) {
	u := newUIServer(t, nil)
	u.get(t, "/ui/")

	addr := "newstudent@mergington.edu"
	code, body, final := u.post(t, "/ui/signup", url.Values{"email": {addr}, "activity": {"Chess Club"}})
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if final.Path != "/ui/" || final.Query().Get(afterActionQuery) == "" {
		t.Errorf("landed on %s, want /ui/?%s=1", final, afterActionQuery)
	}
	if !strings.Contains(body, `class="success"`) || !strings.Contains(body, "Signed up "+addr+" for Chess Club") {
		t.Errorf("success message not rendered")
	}

	v := u.view(t)
	if v.Message.State() != status.StateVisibleSuccess || v.HideIn <= 0 {
		t.Errorf("message = %+v hideIn = %v", v.Message, v.HideIn)
	}
	if v.Form != (viewcontroller.FormState{}) {
		t.Errorf("form not cleared: %+v", v.Form)
	}
	got := participantsOf(v, "Chess Club")
	if len(got) != 3 || got[2] != addr {
		t.Errorf("Chess Club participants = %v", got)
	}
}

func TestPage_SignupRejectedKeepsForm(t *testing.T) {
	u := newUIServer(t, nil)
	u.get(t, "/ui/")

	code, body, _ := u.post(t, "/ui/signup", url.Values{"email": {"michael@mergington.edu"}, "activity": {"Chess Club"}})
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !strings.Contains(body, `class="error"`) || !strings.Contains(body, "Student is already signed up") {
		t.Errorf("error message not rendered")
	}

	v := u.view(t)
	if v.Message.State() != status.StateVisibleError {
		t.Errorf("state = %s", v.Message.State())
	}
	want := viewcontroller.FormState{Email: "michael@mergington.edu", Activity: "Chess Club"}
	if v.Form != want {
		t.Errorf("form = %+v, want %+v", v.Form, want)
	}
	if n := len(participantsOf(v, "Chess Club")); n != 2 {
		t.Errorf("participants = %d, want 2", n)
	}
}

func TestPage_RemoveAsksFirst(t *testing.T) {
	u := newUIServer(t, nil)
	u.get(t, "/ui/")

	code, body, final := u.post(t, "/ui/unregister", removeForm("Chess Club", "michael@mergington.edu", ""))
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if final.Path != "/ui/unregister" {
		t.Errorf("confirmation should not redirect, landed on %s", final)
	}
	if !strings.Contains(body, "Unregister michael@mergington.edu from Chess Club?") {
		t.Errorf("confirm prompt missing:\n%s", body)
	}
	if !strings.Contains(body, `name="confirmed" value="yes"`) {
		t.Errorf("confirm button missing")
	}
	if n := len(participantsOf(u.view(t), "Chess Club")); n != 2 {
		t.Errorf("participants = %d before confirming, want 2", n)
	}
}

func TestPage_RemoveDeclined(t *testing.T) {
	u := newUIServer(t, nil)
	u.get(t, "/ui/")
	u.post(t, "/ui/signup", url.Values{"email": {"newstudent@mergington.edu"}, "activity": {"Chess Club"}})
	before := u.view(t).Message
	if before.State() != status.StateVisibleSuccess {
		t.Fatalf("sign-up message = %+v", before)
	}

	code, _, _ := u.post(t, "/ui/unregister", removeForm("Chess Club", "michael@mergington.edu", "no"))
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	v := u.view(t)
	after := v.Message
	if after.Text != before.Text || after.Severity != before.Severity || after.Seq != before.Seq || after.Visible != before.Visible {
		t.Errorf("message changed on decline: before %+v, after %+v", before, after)
	}
	got := participantsOf(v, "Chess Club")
	if len(got) != 3 || !slices.Contains(got, "michael@mergington.edu") {
		t.Errorf("participants = %v", got)
	}
}

func TestPage_RemoveConfirmed(t *testing.T) {
	u := newUIServer(t, nil)
	u.get(t, "/ui/")

	code, _, _ := u.post(t, "/ui/unregister", removeForm("Chess Club", "michael@mergington.edu", "yes"))
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	v := u.view(t)
	if v.Message.State() != status.StateVisibleSuccess || v.Message.Text != "Unregistered michael@mergington.edu from Chess Club" {
		t.Errorf("message = %+v", v.Message)
	}
	got := participantsOf(v, "Chess Club")
	if len(got) != 1 || got[0] != "daniel@mergington.edu" {
		t.Errorf("participants = %v", got)
	}
}

func TestPage_RemoveUnknownParticipant(t *testing.T) {
	u := newUIServer(t, nil)
	u.get(t, "/ui/")

	u.post(t, "/ui/unregister", removeForm("Chess Club", "nobody@mergington.edu", "yes"))
	v := u.view(t)
	if v.Message.State() != status.StateVisibleError || v.Message.Text != "Student is not signed up for this activity" {
		t.Errorf("message = %+v", v.Message)
	}
}

func TestPage_ReloadRefreshes(t *testing.T) {
	u := newUIServer(t, nil)
	u.get(t, "/ui/")

	// Another client changes the catalogue behind the page's back.
	req, _ := http.NewRequest(http.MethodPost, u.srv.URL+signupPath("Math Club", "outsider@mergington.edu"), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	resp.Body.Close()

	if got := participantsOf(u.view(t), "Math Club"); len(got) != 2 {
		t.Fatalf("view refreshed without reload: %v", got)
	}
	_, body := u.get(t, "/ui/")
	if !strings.Contains(body, "outsider@mergington.edu") {
		t.Errorf("reload did not pick up the new participant")
	}
}

func TestView_DoesNotOpenSessions(t *testing.T) {
	u := newUIServer(t, nil)

	for range 3 {
		code, body := u.get(t, "/ui/view")
		if code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404 (body %s)", code, body)
		}
	}

	u.get(t, "/ui/")
	if v := u.view(t); len(v.List.Cards) != 9 {
		t.Errorf("cards = %d after loading the page, want 9", len(v.List.Cards))
	}
}

var csrfTokenRE = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

func TestPage_CSRFProtectsForms(t *testing.T) {
	u := newUIServer(t, []byte("0123456789abcdef0123456789abcdef"))

	_, body := u.get(t, "/ui/")
	m := csrfTokenRE.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("page carries no CSRF field")
	}

	form := url.Values{"email": {"newstudent@mergington.edu"}, "activity": {"Chess Club"}}
	if code, _, _ := u.post(t, "/ui/signup", form); code != http.StatusForbidden {
		t.Errorf("post without token status = %d, want 403", code)
	}

	form.Set("gorilla.csrf.Token", m[1])
	code, body, _ := u.post(t, "/ui/signup", form)
	if code != http.StatusOK {
		t.Fatalf("post with token status = %d", code)
	}
	if !strings.Contains(body, "Signed up newstudent@mergington.edu for Chess Club") {
		t.Errorf("signup did not go through")
	}

	// The JSON API stays open to non-browser clients.
	req, _ := http.NewRequest(http.MethodPost, u.srv.URL+signupPath("Math Club", "api@mergington.edu"), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("api signup: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("api signup status = %d", resp.StatusCode)
	}
}
