package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"ktuligonine.lt/configs"
	"ktuligonine.lt/models"
	"ktuligonine.lt/services"

	"github.com/gofiber/template/html/v2"
)

var csrfField = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

// browser keeps the cookies a real client would send back.
type browser struct {
	t       *testing.T
	s       *testServer
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, s *testServer) *browser {
	return &browser{t: t, s: s, cookies: make(map[string]*http.Cookie)}
}

// send performs req with the stored cookies and returns the status, Location
// and body.
func (b *browser) send(req *http.Request) (int, string, string) {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	resp := b.s.do(b.t, req, nil)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		b.t.Fatal(err)
	}
	for _, c := range resp.Cookies() {
		if c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func (b *browser) get(path string) (int, string, string) {
	return b.send(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) (int, string, string) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.send(req)
}

func formToken(t *testing.T, body string) string {
	t.Helper()
	m := csrfField.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("page has no _csrf field:\n%s", body)
	}
	return m[1]
}

func TestCSRFWithRenderedTemplates(t *testing.T) {
	s := buildTestServer(t, html.New("../views", ".html"), true)
	s.addUser(t, "p1", "p@x.lt", models.RolePatient)
	b := newBrowser(t, s)

	status, _, body := b.get("/prisijungimas")
	if status != http.StatusOK {
		t.Fatalf("login page status = %d", status)
	}
	loginToken := formToken(t, body)

	creds := url.Values{"email": {"p@x.lt"}, "password": {"secret123"}}
	if status, _, _ := b.post("/prisijungimas", creds); status != http.StatusForbidden {
		t.Fatalf("login without token status = %d, want 403", status)
	}

	creds.Set("_csrf", loginToken)
	status, location, _ := b.post("/prisijungimas", creds)
	if status != http.StatusFound || location != "/paskyra" {
		t.Fatalf("login with token = %d %q", status, location)
	}

	status, _, body = b.get("/paskyra")
	if status != http.StatusOK {
		t.Fatalf("account page status = %d", status)
	}
	if !strings.Contains(body, `value="p@x.lt"`) || !strings.Contains(body, `name="old_password"`) {
		t.Fatalf("account page misses the contact or password form:\n%s", body)
	}
	accountToken := formToken(t, body)
	if accountToken == loginToken {
		t.Error("CSRF token was not rotated at login")
	}

	stale := url.Values{"_csrf": {loginToken}, "form": {"contact"}, "email": {"x@x.lt"}, "phone": {"+37069999999"}}
	req := httptest.NewRequest(http.MethodPost, "/paskyra", strings.NewReader(stale.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: configs.CSRFCookieName, Value: loginToken})
	if resp := s.do(t, req, b.cookies[configs.SessionCookieName]); resp.StatusCode != http.StatusForbidden {
		t.Errorf("pre-login token accepted after login, status = %d", resp.StatusCode)
	}

	status, _, body = b.post("/paskyra", url.Values{
		"_csrf": {accountToken}, "form": {"contact"}, "email": {"jonas@x.lt"}, "phone": {"+37061234567"},
	})
	if status != http.StatusOK || !strings.Contains(body, services.MsgContactUpdated) || !strings.Contains(body, `value="jonas@x.lt"`) {
		t.Fatalf("contact update = %d:\n%s", status, body)
	}

	status, location, _ = b.get("/atsijungti")
	if status != http.StatusFound || location != "/prisijungimas" {
		t.Fatalf("logout = %d %q", status, location)
	}
	status, _, body = b.get("/prisijungimas")
	if status != http.StatusOK || !strings.Contains(body, "Sėkmingai atsijungta.") {
		t.Errorf("login page after logout = %d:\n%s", status, body)
	}
	formToken(t, body)
}
