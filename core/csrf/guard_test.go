package csrf_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/palmistry/core/cookie"
	"github.com/dmitrymomot/palmistry/core/csrf"
	"github.com/dmitrymomot/palmistry/core/session"
)

const (
	testSecret    = "test-secret-key-32-characters!!!"
	allowedOrigin = "https://app.example.com"
	callerID      = "user-caller"
	otherID       = "user-other"
)

type fixture struct {
	guard   *csrf.Guard
	cookies *cookie.SessionCookie
	caller  session.Session
	other   session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mgr := session.NewManager(session.NewStore(session.NewMemoryCache()))
	caller, err := mgr.Create(context.Background(), session.CreateParams{UserID: callerID, Email: "caller@example.com"})
	require.NoError(t, err)
	other, err := mgr.Create(context.Background(), session.CreateParams{UserID: otherID, Email: "other@example.com"})
	require.NoError(t, err)

	cm, err := cookie.New([]string{testSecret})
	require.NoError(t, err)
	sc := cookie.NewSessionCookie(cm, "__session")

	return &fixture{
		guard:   csrf.New(mgr, sc, csrf.WithAllowedOrigins(allowedOrigin)),
		cookies: sc,
		caller:  caller,
		other:   other,
	}
}

// attachSession signs the session id into the request cookie.
func (f *fixture) attachSession(t *testing.T, r *http.Request, id string) {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, f.cookies.Set(w, id, 0))
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
}

func TestGuard_SafeMethodsPass(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
		r := httptest.NewRequest(method, "/followups/1/messages", nil)
		assert.NoError(t, f.guard.Verify(r, ""), method)
	}
}

func TestGuard_RejectionMatrix(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	origins := map[string]string{
		"missing origin":    "",
		"disallowed origin": "https://evil.example.com",
		"allowed origin":    allowedOrigin,
	}
	tokens := []string{"missing token", "wrong token", "correct token"}
	sessions := map[string]*session.Session{
		"no session":         nil,
		"other user session": &f.other,
		"caller session":     &f.caller,
	}

	for originName, origin := range origins {
		for _, tokenName := range tokens {
			for sessName, sess := range sessions {
				name := fmt.Sprintf("%s/%s/%s", originName, tokenName, sessName)
				t.Run(name, func(t *testing.T) {
					t.Parallel()

					r := httptest.NewRequest(http.MethodPost, "/followups/1/questions", nil)
					if origin != "" {
						r.Header.Set("Origin", origin)
					}

					correct := f.caller.CSRFToken
					if sess != nil {
						correct = sess.CSRFToken
						f.attachSession(t, r, sess.ID)
					}
					switch tokenName {
					case "wrong token":
						r.Header.Set("X-CSRF-Token", "not-the-token")
					case "correct token":
						r.Header.Set("X-CSRF-Token", correct)
					}

					err := f.guard.Verify(r, callerID)

					var want error
					switch {
					case origin == "":
						want = csrf.ErrMissingOrigin
					case origin != allowedOrigin:
						want = csrf.ErrOriginNotAllowed
					case tokenName == "missing token":
						want = csrf.ErrMissingToken
					case sess == nil:
						want = csrf.ErrNoSession
					case tokenName == "wrong token":
						want = csrf.ErrTokenMismatch
					case sess.UserID != callerID:
						want = csrf.ErrUserMismatch
					}

					if want == nil {
						assert.NoError(t, err)
						return
					}

					require.ErrorIs(t, err, want)
					var rej *csrf.Rejection
					require.ErrorAs(t, err, &rej)
					if errors.Is(want, csrf.ErrNoSession) {
						assert.Equal(t, http.StatusUnauthorized, rej.Status)
					} else {
						assert.Equal(t, http.StatusForbidden, rej.Status)
					}
				})
			}
		}
	}
}

func TestGuard_OriginSources(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	newRequest := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/auth/sessions/rotate", nil)
		r.Header.Set("X-CSRF-Token", f.caller.CSRFToken)
		f.attachSession(t, r, f.caller.ID)
		return r
	}

	t.Run("referer fallback", func(t *testing.T) {
		t.Parallel()
		r := newRequest()
		r.Header.Set("Referer", "https://app.example.com/readings/42?tab=palm")
		assert.NoError(t, f.guard.Verify(r, callerID))
	})

	t.Run("origin wins over referer", func(t *testing.T) {
		t.Parallel()
		r := newRequest()
		r.Header.Set("Origin", "https://evil.example.com")
		r.Header.Set("Referer", "https://app.example.com/")
		assert.ErrorIs(t, f.guard.Verify(r, callerID), csrf.ErrOriginNotAllowed)
	})

	t.Run("default port and case are normalized", func(t *testing.T) {
		t.Parallel()
		r := newRequest()
		r.Header.Set("Origin", "HTTPS://App.Example.com:443")
		assert.NoError(t, f.guard.Verify(r, callerID))
	})

	t.Run("null origin rejected", func(t *testing.T) {
		t.Parallel()
		r := newRequest()
		r.Header.Set("Origin", "null")
		assert.ErrorIs(t, f.guard.Verify(r, callerID), csrf.ErrOriginNotAllowed)
	})

	t.Run("different port rejected", func(t *testing.T) {
		t.Parallel()
		r := newRequest()
		r.Header.Set("Origin", "https://app.example.com:8443")
		assert.ErrorIs(t, f.guard.Verify(r, callerID), csrf.ErrOriginNotAllowed)
	})
}

func TestGuard_FormFieldFallback(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	form := url.Values{"csrf_token": {f.caller.CSRFToken}}
	r := httptest.NewRequest(http.MethodPost, "/auth/sessions/rotate", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Origin", allowedOrigin)
	f.attachSession(t, r, f.caller.ID)

	assert.NoError(t, f.guard.Verify(r, callerID))
}

func TestGuard_EmptyHeaderFallsBackToEmptyForm(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	form := url.Values{"csrf_token": {""}}
	r := httptest.NewRequest(http.MethodDelete, "/auth/sessions", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Origin", allowedOrigin)
	r.Header.Set("X-CSRF-Token", "")
	f.attachSession(t, r, f.caller.ID)

	assert.ErrorIs(t, f.guard.Verify(r, callerID), csrf.ErrMissingToken)
}

func TestGuard_Middleware(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	resolve := func(*http.Request) (string, bool) { return callerID, true }
	h := f.guard.Middleware(resolve)(next)

	t.Run("passes", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/x", nil)
		r.Header.Set("Origin", allowedOrigin)
		r.Header.Set("X-CSRF-Token", f.caller.CSRFToken)
		f.attachSession(t, r, f.caller.ID)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("forbidden body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/x", nil)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		require.Equal(t, http.StatusForbidden, w.Code)

		var body struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "forbidden", body.Code)
		assert.Equal(t, "missing_origin", body.Details["reason"])
	})

	t.Run("unauthorized without session", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/x", nil)
		r.Header.Set("Origin", allowedOrigin)
		r.Header.Set("X-CSRF-Token", f.caller.CSRFToken)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotContains(t, w.Body.String(), f.caller.CSRFToken)
	})
}

func TestNormalizeOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://app.example.com", "https://app.example.com"},
		{"https://app.example.com/", "https://app.example.com"},
		{"http://localhost:3000/path?q=1", "http://localhost:3000"},
		{"http://Example.COM:80", "http://example.com"},
		{"https://example.com:443/a", "https://example.com"},
		{"https://[::1]:8443", "https://[::1]:8443"},
		{"null", ""},
		{"ftp://example.com", ""},
		{"", ""},
		{"not a url", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, csrf.NormalizeOrigin(tt.in))
		})
	}
}

func TestConfig(t *testing.T) {
	t.Parallel()

	g := csrf.New(nil, nil, csrf.WithConfig(csrf.Config{
		AllowedOrigins: []string{"https://A.example.com/", " ", "https://b.example.com:443"},
		HeaderName:     "X-XSRF",
	}))
	assert.ElementsMatch(t, []string{"https://a.example.com", "https://b.example.com"}, g.AllowedOrigins())

	r := httptest.NewRequest(http.MethodPost, "/x", nil)
	r.Header.Set("Origin", "https://a.example.com")
	r.Header.Set("X-CSRF-Token", "ignored because the header name changed")
	assert.ErrorIs(t, g.Verify(r, callerID), csrf.ErrMissingToken)
}
