package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/palmistry/core/cookie"
)

const testSecret = "test-secret-key-32-characters!!!"
const testSecret2 = "another-secret-key-32-chars!!!!!"

// roundTrip copies Set-Cookie headers from a response into a new request.
func roundTrip(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("no secrets", func(t *testing.T) {
		t.Parallel()
		_, err := cookie.New(nil)
		assert.ErrorIs(t, err, cookie.ErrNoSecret)

		_, err = cookie.New([]string{"", ""})
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})

	t.Run("short secret", func(t *testing.T) {
		t.Parallel()
		_, err := cookie.New([]string{"short"})
		assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
	})

	t.Run("secure defaults", func(t *testing.T) {
		t.Parallel()
		m, err := cookie.New([]string{testSecret})
		require.NoError(t, err)

		d := m.Defaults()
		assert.Equal(t, "/", d.Path)
		assert.True(t, d.HttpOnly)
		assert.True(t, d.Secure)
		assert.Equal(t, http.SameSiteLaxMode, d.SameSite)
	})
}

func TestManager_BasicOperations(t *testing.T) {
	t.Parallel()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()
		m, err := cookie.New([]string{testSecret})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		require.NoError(t, m.Set(w, "theme", "dark"))

		value, err := m.Get(roundTrip(w), "theme")
		require.NoError(t, err)
		assert.Equal(t, "dark", value)
	})

	t.Run("cookie not found", func(t *testing.T) {
		t.Parallel()
		m, err := cookie.New([]string{testSecret})
		require.NoError(t, err)

		_, err = m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "missing")
		assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
	})

	t.Run("delete expires cookie", func(t *testing.T) {
		t.Parallel()
		m, err := cookie.New([]string{testSecret})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		m.Delete(w, "theme")

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "theme", cookies[0].Name)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		m, err := cookie.New([]string{testSecret})
		require.NoError(t, err)

		err = m.Set(httptest.NewRecorder(), "big", strings.Repeat("x", cookie.MaxCookieSize))
		var tooLarge cookie.ErrCookieTooLarge
		require.ErrorAs(t, err, &tooLarge)
		assert.Equal(t, "big", tooLarge.Name)
	})

	t.Run("options override defaults", func(t *testing.T) {
		t.Parallel()
		m, err := cookie.New([]string{testSecret})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		require.NoError(t, m.Set(w, "c", "v",
			cookie.WithSameSite(http.SameSiteStrictMode),
			cookie.WithPath("/api"),
			cookie.WithMaxAge(60),
		))

		header := w.Header().Get("Set-Cookie")
		assert.Contains(t, header, "SameSite=Strict")
		assert.Contains(t, header, "Path=/api")
		assert.Contains(t, header, "Max-Age=60")
		assert.Contains(t, header, "HttpOnly")
		assert.Contains(t, header, "Secure")
	})
}

func TestManager_Signed(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		m, err := cookie.New([]string{testSecret})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "sid", "value|with.separators"))

		value, err := m.GetSigned(roundTrip(w), "sid")
		require.NoError(t, err)
		assert.Equal(t, "value|with.separators", value)
	})

	t.Run("tampered value", func(t *testing.T) {
		t.Parallel()
		m, err := cookie.New([]string{testSecret})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "sid", "alice"))

		orig := w.Result().Cookies()[0]
		_, sig, _ := strings.Cut(orig.Value, ".")
		forged := "bWFsbG9yeQ." + sig // "mallory"

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "sid", Value: forged})

		_, err = m.GetSigned(r, "sid")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()
		m, err := cookie.New([]string{testSecret})
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "sid", Value: "no-separator"})

		_, err = m.GetSigned(r, "sid")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
	})

	t.Run("secret rotation", func(t *testing.T) {
		t.Parallel()
		old, err := cookie.New([]string{testSecret2})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		require.NoError(t, old.SetSigned(w, "sid", "abc"))

		rotated, err := cookie.New([]string{testSecret, testSecret2})
		require.NoError(t, err)

		value, err := rotated.GetSigned(roundTrip(w), "sid")
		require.NoError(t, err)
		assert.Equal(t, "abc", value)

		fresh, err := cookie.New([]string{testSecret})
		require.NoError(t, err)
		_, err = fresh.GetSigned(roundTrip(w), "sid")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})
}

func TestSessionCookie(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{testSecret}, cookie.WithSameSite(http.SameSiteStrictMode))
	require.NoError(t, err)

	t.Run("default name", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "__session", cookie.NewSessionCookie(m, "").Name())
	})

	t.Run("set and read", func(t *testing.T) {
		t.Parallel()
		sc := cookie.NewSessionCookie(m, "__sid")

		w := httptest.NewRecorder()
		require.NoError(t, sc.Set(w, "session-id-value", 2*time.Hour))

		c := w.Result().Cookies()[0]
		assert.Equal(t, "__sid", c.Name)
		assert.Equal(t, 7200, c.MaxAge)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

		id, err := sc.Read(roundTrip(w))
		require.NoError(t, err)
		assert.Equal(t, "session-id-value", id)
	})

	t.Run("unsigned value rejected", func(t *testing.T) {
		t.Parallel()
		sc := cookie.NewSessionCookie(m, "__sid")

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "__sid", Value: "raw-session-id"})

		_, err := sc.Read(r)
		assert.Error(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		sc := cookie.NewSessionCookie(m, "__sid")
		_, err := sc.Read(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()
		sc := cookie.NewSessionCookie(m, "__sid")
		w := httptest.NewRecorder()
		sc.Clear(w)

		c := w.Result().Cookies()[0]
		assert.Equal(t, "__sid", c.Name)
		assert.Equal(t, -1, c.MaxAge)
	})
}

func TestConfig(t *testing.T) {
	t.Parallel()

	t.Run("parse same site", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, http.SameSiteStrictMode, cookie.ParseSameSite("Strict"))
		assert.Equal(t, http.SameSiteLaxMode, cookie.ParseSameSite("lax"))
		assert.Equal(t, http.SameSiteNoneMode, cookie.ParseSameSite("none"))
		assert.Equal(t, http.SameSiteLaxMode, cookie.ParseSameSite("bogus"))
	})

	t.Run("new from config", func(t *testing.T) {
		t.Parallel()
		cfg := cookie.DefaultConfig()
		cfg.Secrets = testSecret + ", " + testSecret2 + ","
		cfg.SameSite = "strict"
		cfg.Secure = false

		m, err := cookie.NewFromConfig(cfg)
		require.NoError(t, err)
		assert.Equal(t, http.SameSiteStrictMode, m.Defaults().SameSite)
		assert.False(t, m.Defaults().Secure)
	})

	t.Run("session from config", func(t *testing.T) {
		t.Parallel()
		cfg := cookie.DefaultConfig()
		cfg.Secrets = testSecret
		cfg.SessionKey = "sid"

		sc, err := cookie.NewSessionFromConfig(cfg)
		require.NoError(t, err)
		assert.Equal(t, "sid", sc.Name())
	})

	t.Run("missing secrets", func(t *testing.T) {
		t.Parallel()
		_, err := cookie.NewFromConfig(cookie.DefaultConfig())
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})
}
