package configs

import (
	"time"

	"ktuligonine.lt/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Cookie names of the session id and the CSRF token.
const (
	SessionCookieName = "ktu_session"
	CSRFCookieName    = "ktu_csrf"
)

// SetupSession builds the session store. A nil storage keeps sessions in
// fiber's in-process memory storage.
func SetupSession(cfg *AppConfig, storage fiber.Storage) *session.Store {
	return session.New(session.Config{
		Storage:        storage,
		Expiration:     cfg.SessionExpiration,
		KeyLookup:      "cookie:" + SessionCookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: "Lax",
	})
}

// SetupCSRF protects every unsafe method with a token kept in the session.
// Templates read the token from the "csrf" local.
func SetupCSRF(cfg *AppConfig, store *session.Store) fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:_csrf",
		CookieName:     CSRFCookieName,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		CookieHTTPOnly: true,
		Expiration:     time.Hour,
		Session:        store,
		SessionKey:     utils.CSRFSessionKey,
		ContextKey:     "csrf",
	})
}
