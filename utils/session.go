package utils

import (
	"errors"

	"ktuligonine.lt/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Locals and session keys shared by middlewares and handlers.
const (
	SessionStoreLocal = "session_store"
	UserIDLocal       = "userID"
	UserNameLocal     = "userName"

	// CSRFSessionKey is where the CSRF middleware keeps its token.
	CSRFSessionKey = "csrf_token"

	sessionUserIDKey   = "user_id"
	sessionUserNameKey = "user_name"
)

var (
	ErrNoSessionStore = errors.New("session store is not configured")
	ErrNoUserID       = errors.New("session carries no user id")
)

// SessionStart loads the request's session from the store placed in locals
// by the router.
func SessionStart(c *fiber.Ctx) (*session.Session, error) {
	store, ok := c.Locals(SessionStoreLocal).(*session.Store)
	if !ok || store == nil {
		return nil, ErrNoSessionStore
	}
	return store.Get(c)
}

// GetUserIDFromSession returns the logged in principal id.
func GetUserIDFromSession(sess *session.Session) (string, error) {
	id, ok := sess.Get(sessionUserIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoUserID
	}
	return id, nil
}

// GetUserNameFromSession returns the display name stored at login.
func GetUserNameFromSession(sess *session.Session) string {
	name, _ := sess.Get(sessionUserNameKey).(string)
	return name
}

// SetUserSession logs the user in under a fresh session id. The anonymous
// CSRF token is dropped so the next page issues a new one.
func SetUserSession(c *fiber.Ctx, user *models.User) error {
	sess, err := SessionStart(c)
	if err != nil {
		return err
	}
	sess.Delete(CSRFSessionKey)
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(sessionUserIDKey, user.UniqueID)
	sess.Set(sessionUserNameKey, user.FullName())
	return sess.Save()
}

// ResetSession drops all session data, the CSRF token included, and issues
// a new id. The returned session is not saved yet so callers can put a
// message in it first.
func ResetSession(c *fiber.Ctx) (*session.Session, error) {
	sess, err := SessionStart(c)
	if err != nil {
		return nil, err
	}
	if err := sess.Reset(); err != nil {
		return nil, err
	}
	return sess, nil
}

// CurrentUserID is the principal id set by the router, or "".
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocal).(string)
	return id
}
