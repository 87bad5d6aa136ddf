// Package flashmessages keeps one-shot messages and form input in the session
// across a redirect.
package flashmessages

import (
	"encoding/json"

	"ktuligonine.lt/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	FlashSuccessKey  = "flash_success"
	FlashErrorKey    = "flash_error"
	flashFormDataKey = "flash_form_data"
)

// FlashMessages is what one request consumed from the session.
type FlashMessages struct {
	Success string
	Error   string
}

// Put stores a message in an already loaded session without saving it.
func Put(sess *session.Session, key, message string) {
	sess.Set(key, message)
}

// SetFlashMessage stores a message for the next request.
func SetFlashMessage(c *fiber.Ctx, key, message string) error {
	sess, err := utils.SessionStart(c)
	if err != nil {
		return err
	}
	Put(sess, key, message)
	return sess.Save()
}

// SetFlashFormData keeps submitted values so the form can be refilled. Values
// are stored as JSON to keep the session encoding to plain strings.
func SetFlashFormData(c *fiber.Ctx, data map[string]string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	sess, err := utils.SessionStart(c)
	if err != nil {
		return err
	}
	sess.Set(flashFormDataKey, string(raw))
	return sess.Save()
}

// GetFlashMessages reads and clears the pending messages.
func GetFlashMessages(c *fiber.Ctx) (FlashMessages, error) {
	var out FlashMessages
	sess, err := utils.SessionStart(c)
	if err != nil {
		return out, err
	}
	success, okS := sess.Get(FlashSuccessKey).(string)
	failure, okE := sess.Get(FlashErrorKey).(string)
	if !okS && !okE {
		return out, nil
	}
	out.Success, out.Error = success, failure
	sess.Delete(FlashSuccessKey)
	sess.Delete(FlashErrorKey)
	return out, sess.Save()
}

// GetFlashFormData reads and clears the saved form input. It never returns nil.
func GetFlashFormData(c *fiber.Ctx) map[string]string {
	out := map[string]string{}
	sess, err := utils.SessionStart(c)
	if err != nil {
		return out
	}
	raw, ok := sess.Get(flashFormDataKey).(string)
	if !ok {
		return out
	}
	sess.Delete(flashFormDataKey)
	_ = json.Unmarshal([]byte(raw), &out)
	_ = sess.Save()
	return out
}
