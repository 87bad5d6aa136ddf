package middlewares

import (
	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/pkg/flashmessages"
	"ktuligonine.lt/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	LoginPath   = "/prisijungimas"
	AccountPath = "/paskyra"
)

// AuthMiddleware lets only logged in requests through.
func AuthMiddleware(c *fiber.Ctx) error {
	if utils.CurrentUserID(c) != "" {
		return c.Next()
	}
	if err := flashmessages.SetFlashMessage(c, flashmessages.FlashErrorKey, "Prisijunkite, kad galėtumėte tęsti."); err != nil {
		configslog.Log.Warn("AuthMiddleware: flash failed", zap.Error(err))
	}
	return c.Redirect(LoginPath, fiber.StatusFound)
}

// GuestMiddleware sends logged in users to their account page.
func GuestMiddleware(c *fiber.Ctx) error {
	if utils.CurrentUserID(c) != "" {
		return c.Redirect(AccountPath, fiber.StatusFound)
	}
	return c.Next()
}
