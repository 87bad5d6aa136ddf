// Package renderer fills the data every page template expects and renders it
// inside a layout.
package renderer

import (
	"net/http"

	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/pkg/flashmessages"
	"ktuligonine.lt/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Keys templates read the flash messages from.
const (
	FlashSuccessKeyView = "Success"
	FlashErrorKeyView   = "Error"
)

// MainLayout wraps every page of the portal.
const MainLayout = "layouts/main"

// SetFlashMessages copies consumed flash messages into data unless the
// handler already set a message of the same kind.
func SetFlashMessages(data fiber.Map, flash flashmessages.FlashMessages) {
	if _, set := data[FlashSuccessKeyView]; !set && flash.Success != "" {
		data[FlashSuccessKeyView] = flash.Success
	}
	if _, set := data[FlashErrorKeyView]; !set && flash.Error != "" {
		data[FlashErrorKeyView] = flash.Error
	}
}

// Render renders view in layout with the common page data. status defaults
// to 200.
func Render(c *fiber.Ctx, view, layout string, data fiber.Map, status ...int) error {
	if data == nil {
		data = fiber.Map{}
	}
	flash, err := flashmessages.GetFlashMessages(c)
	if err != nil {
		configslog.Log.Debug("flash messages unavailable", zap.String("path", c.Path()), zap.Error(err))
	}
	SetFlashMessages(data, flash)

	if token, ok := c.Locals("csrf").(string); ok {
		data["CsrfToken"] = token
	}
	userID := utils.CurrentUserID(c)
	data["IsLoggedIn"] = userID != ""
	if name, ok := c.Locals(utils.UserNameLocal).(string); ok {
		data["UserName"] = name
	}

	code := http.StatusOK
	if len(status) > 0 {
		code = status[0]
	}
	if layout == "" {
		layout = MainLayout
	}
	return c.Status(code).Render(view, data, layout)
}
