package routes

import (
	"errors"

	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/services"
	"ktuligonine.lt/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	recoverMiddleware "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
)

const errorLayout = "layouts/error_layout"

// Services are the constructed service objects handlers delegate to.
type Services struct {
	Auth    services.IAuthService
	Account services.IAccountService
	History services.IHistoryService
	Meeting services.IMeetingService
}

// Options carries the HTTP level settings of the router.
type Options struct {
	Sessions  *session.Store
	CSRF      fiber.Handler // nil disables CSRF checks
	StaticDir string
	AccessLog bool
}

// SetupRoutes registers the middleware chain and every route of the portal.
func SetupRoutes(app *fiber.App, svc Services, opts Options) {
	app.Use(recoverMiddleware.New())
	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	if opts.StaticDir != "" {
		app.Static("/static", opts.StaticDir)
	}

	app.Use(initializeSessionAndLocals(opts.Sessions))
	if opts.CSRF != nil {
		app.Use(opts.CSRF)
	}

	registerPublicRoutes(app, svc)
	registerAuthRoutes(app, svc)
	registerPanelRoutes(app, svc)

	app.Use(notFoundHandler)
}

// initializeSessionAndLocals exposes the store and the logged in principal
// to handlers through locals.
func initializeSessionAndLocals(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(utils.SessionStoreLocal, store)
		sess, err := utils.SessionStart(c)
		if err != nil {
			configslog.Log.Debug("session unavailable", zap.Error(err))
			return c.Next()
		}
		if userID, err := utils.GetUserIDFromSession(sess); err == nil {
			c.Locals(utils.UserIDLocal, userID)
			c.Locals(utils.UserNameLocal, utils.GetUserNameFromSession(sess))
		}
		return c.Next()
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{"Title": "Puslapis nerastas"}, errorLayout)
}

// ErrorHandler renders errors that escaped the handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	view := "errors/500"
	switch {
	case code == fiber.StatusNotFound:
		view = "errors/404"
	case code >= fiber.StatusInternalServerError:
		configslog.Log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Any("request_id", c.Locals("requestid")),
			zap.Error(err))
	}

	if rerr := c.Status(code).Render(view, fiber.Map{"Title": "Klaida", "Code": code}, errorLayout); rerr != nil {
		configslog.Log.Error("error page render failed", zap.Error(rerr))
		return c.Status(code).SendString(services.ErrStorage.Error())
	}
	return nil
}
