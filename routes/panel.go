package routes

import (
	// Panel handlers
	panel_handlers "ktuligonine.lt/handlers/panel"
	"ktuligonine.lt/middlewares"

	"github.com/gofiber/fiber/v2"
)

// registerPanelRoutes registers the pages that need a logged in user.
// Every route runs AuthMiddleware first; the role decides the template, not
// the route.
func registerPanelRoutes(app *fiber.App, svc Services) {
	// Build the handler once
	panelHandler := panel_handlers.NewPanelHandler(svc.Account, svc.History)

	// --- Account page ---
	app.Get(middlewares.AccountPath, middlewares.AuthMiddleware, panelHandler.Account)  // GET /paskyra
	app.Post(middlewares.AccountPath, middlewares.AuthMiddleware, panelHandler.Account) // POST /paskyra (contact, photo or password form)

	// --- Patient history ---
	app.Get("/ligu-istorija", middlewares.AuthMiddleware, panelHandler.History) // GET /ligu-istorija
}
