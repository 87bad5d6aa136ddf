package routes

import (
	public_handlers "ktuligonine.lt/handlers/public"

	"github.com/gofiber/fiber/v2"
)

// registerPublicRoutes registers the pages anyone can open.
func registerPublicRoutes(app *fiber.App, svc Services) {
	publicHandler := public_handlers.NewPublicHandler(svc.Meeting)

	// --- Static content pages ---
	app.Get("/", publicHandler.Home)              // GET /
	app.Get("/informacija", publicHandler.Info)   // GET /informacija
	app.Get("/kontaktai", publicHandler.Contacts) // GET /kontaktai

	// --- Video meeting ---
	app.Get("/e-susitikimas", publicHandler.ShowMeet)  // GET /e-susitikimas
	app.Post("/e-susitikimas", publicHandler.JoinMeet) // POST /e-susitikimas (redirects to the meeting room)
}
