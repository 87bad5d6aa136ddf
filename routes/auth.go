package routes

import (
	auth_handlers "ktuligonine.lt/handlers/auth"
	"ktuligonine.lt/middlewares"

	"github.com/gofiber/fiber/v2"
)

// registerAuthRoutes registers login, registration and logout.
func registerAuthRoutes(app *fiber.App, svc Services) {
	authHandler := auth_handlers.NewAuthHandler(svc.Auth)

	// --- Login (guests only, logged in users go to /paskyra) ---
	app.Get(middlewares.LoginPath, middlewares.GuestMiddleware, authHandler.ShowLogin) // GET /prisijungimas
	app.Post(middlewares.LoginPath, middlewares.GuestMiddleware, authHandler.Login)    // POST /prisijungimas

	// --- Registration (open to everyone) ---
	app.Get(auth_handlers.RegisterPath, authHandler.ShowRegister) // GET /registracija
	app.Post(auth_handlers.RegisterPath, authHandler.Register)    // POST /registracija

	// --- Logout ---
	app.Get("/atsijungti", middlewares.AuthMiddleware, authHandler.Logout) // GET /atsijungti
}
