package bootstrap

import (
	"bizmart-backend/internal/config"
	"bizmart-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless runtimes (the api handler imports this package, not internal).
// Connections stay open for the lifetime of the instance.
func New() (*fiber.App, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	app, _, err := router.CreateApp(cfg)
	return app, err
}
