package handler

import (
	"net/http"

	"bizmart-backend/bootstrap"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

var fiberApp = mustApp()

func mustApp() http.HandlerFunc {
	app, err := bootstrap.New()
	if err != nil {
		panic("app create: " + err.Error())
	}
	return adaptor.FiberApp(app)
}

// Handler is the serverless entry point. All requests are rewritten here.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	fiberApp(w, r)
}
