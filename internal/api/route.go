package api

import (
	"github.com/gofiber/fiber/v2"
	v1 "github.com/smsbulk293/bulksend/internal/api/v1"
)

func SetupRoutes(app *fiber.App, handler *v1.Handler) {
	app.Get("/ping", handler.Pong)
	app.Post("/v1/batch", handler.Batch)
	app.Get("/v1/wallet", handler.Wallet)
	app.Post("/v1/admin/topup", handler.TopUp)
	app.Post("/v1/provider/status", handler.ProviderStatus)
	app.Get("/v1/job/:id", handler.Job)
}
