package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/smsbulk293/bulksend/internal/api"
	v1 "github.com/smsbulk293/bulksend/internal/api/v1"
	"github.com/smsbulk293/bulksend/internal/config"
	"github.com/smsbulk293/bulksend/internal/database"
	middleware "github.com/smsbulk293/bulksend/internal/error"
	"github.com/smsbulk293/bulksend/internal/repository"
	"github.com/smsbulk293/bulksend/internal/service"
	"github.com/smsbulk293/bulksend/pkg/httpclient"
	"github.com/smsbulk293/bulksend/pkg/phone"
	"github.com/smsbulk293/bulksend/pkg/smsprovider"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			zap.NewProduction,
			database.NewConnection,
			NewFiberApp,
			NewPhoneResolver,
			NewSMSProvider,

			repository.NewJobRepository,
			repository.NewRecipientRepository,
			repository.NewWalletRepository,
			repository.NewTransactionManager,

			service.NewJobRegistry,
			service.NewEstimatorService,
			service.NewLedgerService,
			service.NewProviderService,
			service.NewDispatcherService,
			service.NewBatchService,
			service.NewReconcilerService,
			service.NewResumeService,

			v1.NewHandler,
		),
		fx.Invoke(startServer),
	).Run()
}

func NewFiberApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
}

func NewPhoneResolver(cfg *config.Config) phone.Resolver {
	return phone.NewResolver(cfg.Pricing.AllowedRegion)
}

func NewSMSProvider(cfg *config.Config) smsprovider.Provider {
	client := httpclient.NewHTTPClient(cfg.Provider.Timeout)
	return smsprovider.NewSMSProvider(cfg.Provider, client)
}

func startServer(app *fiber.App, handler *v1.Handler, cfg *config.Config, resume service.ResumeService,
	logger *zap.Logger, lc fx.Lifecycle) {
	api.SetupRoutes(app, handler)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := resume.ResumeJobs(); err != nil {
				logger.Error("resume scan failed", zap.Error(err))
				return err
			}

			go func() {
				if err := app.Listen(cfg.API.Port); err != nil {
					logger.Error("server exited", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}
