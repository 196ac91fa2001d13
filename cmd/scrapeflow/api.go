package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/scrapeflow/pkg/log"
	"github.com/dukex/scrapeflow/pkg/registry"
	"github.com/dukex/scrapeflow/pkg/services"
	"github.com/dukex/scrapeflow/pkg/web"
	"github.com/dukex/scrapeflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	cli "github.com/urfave/cli/v3"
)

type API struct {
	logger     *slog.Logger
	scraping   *services.Scraping
	executions *services.Execution
	workflows  *workflow.Repository
	registry   *registry.Registry
	scheduler  web.WorkflowScheduler
	validate   *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	scraping *services.Scraping,
	executions *services.Execution,
	workflows *workflow.Repository,
	registry *registry.Registry,
	scheduler web.WorkflowScheduler,
) *API {
	return &API{
		logger:     logger,
		scraping:   scraping,
		executions: executions,
		workflows:  workflows,
		registry:   registry,
		scheduler:  scheduler,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.scraping, a.executions, a.workflows, a.registry, a.scheduler, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Scrapeflow API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

// Start serves the API until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		err := app.Shutdown()
		if err != nil {
			a.logger.Error("Failed to shut down API", "error", err)
		}
	}()

	return app.Listen(":" + strconv.Itoa(port))
}

func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Serve the REST API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.BoolFlag{
				Name:    "schedule",
				Usage:   "Also run the trigger scheduler in this process",
				Sources: cli.EnvVars("API_SCHEDULE"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Scrapeflow API")

			a, err := newApp(ctx, command, logger)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			repository := workflow.NewRepository(a.persistence)

			var scheduler web.WorkflowScheduler

			if command.Bool("schedule") {
				s, err := startScheduler(ctx, a, repository)
				if err != nil {
					return err
				}

				defer func() {
					if err := s.Stop(context.WithoutCancel(ctx)); err != nil {
						logger.ErrorContext(ctx, "Failed to stop scheduler", "error", err)
					}
				}()

				scheduler = s
			}

			api := NewAPI(logger, a.scraping(), a.executions(), repository, a.registry, scheduler)

			return api.Start(ctx, command.Int("port"))
		},
	}
}
