package main

import (
	"context"

	"github.com/dukex/scrapeflow/pkg/log"
	"github.com/dukex/scrapeflow/pkg/triggers/schedule"
	"github.com/dukex/scrapeflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

// startScheduler registers every stored workflow with a scheduled trigger
// and starts the cron loop.
func startScheduler(ctx context.Context, a *app, repository *workflow.Repository) (*schedule.Scheduler, error) {
	workflows, err := repository.ScheduledWorkflows(ctx)
	if err != nil {
		return nil, err
	}

	executions := a.executions()

	scheduler := schedule.NewScheduler(func(ctx context.Context, workflowID string, triggerData map[string]any) error {
		_, err := executions.ExecuteWorkflow(ctx, workflowID, triggerData)

		return err
	}, log.WithModule("scheduler"))

	count := scheduler.Load(workflows)
	a.logger.InfoContext(ctx, "Loaded scheduled workflows", "workflows", len(workflows), "triggers", count)

	scheduler.Start(ctx)

	return scheduler, nil
}

func ScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run workflows whose trigger nodes carry a cron schedule",
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("scheduler")

			a, err := newApp(ctx, command, logger)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			scheduler, err := startScheduler(ctx, a, workflow.NewRepository(a.persistence))
			if err != nil {
				return err
			}

			<-ctx.Done()
			logger.InfoContext(ctx, "Stopping scheduler")

			return scheduler.Stop(context.WithoutCancel(ctx))
		},
	}
}
