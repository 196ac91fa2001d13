package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/scrapeflow/pkg/log"
	"github.com/dukex/scrapeflow/pkg/persistence/file"
	cli "github.com/urfave/cli/v3"
)

var errWorkflowSource = errors.New("exactly one of --workflow-id and --workflow-file is required")

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Execute a workflow once and print the execution as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "workflow-id",
				Usage: "Id of a stored workflow",
			},
			&cli.StringFlag{
				Name:  "workflow-file",
				Usage: "Path of a JSON or YAML workflow definition",
			},
			&cli.StringFlag{
				Name:  "trigger-data",
				Usage: "JSON object handed to the trigger nodes",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			workflowID := command.String("workflow-id")
			workflowFile := command.String("workflow-file")

			if (workflowID == "") == (workflowFile == "") {
				return errWorkflowSource
			}

			var triggerData map[string]any

			if raw := command.String("trigger-data"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &triggerData); err != nil {
					return fmt.Errorf("invalid trigger data: %w", err)
				}
			}

			logger := log.WithModule("run")

			a, err := newApp(ctx, command, logger)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			if workflowID != "" {
				result, err := a.executions().ExecuteWorkflow(ctx, workflowID, triggerData)
				if err != nil {
					return err
				}

				return writeJSON(command.Root().Writer, result)
			}

			workflow, err := file.LoadWorkflowFile(workflowFile)
			if err != nil {
				return err
			}

			execution, err := a.engine.Run(ctx, workflow, triggerData)
			if execution == nil {
				return err
			}

			if err != nil {
				logger.ErrorContext(ctx, "Workflow execution failed", "error", err)
			}

			return writeJSON(command.Root().Writer, execution)
		},
	}
}
