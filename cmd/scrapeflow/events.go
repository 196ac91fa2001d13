package main

import (
	"context"
	"errors"

	"github.com/dukex/scrapeflow/pkg/events"
	"github.com/dukex/scrapeflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

var errNoEventBus = errors.New("no event bus configured, set --event-bus")

var watchedEvents = []events.EventType{
	events.ExecutionStartedEvent,
	events.ExecutionCompletedEvent,
	events.ExecutionFailedEvent,
	events.NodeFinishedEvent,
	events.NodeFailedEvent,
	events.NodeSkippedEvent,
}

func EventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Log the execution lifecycle events published on the event bus",
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("events")

			a, err := newApp(ctx, command, logger)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			if a.eventBus == nil {
				return errNoEventBus
			}

			for _, eventType := range watchedEvents {
				err := a.eventBus.Handle(eventType, func(ctx context.Context, event any) error {
					logger.InfoContext(ctx, "Received event", "type", eventType, "event", event)

					return nil
				})
				if err != nil {
					return err
				}
			}

			err = a.eventBus.Subscribe(ctx)
			if err != nil {
				return err
			}

			<-ctx.Done()

			return nil
		},
	}
}
