package kafka_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/scrapeflow/pkg/channels/kafka"
	"github.com/dukex/scrapeflow/pkg/eventbus"
	"github.com/dukex/scrapeflow/pkg/events"
	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaTc "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func startKafka(t *testing.T) []string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Kafka container tests in short mode")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := kafkaTc.Run(ctx, "confluentinc/confluent-local:7.7.0", testcontainers.WithEnv(map[string]string{
		"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true",
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	return brokers
}

func TestEventBusOverKafka(t *testing.T) {
	brokers := startKafka(t)

	pub, sub, err := kafka.CreateChannel(watermill.NopLogger{}, brokers, "scrapeflow-test")
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)), pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	published := events.NodeFailed{
		BaseEvent: events.NewBaseEvent(bus.GenerateID(), events.NodeFailedEvent, "wf-1", "exec-1", time.Now().UTC()),
		NodeID:    "scrape",
		NodeName:  "Catalog",
		NodeType:  models.NodeTypeScrapeAction,
		Error:     "HTTP 503",
	}

	// The first publish creates the topic; the subscriber reads from the oldest offset.
	require.NoError(t, bus.Publish(ctx, "wf-1", published))

	received := make(chan *events.NodeFailed, 1)

	require.NoError(t, bus.Handle(events.NodeFailedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.NodeFailed)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	select {
	case event := <-received:
		assert.Equal(t, "exec-1", event.ExecutionID)
		assert.Equal(t, "scrape", event.NodeID)
		assert.Equal(t, "HTTP 503", event.Error)
	case <-time.After(60 * time.Second):
		t.Fatal("event was not delivered over Kafka")
	}
}
