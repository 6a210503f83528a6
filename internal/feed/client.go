package feed

import (
	"context"

	"cloud.google.com/go/pubsub"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// New creates a feed publisher backed by Google Cloud Pub/Sub.
func New(projectID string) Publisher {
	ctx := context.Background()
	pubSubC, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.Fatalf("Failed to create pubsub client: %v", err)
	}
	teardown := func() {
		pubSubC.Close()
	}

	return &client{
		client:   pubSubC,
		teardown: teardown,
	}
}

func (c *client) Publish(ev Event) error {
	ctx := context.Background()
	data, err := msgpack.Marshal(ev)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return err
	}
	result := c.client.Topic(Topic).Publish(ctx, &pubsub.Message{Data: data})
	serverID, err := result.Get(ctx)
	if err != nil {
		log.Error("Failed to publish change event", "error", err, "entity", ev.Entity)
		return err
	}
	log.Debug("Published change event", "serverID", serverID, "entity", ev.Entity, "action", ev.Action, "id", ev.ID)
	return nil
}

// Decode unmarshals a raw feed message into an Event.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := msgpack.Unmarshal(data, &ev); err != nil {
		log.Error("MessagePack unmarshal error", "error", err)
		return Event{}, err
	}
	return ev, nil
}
