package feed

import "github.com/mauv0809/crispy-fiesta/internal/contest"

// Entity names the table a change event is scoped to.
type Entity string

const (
	EntityMatch      Entity = "matches"
	EntityPrediction Entity = "predictions"
	EntityStanding   Entity = "standings"
	EntitySettings   Entity = "settings"
)

// Action describes what happened to the record.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// Topic is the pub/sub topic every change event is published on.
const Topic = "contest-changes"

// Event is a single change notification. It carries the changed record's new
// state; exactly one of the payload pointers is set for upserts, none for
// deletes. Delivery is at-least-once with no ordering guarantee, so handlers
// must tolerate redelivery.
type Event struct {
	Entity Entity `msgpack:"entity"`
	Action Action `msgpack:"action"`
	ID     string `msgpack:"id"`

	Match      *contest.Match      `msgpack:"match,omitempty"`
	Prediction *contest.Prediction `msgpack:"prediction,omitempty"`
	Standing   *contest.Standing   `msgpack:"standing,omitempty"`
	Flags      *contest.Flags      `msgpack:"flags,omitempty"`
}
