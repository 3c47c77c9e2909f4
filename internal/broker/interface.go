package broker

import "context"

type EventType string

const (
	EventProductCreated EventType = "product_created"
	EventProductDeleted EventType = "product_deleted"
	EventArchived       EventType = "product_archived"
	EventRestored       EventType = "product_restored"
	EventSellerAssigned EventType = "seller_assigned"
	EventBought         EventType = "product_bought"
)

// ProductEvent is a lifecycle notification for live catalog clients.
// It carries no costs; subscribers re-fetch the role view they need.
type ProductEvent struct {
	Type      EventType `json:"type"`
	ProductID string    `json:"productId"`
	ActorID   string    `json:"actorId,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// EventBroker fans product lifecycle events out to every subscriber.
type EventBroker interface {
	Publish(ctx context.Context, event ProductEvent) error
	// Subscribe returns a channel that is closed when ctx is done or the
	// broker shuts down.
	Subscribe(ctx context.Context) (<-chan ProductEvent, error)
	Close() error
}
