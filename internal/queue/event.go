// Package queue defines message payloads exchanged over the message broker.
package queue

// InventoryQueue is the durable queue carrying product changes.
const InventoryQueue = "inventory.events"

// Inventory actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// InventoryEvent is published after an admin creates, updates or deletes a
// product.  It carries a snapshot of the product so consumers never need to
// read the primary database.
type InventoryEvent struct {
	Action     string  `json:"action"`
	ProductID  uint64  `json:"product_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
	Unit       string  `json:"unit"`
	Actor      string  `json:"actor"`
	ActorID    uint64  `json:"actor_id"`
	OccurredAt string  `json:"occurred_at"`
}
