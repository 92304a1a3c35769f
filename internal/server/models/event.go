package models

import (
	"encoding/json"
	"time"
)

// Routing keys for messages published to the events exchange.
const (
	EventUserCreated     = "user.created"
	EventUserLogin       = "user.login"
	EventUserLogout      = "user.logout"
	EventInventoryUpdate = "product.inventory.update"
)

// Event is the envelope shared by all queue messages:
//
//	{"event": "...", "timestamp": "...", "data": {...}}
type Event struct {
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// InventoryUpdate is the data payload of a product.inventory.update
// message. Timestamp is copied from the envelope and drives the
// staleness check on application.
type InventoryUpdate struct {
	ProductID string    `json:"product_id"`
	OldCount  int       `json:"old_count"`
	NewCount  int       `json:"new_count"`
	Timestamp time.Time `json:"-"`
}

// UserEventData is the data payload of user.* messages.
type UserEventData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
