package api

import (
	"time"

	"options-clearinghouse/pkg/types"
)

// DashboardEvent is the wrapper for all events sent to the dashboard
type DashboardEvent struct {
	Type      string      `json:"type"`      // "snapshot" or a settlement event type
	Timestamp time.Time   `json:"timestamp"` // Event time
	Data      interface{} `json:"data"`      // Event-specific payload
}

// NewSettlementEvent wraps a settlement event for the dashboard stream. The
// payload structs in pkg/types already carry JSON tags, so they pass through
// unchanged.
func NewSettlementEvent(evt types.Event) DashboardEvent {
	return DashboardEvent{
		Type:      string(evt.Type),
		Timestamp: evt.Timestamp,
		Data:      evt.Data,
	}
}
