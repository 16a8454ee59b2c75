// Package manager maintains per-radar-site product managers: provider
// refresh scheduling, decoded record caches, and the process-wide
// instance registry.
package manager

import (
	"time"

	"github.com/blakeridgway/supercell-wx/common"
)

// EventFunc receives the typed events published by the core. A single
// sink is injected at registry construction; a nil sink drops events.
type EventFunc func(event any)

// NewDataAvailable is published when a provider refresh discovers new
// objects.
type NewDataAvailable struct {
	Group      common.RadarProductGroup
	Product    string
	LatestTime time.Time
}

// Level3ProductsChanged is published when the available Level-III
// product listing for a site has been updated.
type Level3ProductsChanged struct {
	RadarID string
}

// RadarProductManagerCreated is published when the registry constructs
// a new manager for a site.
type RadarProductManagerCreated struct {
	RadarID string
}

// RequestComplete is published when a load request finishes, whether or
// not it produced a record.
type RequestComplete struct {
	Request *NexradFileRequest
}
