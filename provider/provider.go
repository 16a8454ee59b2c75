// Package provider implements remote NEXRAD object-store access: listing
// the available objects for a radar site and loading them as decoded
// files.
package provider

import (
	"time"

	"github.com/blakeridgway/supercell-wx/wsr88d"
)

// DataProvider lists and loads the remote objects for one
// (radar, group, product) tuple. All calls may block on the network and
// must run on a worker.
type DataProvider interface {
	// Refresh rescans the remote listing and returns the count of newly
	// discovered objects and the total visible.
	Refresh() (newObjects, totalObjects int, err error)

	// FindLatestKey returns the key of the newest object, or "" when the
	// listing is empty.
	FindLatestKey() string

	// FindKey returns the key of the object whose start time is the
	// greatest less than or equal to t, or "" when none qualifies.
	FindKey(t time.Time) string

	// TimePointByKey derives the object's start time from its key.
	TimePointByKey(key string) (time.Time, error)

	// LoadObjectByKey fetches and decodes the object.
	LoadObjectByKey(key string) (wsr88d.NexradFile, error)

	// UpdatePeriod is the observed interval between the two most recent
	// objects.
	UpdatePeriod() time.Duration

	// LastModified is the modification time of the newest object.
	LastModified() time.Time

	// RequestAvailableProducts refreshes the Level-III product listing.
	// A no-op for Level-II providers.
	RequestAvailableProducts()

	// AvailableProducts returns the Level-III products visible for the
	// site; nil for Level-II providers.
	AvailableProducts() []string
}
