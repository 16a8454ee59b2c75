package common

import "sync"

// RadarSite describes a WSR-88D or TDWR installation. Immutable after
// construction.
type RadarSite struct {
	ID        string
	Type      string // "wsr88d" or "tdwr"
	Latitude  float64
	Longitude float64
}

var (
	siteMu sync.RWMutex

	// A subset of the operational network. Additional sites can be added
	// with RegisterRadarSite before managers are created.
	sites = map[string]*RadarSite{
		"KDVN": {ID: "KDVN", Type: "wsr88d", Latitude: 41.611667, Longitude: -90.580833},
		"KEAX": {ID: "KEAX", Type: "wsr88d", Latitude: 38.810278, Longitude: -94.264444},
		"KLSX": {ID: "KLSX", Type: "wsr88d", Latitude: 38.698889, Longitude: -90.682778},
		"KMPX": {ID: "KMPX", Type: "wsr88d", Latitude: 44.848889, Longitude: -93.565528},
		"KOKX": {ID: "KOKX", Type: "wsr88d", Latitude: 40.865556, Longitude: -72.863889},
		"KTLX": {ID: "KTLX", Type: "wsr88d", Latitude: 35.333361, Longitude: -97.277761},
		"TDAL": {ID: "TDAL", Type: "tdwr", Latitude: 32.926139, Longitude: -96.968528},
		"TOKC": {ID: "TOKC", Type: "tdwr", Latitude: 35.276111, Longitude: -97.510556},
	}
)

// GetRadarSite returns the site for the given identifier, or nil when the
// site is unknown.
func GetRadarSite(id string) *RadarSite {
	siteMu.RLock()
	defer siteMu.RUnlock()
	return sites[id]
}

// RegisterRadarSite adds or replaces a site definition.
func RegisterRadarSite(site *RadarSite) {
	siteMu.Lock()
	defer siteMu.Unlock()
	sites[site.ID] = site
}

// GateSizeMeters returns the range gate interval for the site type.
func (s *RadarSite) GateSizeMeters() float64 {
	if s.Type == "tdwr" {
		return 150.0
	}
	return 250.0
}
