package manager

import (
	"sync"
	"weak"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/blakeridgway/supercell-wx/provider"
	"github.com/blakeridgway/supercell-wx/wsr88d"
)

// RegistryConfig configures the root registry. Zero fields are
// defaulted.
type RegistryConfig struct {
	// EventSink receives all published events.
	EventSink EventFunc

	// Clock drives refresh timers; tests inject a fake.
	Clock clockwork.Clock

	// Level2Provider and Level3Provider construct the data providers for
	// new managers.
	Level2Provider func(radarID string) provider.DataProvider
	Level3Provider func(radarID, product string) provider.DataProvider
}

// Registry is the process-wide root owning the weak instance map and
// the file index. Construct one at startup and Cleanup at shutdown.
type Registry struct {
	mu        sync.Mutex
	instances map[string]weak.Pointer[RadarProductManager]

	fileIndexMu sync.RWMutex
	fileIndex   map[string]*RadarProductRecord

	// Load serialization points: one per product group to bound decoder
	// memory use, one for file loads.
	loadLevel2Mu sync.Mutex
	loadLevel3Mu sync.Mutex
	fileLoadMu   sync.Mutex

	sink  EventFunc
	clock clockwork.Clock

	level2Provider func(radarID string) provider.DataProvider
	level3Provider func(radarID, product string) provider.DataProvider
}

// NewRegistry constructs the registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	reg := &Registry{
		instances:      make(map[string]weak.Pointer[RadarProductManager]),
		fileIndex:      make(map[string]*RadarProductRecord),
		sink:           cfg.EventSink,
		clock:          cfg.Clock,
		level2Provider: cfg.Level2Provider,
		level3Provider: cfg.Level3Provider,
	}

	if reg.clock == nil {
		reg.clock = clockwork.NewRealClock()
	}
	if reg.level2Provider == nil {
		reg.level2Provider = provider.NewLevel2DataProvider
	}
	if reg.level3Provider == nil {
		reg.level3Provider = provider.NewLevel3DataProvider
	}

	return reg
}

func (reg *Registry) publish(event any) {
	if reg.sink != nil {
		reg.sink(event)
	}
}

// Instance returns the shared manager for a radar site, constructing it
// when no live instance exists. The registry retains only a weak
// reference, so a manager is reclaimed once every caller drops it.
func (reg *Registry) Instance(radarID string) *RadarProductManager {
	var instance *RadarProductManager
	created := false

	reg.mu.Lock()
	if wp, ok := reg.instances[radarID]; ok {
		// The weak pointer may have been garbage collected.
		instance = wp.Value()
	}
	if instance == nil {
		instance = newRadarProductManager(reg, radarID)
		reg.instances[radarID] = weak.Make(instance)
		created = true
	}
	reg.mu.Unlock()

	if created {
		reg.publish(RadarProductManagerCreated{RadarID: radarID})
	}

	return instance
}

// Cleanup clears the file index and the instance map.
func (reg *Registry) Cleanup() {
	reg.fileIndexMu.Lock()
	reg.fileIndex = make(map[string]*RadarProductRecord)
	reg.fileIndexMu.Unlock()

	reg.mu.Lock()
	reg.instances = make(map[string]weak.Pointer[RadarProductManager])
	reg.mu.Unlock()
}

// loadNexradFile runs the load on a worker under the given serialization
// mutex, stores the resulting record with the owning site's manager, and
// completes the request.
func (reg *Registry) loadNexradFile(load func() (wsr88d.NexradFile, error),
	request *NexradFileRequest, mu *sync.Mutex) {

	go func() {
		mu.Lock()

		var record *RadarProductRecord

		file, err := load()
		if err != nil {
			logrus.Warnf("load failed: %v", err)
		} else if file != nil {
			record = NewRadarProductRecord(file)

			m := reg.Instance(record.RadarID())
			m.Initialize()
			record = m.storeRecord(record)
		}

		mu.Unlock()

		if request != nil {
			request.complete(record)
			reg.publish(RequestComplete{Request: request})
		}
	}()
}
