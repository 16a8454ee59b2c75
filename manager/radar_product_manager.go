package manager

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blakeridgway/supercell-wx/common"
	"github.com/blakeridgway/supercell-wx/wsr88d"
)

// RadarProductManager aggregates the providers, record caches and
// coordinate grids for a single radar site. Instances are shared;
// obtain them through Registry.Instance.
type RadarProductManager struct {
	radarID   string
	registry  *Registry
	radarSite *common.RadarSite

	initMu      sync.Mutex
	initialized bool
	coordsHalf  []float32
	coordsFull  []float32

	level2RecordsMu sync.RWMutex
	level2Records   radarProductRecordMap

	level3RecordsMu sync.RWMutex
	level3Records   map[string]*radarProductRecordMap

	level2ProviderManager *ProviderManager

	level3ProvidersMu      sync.RWMutex
	level3ProviderManagers map[string]*ProviderManager

	level3ProductsInitMu      sync.Mutex
	level3ProductsInitialized bool

	availableCategoryMu sync.RWMutex
	availableCategories common.Level3ProductCategoryMap
}

func newRadarProductManager(registry *Registry, radarID string) *RadarProductManager {
	site := common.GetRadarSite(radarID)
	if site == nil {
		logrus.Warnf("radar site not found: %q", radarID)
		site = &common.RadarSite{ID: radarID, Type: "wsr88d"}
	}

	m := &RadarProductManager{
		radarID:                radarID,
		registry:               registry,
		radarSite:              site,
		level3Records:          make(map[string]*radarProductRecordMap),
		level3ProviderManagers: make(map[string]*ProviderManager),
		availableCategories:    make(common.Level3ProductCategoryMap),
	}

	m.level2ProviderManager = newProviderManager(radarID, common.Level2, "",
		registry.level2Provider(radarID), registry.clock, registry.sink)

	return m
}

// RadarSite returns the site metadata for this manager.
func (m *RadarProductManager) RadarSite() *common.RadarSite {
	return m.radarSite
}

// GateSize returns the range gate interval in meters for the site type.
func (m *RadarProductManager) GateSize() float64 {
	return m.radarSite.GateSizeMeters()
}

// Coordinates returns the interleaved (lat, lon) grid for the radial
// size. Initialize must have completed.
func (m *RadarProductManager) Coordinates(radialSize common.RadialSize) ([]float32, error) {
	switch radialSize {
	case common.HalfDegree:
		return m.coordsHalf, nil
	case common.FullDegree:
		return m.coordsFull, nil
	}
	return nil, fmt.Errorf("radial size %d: %w", radialSize, common.ErrInvalidArgument)
}

// Initialize computes both coordinate grids. Idempotent.
func (m *RadarProductManager) Initialize() {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.initialized {
		return
	}

	logrus.Debugf("[%s] initializing", m.radarID)

	origin := common.Coordinate{
		Latitude:  m.radarSite.Latitude,
		Longitude: m.radarSite.Longitude,
	}
	gateSize := m.GateSize()

	start := time.Now()
	m.coordsHalf = buildCoordinates(origin, gateSize, common.MaxHalfDegreeRadials, 0.5)
	logrus.Debugf("[%s] coordinates (0.5 degree) calculated in %s", m.radarID, time.Since(start))

	start = time.Now()
	m.coordsFull = buildCoordinates(origin, gateSize, common.MaxFullDegreeRadials, 1.0)
	logrus.Debugf("[%s] coordinates (1 degree) calculated in %s", m.radarID, time.Since(start))

	m.initialized = true
}

// buildCoordinates computes the geodesic destination of every
// (radial, gate) pair, interleaved (lat, lon). Each index is written
// exactly once, so the workers need no synchronization beyond the wait.
func buildCoordinates(origin common.Coordinate, gateSize float64, radials int, spacing float64) []float32 {
	numRadialGates := radials * common.MaxDataMomentGates
	coords := make([]float32, numRadialGates*2)

	workers := runtime.NumCPU()
	chunk := (numRadialGates + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < numRadialGates; lo += chunk {
		hi := lo + chunk
		if hi > numRadialGates {
			hi = numRadialGates
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for radialGate := lo; radialGate < hi; radialGate++ {
				gate := radialGate % common.MaxDataMomentGates
				radial := radialGate / common.MaxDataMomentGates

				angle := float64(radial)*spacing - spacing/2
				rangeM := float64(gate+1) * gateSize

				c := common.GeodesicDirect(origin, angle, rangeM)

				coords[radialGate*2] = float32(c.Latitude)
				coords[radialGate*2+1] = float32(c.Longitude)
			}
		}(lo, hi)
	}
	wg.Wait()

	return coords
}

// getLevel3ProviderManager lazily creates the provider manager for a
// Level-III product and reuses it thereafter.
func (m *RadarProductManager) getLevel3ProviderManager(product string) *ProviderManager {
	m.level3ProvidersMu.Lock()
	defer m.level3ProvidersMu.Unlock()

	if pm, ok := m.level3ProviderManagers[product]; ok {
		return pm
	}

	pm := newProviderManager(m.radarID, common.Level3, product,
		m.registry.level3Provider(m.radarID, product), m.registry.clock, m.registry.sink)
	m.level3ProviderManagers[product] = pm
	return pm
}

// EnableRefresh starts or stops periodic refresh for a product group.
// Level-III refresh is gated on the product actually being available
// for the site.
func (m *RadarProductManager) EnableRefresh(group common.RadarProductGroup, product string, enabled bool) {
	if group == common.Level2 {
		m.level2ProviderManager.EnableRefresh(enabled)
		return
	}

	pm := m.getLevel3ProviderManager(product)
	if pm.provider == nil {
		return
	}

	go func() {
		pm.provider.RequestAvailableProducts()
		if slices.Contains(pm.provider.AvailableProducts(), product) {
			pm.EnableRefresh(enabled)
		}
	}()
}

// Disable stops every provider manager owned by this site.
func (m *RadarProductManager) Disable() {
	m.level2ProviderManager.Disable()

	m.level3ProvidersMu.RLock()
	defer m.level3ProvidersMu.RUnlock()
	for _, pm := range m.level3ProviderManagers {
		pm.Disable()
	}
}

// LoadLevel2Data loads the Level-II volume bounding the given time and
// completes the request on a worker.
func (m *RadarProductManager) LoadLevel2Data(t time.Time, request *NexradFileRequest) {
	logrus.Debugf("[%s] load level 2 data: %s", m.radarID, t)

	m.loadProviderData(t, m.level2ProviderManager,
		&m.level2Records, &m.level2RecordsMu, &m.registry.loadLevel2Mu, request)
}

// LoadLevel3Data loads a Level-III product bounding the given time and
// completes the request on a worker. The product's provider manager
// must already exist.
func (m *RadarProductManager) LoadLevel3Data(product string, t time.Time, request *NexradFileRequest) {
	logrus.Debugf("[%s] load level 3 data: %s %s", m.radarID, product, t)

	m.level3ProvidersMu.RLock()
	pm, ok := m.level3ProviderManagers[product]
	m.level3ProvidersMu.RUnlock()
	if !ok {
		logrus.Debugf("[%s] no level 3 provider manager for product %s", m.radarID, product)
		return
	}

	m.level3RecordsMu.Lock()
	records, exists := m.level3Records[product]
	if !exists {
		records = &radarProductRecordMap{}
		m.level3Records[product] = records
	}
	m.level3RecordsMu.Unlock()

	m.loadProviderData(t, pm, records, &m.level3RecordsMu, &m.registry.loadLevel3Mu, request)
}

// loadProviderData reuses a cached record at exactly the requested time
// or pulls the bounding object from the provider, all under the group
// load mutex.
func (m *RadarProductManager) loadProviderData(t time.Time, pm *ProviderManager,
	records *radarProductRecordMap, recordsMu *sync.RWMutex, loadMu *sync.Mutex,
	request *NexradFileRequest) {

	m.registry.loadNexradFile(func() (wsr88d.NexradFile, error) {
		recordsMu.RLock()
		existing := records.get(t)
		recordsMu.RUnlock()

		if existing != nil {
			logrus.Debugf("[%s] data previously loaded, loading from data cache", m.radarID)
			return existing.File(), nil
		}

		key := pm.provider.FindKey(t)
		if key == "" {
			return nil, fmt.Errorf("no object at %s: %w", t, common.ErrNotFound)
		}
		return pm.provider.LoadObjectByKey(key)
	}, request, loadMu)
}

// LoadData decodes an arbitrary stream through the file factory and
// completes the request on a worker.
func (m *RadarProductManager) LoadData(r io.Reader, request *NexradFileRequest) {
	logrus.Debug("load data from stream")

	m.registry.loadNexradFile(func() (wsr88d.NexradFile, error) {
		return wsr88d.NewNexradFile(r)
	}, request, &m.registry.fileLoadMu)
}

// LoadFile decodes a file from disk, consulting and maintaining the
// process-wide file index.
func (m *RadarProductManager) LoadFile(filename string, request *NexradFileRequest) {
	logrus.Debugf("load file: %s", filename)

	m.registry.fileIndexMu.RLock()
	existing := m.registry.fileIndex[filename]
	m.registry.fileIndexMu.RUnlock()

	if existing != nil {
		logrus.Debug("file previously loaded, loading from file cache")
		if request != nil {
			request.complete(existing)
			m.registry.publish(RequestComplete{Request: request})
		}
		return
	}

	if request != nil {
		request.WhenComplete(func(r *NexradFileRequest) {
			if record := r.Record(); record != nil {
				m.registry.fileIndexMu.Lock()
				m.registry.fileIndex[filename] = record
				m.registry.fileIndexMu.Unlock()
			}
		})
	}

	m.registry.loadNexradFile(func() (wsr88d.NexradFile, error) {
		return wsr88d.NewNexradFileFromFile(filename)
	}, request, &m.registry.fileLoadMu)
}

// storeRecord deduplicates the record into the matching cache by its
// seconds-truncated time, returning the stored record.
func (m *RadarProductManager) storeRecord(record *RadarProductRecord) *RadarProductRecord {
	logrus.Debugf("[%s] store record: %s", m.radarID, record.Time())

	switch record.Group() {
	case common.Level2:
		m.level2RecordsMu.Lock()
		defer m.level2RecordsMu.Unlock()
		return m.level2Records.store(record)

	case common.Level3:
		m.level3RecordsMu.Lock()
		defer m.level3RecordsMu.Unlock()

		records, ok := m.level3Records[record.Product()]
		if !ok {
			records = &radarProductRecordMap{}
			m.level3Records[record.Product()] = records
		}
		return records.store(record)
	}

	return record
}

// getLevel2Record returns the cached volume bounding t; a zero time
// returns the latest record.
func (m *RadarProductManager) getLevel2Record(t time.Time) *RadarProductRecord {
	m.level2RecordsMu.RLock()
	defer m.level2RecordsMu.RUnlock()

	if t.IsZero() {
		return m.level2Records.latest()
	}

	record := m.level2Records.getBounded(t)

	// Does the record contain the time we are looking for?
	if record != nil {
		if f := record.Level2File(); f != nil && t.Before(f.StartTime()) {
			record = nil
		}
	}
	return record
}

// getLevel3Record returns the cached product bounding t; a zero time
// returns the latest record.
func (m *RadarProductManager) getLevel3Record(product string, t time.Time) *RadarProductRecord {
	m.level3RecordsMu.RLock()
	defer m.level3RecordsMu.RUnlock()

	records, ok := m.level3Records[product]
	if !ok {
		return nil
	}
	if t.IsZero() {
		return records.latest()
	}
	return records.getBounded(t)
}

// GetLevel2Data looks up the bounded Level-II record and returns its
// elevation scan for the data moment and elevation.
func (m *RadarProductManager) GetLevel2Data(dataName string, elevation float32, t time.Time) (wsr88d.ElevationScan, float32, []float32) {
	record := m.getLevel2Record(t)
	if record == nil {
		return nil, 0, nil
	}

	f := record.Level2File()
	if f == nil {
		return nil, 0, nil
	}

	return f.GetElevationScan(dataName, elevation, t)
}

// GetLevel3Data looks up the bounded Level-III record and returns its
// product message.
func (m *RadarProductManager) GetLevel3Data(product string, t time.Time) *wsr88d.Level3Message {
	record := m.getLevel3Record(product, t)
	if record == nil {
		return nil
	}

	f := record.Level3File()
	if f == nil {
		return nil
	}
	return f.Message()
}

// GetAvailableLevel3Categories returns the last discovered category map.
func (m *RadarProductManager) GetAvailableLevel3Categories() common.Level3ProductCategoryMap {
	m.availableCategoryMu.RLock()
	defer m.availableCategoryMu.RUnlock()

	out := make(common.Level3ProductCategoryMap, len(m.availableCategories))
	for category, products := range m.availableCategories {
		out[category] = products
	}
	return out
}

// GetLevel3Products returns the provider's available product listing.
func (m *RadarProductManager) GetLevel3Products() []string {
	pm := m.getLevel3ProviderManager(common.DefaultLevel3Product)
	if pm.provider == nil {
		return nil
	}
	return pm.provider.AvailableProducts()
}

// UpdateAvailableProducts requests the Level-III product listing once,
// buckets it into categories, and publishes Level3ProductsChanged.
func (m *RadarProductManager) UpdateAvailableProducts() {
	m.level3ProductsInitMu.Lock()
	defer m.level3ProductsInitMu.Unlock()

	if m.level3ProductsInitialized {
		return
	}

	// Although not complete here, only initialize once. The event is
	// published once complete.
	m.level3ProductsInitialized = true

	logrus.Debugf("[%s] updating available products", m.radarID)

	go func() {
		pm := m.getLevel3ProviderManager(common.DefaultLevel3Product)
		if pm.provider == nil {
			return
		}

		pm.provider.RequestAvailableProducts()
		awipsIDs := pm.provider.AvailableProducts()

		m.availableCategoryMu.Lock()

		for _, category := range common.Level3Categories() {
			availableProducts := make(map[string][]string)

			for _, product := range common.GetLevel3ProductsByCategory(category) {
				var available []string
				for _, awipsID := range common.GetLevel3AwipsIDsByProduct(product) {
					if slices.Contains(awipsIDs, awipsID) {
						available = append(available, awipsID)
					}
				}
				if len(available) > 0 {
					availableProducts[product] = available
				}
			}

			if len(availableProducts) > 0 {
				m.availableCategories[category] = availableProducts
			} else {
				delete(m.availableCategories, category)
			}
		}

		m.availableCategoryMu.Unlock()

		m.registry.publish(Level3ProductsChanged{RadarID: m.radarID})
	}()
}
