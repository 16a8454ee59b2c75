package manager

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/blakeridgway/supercell-wx/common"
	"github.com/blakeridgway/supercell-wx/provider"
)

// retryInterval is the minimum delay between provider refreshes.
const retryInterval = 15 * time.Second

// ProviderManager owns one DataProvider and drives its periodic refresh:
// idle until enabled, then refresh, schedule, tick, refresh again. The
// timer mutex guards the refresh flag and the armed timer.
type ProviderManager struct {
	radarID string
	group   common.RadarProductGroup
	product string

	provider provider.DataProvider
	clock    clockwork.Clock
	sink     EventFunc

	timerMu        sync.Mutex
	refreshEnabled bool
	refreshTimer   clockwork.Timer
}

func newProviderManager(radarID string, group common.RadarProductGroup, product string,
	prov provider.DataProvider, clock clockwork.Clock, sink EventFunc) *ProviderManager {
	return &ProviderManager{
		radarID:  radarID,
		group:    group,
		product:  product,
		provider: prov,
		clock:    clock,
		sink:     sink,
	}
}

// Name identifies the provider manager in logs.
func (pm *ProviderManager) Name() string {
	if pm.group == common.Level3 {
		return fmt.Sprintf("%s, %s, %s", pm.radarID, pm.group, pm.product)
	}
	return fmt.Sprintf("%s, %s", pm.radarID, pm.group)
}

// Provider returns the owned data provider.
func (pm *ProviderManager) Provider() provider.DataProvider {
	return pm.provider
}

// RefreshEnabled reports whether periodic refresh is active.
func (pm *ProviderManager) RefreshEnabled() bool {
	pm.timerMu.Lock()
	defer pm.timerMu.Unlock()
	return pm.refreshEnabled
}

// EnableRefresh starts or stops the refresh cycle. Enabling an already
// enabled manager is a no-op; enabling an idle one issues an immediate
// refresh on a worker.
func (pm *ProviderManager) EnableRefresh(enabled bool) {
	pm.timerMu.Lock()
	changed := pm.refreshEnabled != enabled
	pm.refreshEnabled = enabled
	if !enabled && pm.refreshTimer != nil {
		pm.refreshTimer.Stop()
	}
	pm.timerMu.Unlock()

	if changed && enabled {
		go pm.refreshData()
	}
}

// Disable cancels the armed timer and stops refreshing. An in-flight
// refresh body completes but will not re-arm.
func (pm *ProviderManager) Disable() {
	pm.timerMu.Lock()
	pm.refreshEnabled = false
	if pm.refreshTimer != nil {
		pm.refreshTimer.Stop()
	}
	pm.timerMu.Unlock()
}

// refreshData is the refresh body. It runs on a worker goroutine; at
// most one body is in flight per manager.
func (pm *ProviderManager) refreshData() {
	logrus.Debugf("[%s] refreshing data", pm.Name())

	pm.timerMu.Lock()
	if pm.refreshTimer != nil {
		pm.refreshTimer.Stop()
	}
	pm.timerMu.Unlock()

	newObjects, totalObjects, err := pm.provider.Refresh()

	interval := retryInterval

	switch {
	case err != nil:
		logrus.Warnf("[%s] refresh failed: %v", pm.Name(), err)
		interval = pm.nextInterval()

	case newObjects > 0:
		key := pm.provider.FindLatestKey()
		latestTime, terr := pm.provider.TimePointByKey(key)

		interval = pm.nextInterval()

		if terr != nil {
			logrus.Warnf("[%s] latest key %q: %v", pm.Name(), key, terr)
		} else if pm.sink != nil {
			pm.sink(NewDataAvailable{
				Group:      pm.group,
				Product:    pm.product,
				LatestTime: latestTime,
			})
		}

	case totalObjects == 0:
		pm.timerMu.Lock()
		if pm.refreshEnabled {
			logrus.Infof("[%s] no data found, disabling refresh", pm.Name())
			pm.refreshEnabled = false
		}
		pm.timerMu.Unlock()

	default:
		// Nothing new, listing non-empty: keep pace with the update
		// period rather than the retry floor.
		interval = pm.nextInterval()
	}

	pm.timerMu.Lock()
	if pm.refreshEnabled {
		logrus.Debugf("[%s] scheduled refresh in %s", pm.Name(), interval)
		pm.refreshTimer = pm.clock.AfterFunc(interval, pm.refreshData)
	}
	pm.timerMu.Unlock()
}

// nextInterval is the time until the next object is expected,
// update period less the time already elapsed, floored at the retry
// interval.
func (pm *ProviderManager) nextInterval() time.Duration {
	interval := pm.provider.UpdatePeriod() - pm.clock.Since(pm.provider.LastModified())
	if interval < retryInterval {
		interval = retryInterval
	}
	return interval
}
