package manager

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blakeridgway/supercell-wx/common"
)

const eventually = 2 * time.Second

func TestProviderManagerName(t *testing.T) {
	pm := newProviderManager("KLSX", common.Level2, "", &fakeProvider{}, clockwork.NewFakeClock(), nil)
	assert.Equal(t, "KLSX, L2", pm.Name())

	pm = newProviderManager("KLSX", common.Level3, "N0B", &fakeProvider{}, clockwork.NewFakeClock(), nil)
	assert.Equal(t, "KLSX, L3, N0B", pm.Name())
}

func TestRefreshPublishesNewDataAndReschedules(t *testing.T) {
	clock := clockwork.NewFakeClock()
	latest := clock.Now().Add(-time.Minute)

	prov := &fakeProvider{
		refreshResults: []refreshResult{{newObjects: 3, totalObjects: 10}},
		latestKey:      "KLSX20220330_000123_V06",
		latestTime:     latest,
		updatePeriod:   5 * time.Minute,
		lastModified:   clock.Now().Add(-time.Minute),
	}

	events := &eventRecorder{}
	pm := newProviderManager("KLSX", common.Level2, "", prov, clock, events.sink)

	pm.EnableRefresh(true)

	require.Eventually(t, func() bool {
		return len(events.newDataAvailable()) == 1
	}, eventually, time.Millisecond)

	e := events.newDataAvailable()[0]
	assert.Equal(t, common.Level2, e.Group)
	assert.Empty(t, e.Product)
	assert.Equal(t, latest, e.LatestTime)

	// The timer is armed for update period less elapsed time (4 min);
	// advancing past it drives the next refresh.
	clock.BlockUntil(1)
	clock.Advance(4*time.Minute + time.Second)

	require.Eventually(t, func() bool {
		return prov.refreshCount() == 2
	}, eventually, time.Millisecond)
}

func TestRefreshEmptyListingDisablesPermanently(t *testing.T) {
	clock := clockwork.NewFakeClock()
	prov := &fakeProvider{
		refreshResults: []refreshResult{{newObjects: 0, totalObjects: 0}},
	}

	events := &eventRecorder{}
	pm := newProviderManager("KLSX", common.Level3, "N0B", prov, clock, events.sink)

	pm.EnableRefresh(true)

	require.Eventually(t, func() bool {
		return !pm.RefreshEnabled()
	}, eventually, time.Millisecond)

	assert.Empty(t, events.newDataAvailable())
	assert.Equal(t, 1, prov.refreshCount())

	// No timer was armed: advancing time drives nothing.
	clock.Advance(time.Hour)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, prov.refreshCount())

	// A later enable re-enters the cycle.
	pm.EnableRefresh(true)
	require.Eventually(t, func() bool {
		return prov.refreshCount() == 2
	}, eventually, time.Millisecond)
}

func TestEnableThenImmediateDisable(t *testing.T) {
	clock := clockwork.NewFakeClock()
	gate := make(chan struct{})
	prov := &fakeProvider{
		refreshResults: []refreshResult{{newObjects: 0, totalObjects: 10}},
		refreshGate:    gate,
	}

	events := &eventRecorder{}
	pm := newProviderManager("KLSX", common.Level2, "", prov, clock, events.sink)

	pm.EnableRefresh(true)
	pm.EnableRefresh(false)
	close(gate)

	require.Eventually(t, func() bool {
		return prov.refreshCount() == 1
	}, eventually, time.Millisecond)

	assert.False(t, pm.RefreshEnabled())
	assert.Empty(t, events.newDataAvailable())

	// The in-flight body must not have re-armed the timer.
	clock.Advance(time.Hour)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, prov.refreshCount())
}

func TestEnableRefreshIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	gate := make(chan struct{})
	prov := &fakeProvider{
		refreshResults: []refreshResult{{newObjects: 0, totalObjects: 10}},
		refreshGate:    gate,
	}

	pm := newProviderManager("KLSX", common.Level2, "", prov, clock, nil)

	pm.EnableRefresh(true)
	pm.EnableRefresh(true)
	pm.EnableRefresh(true)
	close(gate)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, prov.refreshCount())
}

func TestSteadyStateRefreshUsesUpdatePeriod(t *testing.T) {
	clock := clockwork.NewFakeClock()
	prov := &fakeProvider{
		refreshResults: []refreshResult{{newObjects: 0, totalObjects: 10}},
		updatePeriod:   10 * time.Minute,
		lastModified:   clock.Now().Add(-2 * time.Minute),
	}

	pm := newProviderManager("KLSX", common.Level2, "", prov, clock, nil)
	pm.EnableRefresh(true)

	require.Eventually(t, func() bool {
		return prov.refreshCount() == 1
	}, eventually, time.Millisecond)

	// Nothing new and a non-empty listing: the timer is armed for
	// update period less elapsed time (8 min), not the 15 second floor.
	clock.BlockUntil(1)
	clock.Advance(7 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, prov.refreshCount())

	clock.Advance(time.Minute + time.Second)
	require.Eventually(t, func() bool {
		return prov.refreshCount() == 2
	}, eventually, time.Millisecond)

	pm.Disable()
}

func TestRefreshFailureRetries(t *testing.T) {
	clock := clockwork.NewFakeClock()
	prov := &fakeProvider{
		refreshResults: []refreshResult{
			{err: assert.AnError},
			{newObjects: 0, totalObjects: 10},
		},
	}

	pm := newProviderManager("KLSX", common.Level2, "", prov, clock, nil)
	pm.EnableRefresh(true)

	require.Eventually(t, func() bool {
		return prov.refreshCount() == 1
	}, eventually, time.Millisecond)
	assert.True(t, pm.RefreshEnabled())

	// The retry fires after the 15 second floor.
	clock.BlockUntil(1)
	clock.Advance(retryInterval + time.Second)

	require.Eventually(t, func() bool {
		return prov.refreshCount() == 2
	}, eventually, time.Millisecond)

	pm.Disable()
}
