package provider

import (
	"sort"
	"sync"
	"time"
)

const (
	// Keep at least today, yesterday, and one more date before pruning.
	minDatesBeforePruning = 4
	maxObjects            = 2500
)

type objectRecord struct {
	time         time.Time
	key          string
	lastModified time.Time
}

// objectIndex is the time-ordered listing shared by the concrete
// providers: object start time to (key, last modified).
type objectIndex struct {
	mu      sync.RWMutex
	objects []objectRecord // sorted ascending by time
	dates   []time.Time    // listing dates, oldest first

	lastModified time.Time
	updatePeriod time.Duration
}

// insert adds or replaces the record at its time; it reports whether the
// time was newly seen.
func (idx *objectIndex) insert(t time.Time, key string, lastModified time.Time) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	i := sort.Search(len(idx.objects), func(i int) bool {
		return !idx.objects[i].time.Before(t)
	})

	if i < len(idx.objects) && idx.objects[i].time.Equal(t) {
		idx.objects[i].key = key
		idx.objects[i].lastModified = lastModified
		return false
	}

	idx.objects = append(idx.objects, objectRecord{})
	copy(idx.objects[i+1:], idx.objects[i:])
	idx.objects[i] = objectRecord{time: t, key: key, lastModified: lastModified}
	return true
}

// findLatestKey returns the newest key, or "".
func (idx *objectIndex) findLatestKey() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.objects) == 0 {
		return ""
	}
	return idx.objects[len(idx.objects)-1].key
}

// findKey returns the key of the greatest time less than or equal to t,
// or "".
func (idx *objectIndex) findKey(t time.Time) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i := sort.Search(len(idx.objects), func(i int) bool {
		return idx.objects[i].time.After(t)
	})
	if i == 0 {
		return ""
	}
	return idx.objects[i-1].key
}

// markDate records that a listing date has been scanned, moving it to
// the most-recent position.
func (idx *objectIndex) markDate(date time.Time) {
	day := date.Truncate(24 * time.Hour)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i, d := range idx.dates {
		if d.Equal(day) {
			idx.dates = append(idx.dates[:i], idx.dates[i+1:]...)
			break
		}
	}
	idx.dates = append(idx.dates, day)
}

// prune drops the oldest dates' objects once the index grows beyond
// maxObjects, always retaining yesterday and today.
func (idx *objectIndex) prune(now time.Time) {
	yesterday := now.Truncate(24 * time.Hour).Add(-24 * time.Hour)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i := 0; i < len(idx.dates) &&
		len(idx.objects) > maxObjects &&
		len(idx.dates) >= minDatesBeforePruning; {

		day := idx.dates[i]
		if !day.Before(yesterday) {
			i++
			continue
		}

		next := day.Add(24 * time.Hour)
		lo := sort.Search(len(idx.objects), func(j int) bool {
			return !idx.objects[j].time.Before(day)
		})
		hi := sort.Search(len(idx.objects), func(j int) bool {
			return !idx.objects[j].time.Before(next)
		})
		idx.objects = append(idx.objects[:lo], idx.objects[hi:]...)
		idx.dates = append(idx.dates[:i], idx.dates[i+1:]...)
	}
}

// updateMetadata recomputes lastModified and the update period from the
// two newest objects.
func (idx *objectIndex) updateMetadata() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(idx.objects) > 0 {
		idx.lastModified = idx.objects[len(idx.objects)-1].lastModified
	}
	if len(idx.objects) >= 2 {
		last := idx.objects[len(idx.objects)-1].lastModified
		prev := idx.objects[len(idx.objects)-2].lastModified
		idx.updatePeriod = last.Sub(prev).Truncate(time.Second)
	}
}

func (idx *objectIndex) getLastModified() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.lastModified
}

func (idx *objectIndex) getUpdatePeriod() time.Duration {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.updatePeriod
}

func (idx *objectIndex) size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.objects)
}
