package provider

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectIndexInsertAndFind(t *testing.T) {
	var idx objectIndex
	t0 := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, idx.insert(t0.Add(10*time.Minute), "b", t0.Add(11*time.Minute)))
	assert.True(t, idx.insert(t0, "a", t0.Add(time.Minute)))
	assert.True(t, idx.insert(t0.Add(20*time.Minute), "c", t0.Add(21*time.Minute)))

	// Re-inserting an existing time is not new.
	assert.False(t, idx.insert(t0, "a2", t0.Add(time.Minute)))

	assert.Equal(t, "c", idx.findLatestKey())
	assert.Equal(t, "a2", idx.findKey(t0))
	assert.Equal(t, "a2", idx.findKey(t0.Add(5*time.Minute)))
	assert.Equal(t, "b", idx.findKey(t0.Add(10*time.Minute)))
	assert.Equal(t, "c", idx.findKey(t0.Add(time.Hour)))
	assert.Empty(t, idx.findKey(t0.Add(-time.Second)))
}

func TestObjectIndexMetadata(t *testing.T) {
	var idx objectIndex
	t0 := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	idx.insert(t0, "a", t0.Add(4*time.Minute))
	idx.insert(t0.Add(5*time.Minute), "b", t0.Add(9*time.Minute))
	idx.updateMetadata()

	assert.Equal(t, t0.Add(9*time.Minute), idx.getLastModified())
	assert.Equal(t, 5*time.Minute, idx.getUpdatePeriod())
}

func TestObjectIndexPrune(t *testing.T) {
	var idx objectIndex
	now := time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)

	// Four dates of objects, the two oldest well beyond yesterday.
	for day := 0; day < 4; day++ {
		date := now.Truncate(24 * time.Hour).Add(-time.Duration(3-day) * 24 * time.Hour)
		for i := 0; i < 700; i++ {
			key := fmt.Sprintf("obj-%d-%d", day, i)
			idx.insert(date.Add(time.Duration(i)*time.Minute), key, date)
		}
		idx.markDate(date)
	}

	assert.Equal(t, 2800, idx.size())

	idx.prune(now)

	// The oldest date is dropped to come under the cap; today and
	// yesterday always survive.
	assert.Equal(t, 2100, idx.size())
	assert.Contains(t, idx.findLatestKey(), "obj-3-")
}
