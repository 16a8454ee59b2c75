package manager

import (
	"sort"
	"time"

	"github.com/blakeridgway/supercell-wx/common"
	"github.com/blakeridgway/supercell-wx/wsr88d"
)

// RadarProductRecord is an immutable decoded product held by the record
// caches.
type RadarProductRecord struct {
	time    time.Time
	group   common.RadarProductGroup
	product string
	radarID string
	file    wsr88d.NexradFile
}

// NewRadarProductRecord wraps a decoded file, deriving the record's
// time, group, product and radar id from it.
func NewRadarProductRecord(file wsr88d.NexradFile) *RadarProductRecord {
	return &RadarProductRecord{
		time:    file.StartTime(),
		group:   file.Group(),
		product: file.Product(),
		radarID: file.RadarID(),
		file:    file,
	}
}

func (r *RadarProductRecord) Time() time.Time                 { return r.time }
func (r *RadarProductRecord) Group() common.RadarProductGroup { return r.group }
func (r *RadarProductRecord) Product() string                 { return r.product }
func (r *RadarProductRecord) RadarID() string                 { return r.radarID }
func (r *RadarProductRecord) File() wsr88d.NexradFile         { return r.file }

// Level2File returns the record's file as a Level-II volume, or nil.
func (r *RadarProductRecord) Level2File() *wsr88d.Level2File {
	f, _ := r.file.(*wsr88d.Level2File)
	return f
}

// Level3File returns the record's file as a Level-III product, or nil.
func (r *RadarProductRecord) Level3File() *wsr88d.Level3File {
	f, _ := r.file.(*wsr88d.Level3File)
	return f
}

type recordEntry struct {
	time   time.Time
	record *RadarProductRecord
}

// radarProductRecordMap is an ordered map from seconds-truncated time to
// record. Callers synchronize access with the owning manager's record
// lock.
type radarProductRecordMap struct {
	entries []recordEntry // sorted ascending by time
}

// get returns the record at exactly t (seconds-truncated), or nil.
func (m *radarProductRecordMap) get(t time.Time) *RadarProductRecord {
	key := t.Truncate(time.Second)
	i := sort.Search(len(m.entries), func(i int) bool {
		return !m.entries[i].time.Before(key)
	})
	if i < len(m.entries) && m.entries[i].time.Equal(key) {
		return m.entries[i].record
	}
	return nil
}

// getBounded returns the record with the greatest time less than or
// equal to t, or nil.
func (m *radarProductRecordMap) getBounded(t time.Time) *RadarProductRecord {
	key := t.Truncate(time.Second)
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].time.After(key)
	})
	if i == 0 {
		return nil
	}
	return m.entries[i-1].record
}

// latest returns the newest record, or nil.
func (m *radarProductRecordMap) latest() *RadarProductRecord {
	if len(m.entries) == 0 {
		return nil
	}
	return m.entries[len(m.entries)-1].record
}

func (m *radarProductRecordMap) empty() bool {
	return len(m.entries) == 0
}

// store inserts the record keyed by its seconds-truncated time. When a
// record already exists at that second, the existing record is returned
// and the new one discarded.
func (m *radarProductRecordMap) store(record *RadarProductRecord) *RadarProductRecord {
	key := record.Time().Truncate(time.Second)
	i := sort.Search(len(m.entries), func(i int) bool {
		return !m.entries[i].time.Before(key)
	})
	if i < len(m.entries) && m.entries[i].time.Equal(key) {
		return m.entries[i].record
	}

	m.entries = append(m.entries, recordEntry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = recordEntry{time: key, record: record}
	return record
}
