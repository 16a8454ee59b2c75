package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/blakeridgway/supercell-wx/common"
	"github.com/blakeridgway/supercell-wx/provider"
	"github.com/blakeridgway/supercell-wx/wsr88d"
)

// fakeNexradFile satisfies wsr88d.NexradFile for cache and load tests.
type fakeNexradFile struct {
	radarID string
	start   time.Time
	group   common.RadarProductGroup
	product string
}

func (f *fakeNexradFile) RadarID() string                 { return f.radarID }
func (f *fakeNexradFile) StartTime() time.Time            { return f.start }
func (f *fakeNexradFile) Group() common.RadarProductGroup { return f.group }
func (f *fakeNexradFile) Product() string                 { return f.product }

type refreshResult struct {
	newObjects   int
	totalObjects int
	err          error
}

// fakeProvider scripts provider behavior for the manager tests.
type fakeProvider struct {
	mu sync.Mutex

	// refreshResults are consumed in order; the last repeats.
	refreshResults []refreshResult
	refreshCalls   int

	// refreshGate, when set, blocks Refresh until closed.
	refreshGate chan struct{}

	latestKey    string
	latestTime   time.Time
	updatePeriod time.Duration
	lastModified time.Time

	loadFile  wsr88d.NexradFile
	loadCalls atomic.Int32
	loadDelay time.Duration

	products             []string
	requestProductsCalls atomic.Int32
}

var _ provider.DataProvider = (*fakeProvider)(nil)

func (p *fakeProvider) Refresh() (int, int, error) {
	if p.refreshGate != nil {
		<-p.refreshGate
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.refreshCalls++
	if len(p.refreshResults) == 0 {
		return 0, 0, nil
	}
	r := p.refreshResults[0]
	if len(p.refreshResults) > 1 {
		p.refreshResults = p.refreshResults[1:]
	}
	return r.newObjects, r.totalObjects, r.err
}

func (p *fakeProvider) refreshCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshCalls
}

func (p *fakeProvider) FindLatestKey() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latestKey
}

func (p *fakeProvider) FindKey(t time.Time) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latestKey == "" || t.Before(p.latestTime) {
		return ""
	}
	return p.latestKey
}

func (p *fakeProvider) TimePointByKey(string) (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latestTime, nil
}

func (p *fakeProvider) LoadObjectByKey(string) (wsr88d.NexradFile, error) {
	p.loadCalls.Add(1)
	if p.loadDelay > 0 {
		time.Sleep(p.loadDelay)
	}
	return p.loadFile, nil
}

func (p *fakeProvider) UpdatePeriod() time.Duration { return p.updatePeriod }
func (p *fakeProvider) LastModified() time.Time     { return p.lastModified }

func (p *fakeProvider) RequestAvailableProducts() {
	p.requestProductsCalls.Add(1)
}

func (p *fakeProvider) AvailableProducts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.products...)
}

// eventRecorder collects published events.
type eventRecorder struct {
	mu     sync.Mutex
	events []any
}

func (r *eventRecorder) sink(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) ofType(match func(any) bool) []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []any
	for _, e := range r.events {
		if match(e) {
			out = append(out, e)
		}
	}
	return out
}

func (r *eventRecorder) newDataAvailable() []NewDataAvailable {
	var out []NewDataAvailable
	for _, e := range r.ofType(func(e any) bool { _, ok := e.(NewDataAvailable); return ok }) {
		out = append(out, e.(NewDataAvailable))
	}
	return out
}
