package provider

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/blakeridgway/supercell-wx/common"
	"github.com/blakeridgway/supercell-wx/wsr88d"
)

const gcsKeyTimeLayout = "20060102_1504"

// GcsLevel3DataProvider lists and loads NIDS products from the public
// realtime Level-III bucket. Objects live under
// NIDS/<site>/<product>/<site>_<yyyymmdd_hhmm>.
type GcsLevel3DataProvider struct {
	radarID string
	site    string // three character site id within the bucket
	product string
	bucket  *storage.BucketHandle
	clock   clockwork.Clock

	idx objectIndex

	productsMu sync.RWMutex
	products   []string
}

// NewGcsLevel3DataProvider connects without authentication to the given
// public bucket.
func NewGcsLevel3DataProvider(radarID, product, bucket string, clock clockwork.Clock) (*GcsLevel3DataProvider, error) {
	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", common.ErrProvider)
	}

	// Bucket paths use the three character site id (KLSX -> LSX).
	site := radarID
	if len(site) == 4 {
		site = site[1:]
	}

	return &GcsLevel3DataProvider{
		radarID: radarID,
		site:    site,
		product: product,
		bucket:  client.Bucket(bucket),
		clock:   clock,
	}, nil
}

func (p *GcsLevel3DataProvider) prefix() string {
	return "NIDS/" + p.site + "/" + p.product + "/"
}

// TimePointByKey parses the product time out of a key such as
// NIDS/LSX/N0B/LSX_20220330_0001.
func (p *GcsLevel3DataProvider) TimePointByKey(key string) (time.Time, error) {
	base := path.Base(key)
	i := strings.IndexByte(base, '_')
	if i < 0 {
		return time.Time{}, fmt.Errorf("key %q: %w", key, common.ErrMalformed)
	}

	t, err := time.Parse(gcsKeyTimeLayout, base[i+1:])
	if err != nil {
		return time.Time{}, fmt.Errorf("key %q: %w", key, common.ErrMalformed)
	}
	return t, nil
}

// Refresh rescans the product listing.
func (p *GcsLevel3DataProvider) Refresh() (int, int, error) {
	prefix := p.prefix()
	logrus.Debugf("[%s %s] listing objects: %s", p.radarID, p.product, prefix)

	it := p.bucket.Objects(context.Background(), &storage.Query{Prefix: prefix})

	newObjects := 0
	totalObjects := 0

	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, 0, fmt.Errorf("list objects %q: %w", prefix, common.ErrProvider)
		}

		t, err := p.TimePointByKey(attrs.Name)
		if err != nil {
			logrus.Tracef("skipping %q: %v", attrs.Name, err)
			continue
		}

		if p.idx.insert(t, attrs.Name, attrs.Updated) {
			newObjects++
		}
		totalObjects++
	}

	if newObjects > 0 {
		p.idx.markDate(p.clock.Now().UTC())
		p.idx.prune(p.clock.Now().UTC())
		p.idx.updateMetadata()
	}

	return newObjects, totalObjects, nil
}

func (p *GcsLevel3DataProvider) FindLatestKey() string {
	return p.idx.findLatestKey()
}

func (p *GcsLevel3DataProvider) FindKey(t time.Time) string {
	return p.idx.findKey(t)
}

// LoadObjectByKey fetches the object and decodes it.
func (p *GcsLevel3DataProvider) LoadObjectByKey(key string) (wsr88d.NexradFile, error) {
	reader, err := p.bucket.Object(key).NewReader(context.Background())
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", key, common.ErrProvider)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", key, common.ErrProvider)
	}

	return wsr88d.ParseLevel3(data)
}

func (p *GcsLevel3DataProvider) UpdatePeriod() time.Duration {
	return p.idx.getUpdatePeriod()
}

func (p *GcsLevel3DataProvider) LastModified() time.Time {
	return p.idx.getLastModified()
}

// RequestAvailableProducts lists the product directories under the site
// prefix.
func (p *GcsLevel3DataProvider) RequestAvailableProducts() {
	prefix := "NIDS/" + p.site + "/"

	it := p.bucket.Objects(context.Background(), &storage.Query{
		Prefix:    prefix,
		Delimiter: "/",
	})

	var products []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logrus.Errorf("[%s] list products: %v", p.radarID, err)
			return
		}
		if attrs.Prefix != "" {
			products = append(products, path.Base(strings.TrimSuffix(attrs.Prefix, "/")))
		}
	}

	p.productsMu.Lock()
	p.products = products
	p.productsMu.Unlock()
}

func (p *GcsLevel3DataProvider) AvailableProducts() []string {
	p.productsMu.RLock()
	defer p.productsMu.RUnlock()
	return append([]string(nil), p.products...)
}
