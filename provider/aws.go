package provider

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/blakeridgway/supercell-wx/common"
	"github.com/blakeridgway/supercell-wx/wsr88d"
)

const awsKeyTimeLayout = "20060102_150405"

// AwsLevel2DataProvider lists and loads Archive II volumes from the
// public NEXRAD Level-II bucket.
type AwsLevel2DataProvider struct {
	radarID string
	bucket  string
	svc     *s3.S3
	clock   clockwork.Clock

	idx objectIndex

	refreshMu   sync.Mutex
	refreshDate time.Time
}

// NewAwsLevel2DataProvider connects anonymously to the given bucket and
// region.
func NewAwsLevel2DataProvider(radarID, bucket, region string, clock clockwork.Clock) *AwsLevel2DataProvider {
	sess, _ := session.NewSession(&aws.Config{
		Credentials: credentials.AnonymousCredentials,
		Region:      aws.String(region),
	})

	return &AwsLevel2DataProvider{
		radarID: radarID,
		bucket:  bucket,
		svc:     s3.New(sess),
		clock:   clock,
	}
}

func (p *AwsLevel2DataProvider) prefix(date time.Time) string {
	return date.UTC().Format("2006/01/02/") + p.radarID
}

// TimePointByKey parses the volume start time out of a key such as
// 2022/03/30/KLSX/KLSX20220330_000123_V06.
func (p *AwsLevel2DataProvider) TimePointByKey(key string) (time.Time, error) {
	base := key
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if len(base) < len(p.radarID)+len(awsKeyTimeLayout) {
		return time.Time{}, fmt.Errorf("key %q: %w", key, common.ErrMalformed)
	}

	stamp := base[len(p.radarID) : len(p.radarID)+len(awsKeyTimeLayout)]
	t, err := time.Parse(awsKeyTimeLayout, stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("key %q: %w", key, common.ErrMalformed)
	}
	return t, nil
}

func (p *AwsLevel2DataProvider) listObjects(date time.Time) (int, int, error) {
	prefix := p.prefix(date)
	logrus.Debugf("[%s] listing objects: %s", p.radarID, prefix)

	resp, err := p.svc.ListObjectsV2(&s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("list objects %q: %w", prefix, common.ErrProvider)
	}

	newObjects := 0
	totalObjects := 0

	for _, object := range resp.Contents {
		key := aws.StringValue(object.Key)
		if strings.HasSuffix(key, "_MDM") {
			continue
		}

		t, err := p.TimePointByKey(key)
		if err != nil {
			logrus.Tracef("skipping %q: %v", key, err)
			continue
		}

		if p.idx.insert(t, key, aws.TimeValue(object.LastModified)) {
			newObjects++
		}
		totalObjects++
	}

	if newObjects > 0 {
		p.idx.markDate(date.UTC())
		p.idx.prune(p.clock.Now().UTC())
		p.idx.updateMetadata()
	}

	return newObjects, totalObjects, nil
}

// Refresh rescans the listing. If no object from today has been seen
// yet, yesterday is listed first to catch objects near midnight.
func (p *AwsLevel2DataProvider) Refresh() (int, int, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	today := p.clock.Now().UTC().Truncate(24 * time.Hour)
	yesterday := today.Add(-24 * time.Hour)

	allNew := 0
	allTotal := 0

	if p.refreshDate.Before(today) {
		newObjects, totalObjects, err := p.listObjects(yesterday)
		if err != nil {
			return 0, 0, err
		}
		allNew += newObjects
		allTotal += totalObjects
		if totalObjects > 0 {
			p.refreshDate = yesterday
		}
	}

	newObjects, totalObjects, err := p.listObjects(today)
	if err != nil {
		return 0, 0, err
	}
	allNew += newObjects
	allTotal += totalObjects
	if totalObjects > 0 {
		p.refreshDate = today
	}

	return allNew, allTotal, nil
}

func (p *AwsLevel2DataProvider) FindLatestKey() string {
	return p.idx.findLatestKey()
}

func (p *AwsLevel2DataProvider) FindKey(t time.Time) string {
	return p.idx.findKey(t)
}

// LoadObjectByKey fetches the object and decodes it.
func (p *AwsLevel2DataProvider) LoadObjectByKey(key string) (wsr88d.NexradFile, error) {
	resp, err := p.svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", key, common.ErrProvider)
	}
	defer resp.Body.Close()

	return wsr88d.NewNexradFile(resp.Body)
}

func (p *AwsLevel2DataProvider) UpdatePeriod() time.Duration {
	return p.idx.getUpdatePeriod()
}

func (p *AwsLevel2DataProvider) LastModified() time.Time {
	return p.idx.getLastModified()
}

// RequestAvailableProducts is a no-op; Level-II has no named products.
func (p *AwsLevel2DataProvider) RequestAvailableProducts() {}

func (p *AwsLevel2DataProvider) AvailableProducts() []string {
	return nil
}
