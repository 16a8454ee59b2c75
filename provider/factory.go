package provider

import (
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	defaultLevel2Bucket = "noaa-nexrad-level2"
	defaultLevel2Region = "us-east-1"
	defaultLevel3Bucket = "gcp-public-data-nexrad-l3-realtime"
)

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewLevel2DataProvider creates a provider for the site's Archive II
// volumes. The bucket and region can be overridden with
// SCWX_LEVEL2_BUCKET and SCWX_LEVEL2_REGION.
func NewLevel2DataProvider(radarID string) DataProvider {
	return NewAwsLevel2DataProvider(
		radarID,
		envOrDefault("SCWX_LEVEL2_BUCKET", defaultLevel2Bucket),
		envOrDefault("SCWX_LEVEL2_REGION", defaultLevel2Region),
		clockwork.NewRealClock(),
	)
}

// NewLevel3DataProvider creates a provider for one of the site's NIDS
// products. The bucket can be overridden with SCWX_LEVEL3_BUCKET.
func NewLevel3DataProvider(radarID, product string) DataProvider {
	p, err := NewGcsLevel3DataProvider(
		radarID,
		product,
		envOrDefault("SCWX_LEVEL3_BUCKET", defaultLevel3Bucket),
		clockwork.NewRealClock(),
	)
	if err != nil {
		logrus.Errorf("[%s %s] level 3 provider unavailable: %v", radarID, product, err)
		return nil
	}
	return p
}
