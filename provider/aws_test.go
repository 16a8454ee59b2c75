package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blakeridgway/supercell-wx/common"
)

func TestAwsTimePointByKey(t *testing.T) {
	p := NewAwsLevel2DataProvider("KLSX", "noaa-nexrad-level2", "us-east-1", clockwork.NewFakeClock())

	got, err := p.TimePointByKey("2025/01/01/KLSX/KLSX20250101_120345_V06")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 1, 12, 3, 45, 0, time.UTC), got)

	_, err = p.TimePointByKey("2025/01/01/KLSX/bogus")
	assert.True(t, errors.Is(err, common.ErrMalformed))

	_, err = p.TimePointByKey("short")
	assert.True(t, errors.Is(err, common.ErrMalformed))
}

func TestAwsPrefix(t *testing.T) {
	p := NewAwsLevel2DataProvider("KLSX", "noaa-nexrad-level2", "us-east-1", clockwork.NewFakeClock())

	date := time.Date(2025, time.January, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2025/01/01/KLSX", p.prefix(date))
}

func TestGcsTimePointByKey(t *testing.T) {
	p := &GcsLevel3DataProvider{radarID: "KLSX", site: "LSX", product: "N0B"}

	got, err := p.TimePointByKey("NIDS/LSX/N0B/LSX_20250101_1203")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 1, 12, 3, 0, 0, time.UTC), got)

	_, err = p.TimePointByKey("NIDS/LSX/N0B/bogus")
	assert.True(t, errors.Is(err, common.ErrMalformed))

	assert.Equal(t, "NIDS/LSX/N0B/", p.prefix())
}
