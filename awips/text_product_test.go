package awips

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextProductSingleSegment(t *testing.T) {
	input := "<WMO>\r\r\n" +
		"MOC189-\r\r\n" +
		"/O.NEW.KLSX.SV.W.0001.250101T0000Z-250101T0100Z/\r\r\n" +
		"1200 PM CST MON JAN 01 2025\r\r\n" +
		"BODY\r\r\n" +
		"$$\r\r\n" +
		"\x03"

	msg, err := ParseTextProduct(strings.NewReader(input))
	require.NoError(t, err)

	require.NotNil(t, msg.WmoHeader)
	assert.Equal(t, "<WMO>", msg.WmoHeader.DataType)

	require.Len(t, msg.Segments, 1)
	segment := msg.Segments[0]

	require.NotNil(t, segment.Header)
	assert.Equal(t, "MOC189-", segment.Header.UgcString)
	require.Len(t, segment.Header.Vtecs, 1)

	vtec := segment.Header.Vtecs[0]
	assert.Equal(t, "NEW", vtec.PVtec.Action)
	assert.Equal(t, "KLSX", vtec.PVtec.OfficeID)
	assert.Equal(t, "SV", vtec.PVtec.Phenomenon)
	assert.Equal(t, "W", vtec.PVtec.Significance)
	assert.Empty(t, vtec.HVtec)

	assert.Equal(t, "1200 PM CST MON JAN 01 2025", segment.Header.IssuanceDateTime)
	assert.Equal(t, []string{"BODY"}, segment.ProductContent)
}

func TestParseTextProductMndHeader(t *testing.T) {
	input := "<WMO>\r\r\n" +
		"SVRLSX\r\r\n" +
		"\r\r\n" +
		"BULLETIN - IMMEDIATE BROADCAST REQUESTED\r\r\n" +
		"SEVERE THUNDERSTORM WARNING\r\r\n" +
		"NATIONAL WEATHER SERVICE ST LOUIS MO\r\r\n" +
		"1200 PM CST MON JAN 01 2025\r\r\n" +
		"\r\r\n" +
		"CONTENT LINE\r\r\n" +
		"\x03"

	msg, err := ParseTextProduct(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "SVRLSX", msg.WmoHeader.ProductID)

	require.Len(t, msg.MndHeader, 4)
	assert.Equal(t, "1200 PM CST MON JAN 01 2025", msg.MndHeader[3])

	require.Len(t, msg.Segments, 1)
	assert.Nil(t, msg.Segments[0].Header)
	assert.Equal(t, []string{"CONTENT LINE"}, msg.Segments[0].ProductContent)
}

func TestMndHeaderRejectedWithoutIssuanceLine(t *testing.T) {
	input := "<WMO>\r\r\n" +
		"NOT A DATE LINE\r\r\n" +
		"ANOTHER LINE\r\r\n" +
		"\x03"

	msg, err := ParseTextProduct(strings.NewReader(input))
	require.NoError(t, err)

	// The candidate lines are not an MND header; they must be product
	// content instead.
	assert.Empty(t, msg.MndHeader)
	require.Len(t, msg.Segments, 1)
	assert.Equal(t, []string{"NOT A DATE LINE", "ANOTHER LINE"}, msg.Segments[0].ProductContent)
}

func TestParseTextProductVtecPair(t *testing.T) {
	input := "<WMO>\r\r\n" +
		"MOC189-MOC510-\r\r\n" +
		"/O.NEW.KLSX.FF.W.0007.250101T0000Z-250101T0600Z/\r\r\n" +
		"/00000.N.ER.000000T0000Z.000000T0000Z.000000T0000Z.OO/\r\r\n" +
		"/O.CON.KLSX.SV.W.0002.000000T0000Z-250101T0100Z/\r\r\n" +
		"1200 PM CST MON JAN 01 2025\r\r\n" +
		"FLOOD TEXT\r\r\n" +
		"$$\r\r\n" +
		"\x03"

	msg, err := ParseTextProduct(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, msg.Segments, 1)
	header := msg.Segments[0].Header
	require.NotNil(t, header)
	require.Len(t, header.Vtecs, 2)

	assert.Equal(t, "FF", header.Vtecs[0].PVtec.Phenomenon)
	assert.Equal(t, "/00000.N.ER.000000T0000Z.000000T0000Z.000000T0000Z.OO/", header.Vtecs[0].HVtec)

	assert.Equal(t, "SV", header.Vtecs[1].PVtec.Phenomenon)
	assert.Empty(t, header.Vtecs[1].HVtec)
	assert.True(t, header.Vtecs[1].PVtec.EventBegin.IsZero())
}

func TestParseTextProductMultipleSegments(t *testing.T) {
	input := "<WMO>\r\r\n" +
		"MOZ001-\r\r\n" +
		"1200 PM CST MON JAN 01 2025\r\r\n" +
		"FIRST SEGMENT\r\r\n" +
		"$$\r\r\n" +
		"ILZ010-\r\r\n" +
		"1200 PM CST MON JAN 01 2025\r\r\n" +
		"SECOND SEGMENT\r\r\n" +
		"$$\r\r\n" +
		"FORECASTER NAME\r\r\n" +
		"\x03"

	msg, err := ParseTextProduct(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, msg.Segments, 2)
	assert.Equal(t, "MOZ001-", msg.Segments[0].Header.UgcString)
	assert.Equal(t, []string{"FIRST SEGMENT"}, msg.Segments[0].ProductContent)
	assert.Equal(t, "ILZ010-", msg.Segments[1].Header.UgcString)
	assert.Equal(t, []string{"SECOND SEGMENT"}, msg.Segments[1].ProductContent)
}

func TestUgcKeying(t *testing.T) {
	assert.True(t, reUgcString.MatchString("MOC189-"))
	assert.True(t, reUgcString.MatchString("MOZ001>005-"))
	assert.True(t, reUgcString.MatchString("ILZ>"))
	assert.False(t, reUgcString.MatchString("KSTL-"))
	assert.False(t, reUgcString.MatchString("MOC189"))
}

func TestThreatCategoryScan(t *testing.T) {
	segment := &Segment{ProductContent: []string{
		"HAIL THREAT...RADAR INDICATED",
		"TORNADO DAMAGE THREAT...CONSIDERABLE",
	}}
	assert.Equal(t, ThreatCategoryConsiderable, segment.ThreatCategory())

	segment = &Segment{ProductContent: []string{"NO TAGS HERE"}}
	assert.Equal(t, ThreatCategoryBase, segment.ThreatCategory())

	assert.Equal(t, ThreatCategoryDestructive, GetThreatCategory("DESTRUCTIVE"))
	assert.Equal(t, ThreatCategoryUnknown, GetThreatCategory("IMPOSSIBLE"))
	assert.Equal(t, "CATASTROPHIC", GetThreatCategoryName(ThreatCategoryCatastrophic))
}
