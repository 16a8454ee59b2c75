package awips

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPVtecParse(t *testing.T) {
	var v PVtec
	require.NoError(t, v.Parse("/O.NEW.KLSX.SV.W.0123.250101T0000Z-250101T0100Z/"))

	assert.Equal(t, "O", v.FixedIdentifier)
	assert.Equal(t, "NEW", v.Action)
	assert.Equal(t, "KLSX", v.OfficeID)
	assert.Equal(t, "SV", v.Phenomenon)
	assert.Equal(t, "W", v.Significance)
	assert.Equal(t, 123, v.EventTrackingNumber)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), v.EventBegin)
	assert.Equal(t, time.Date(2025, time.January, 1, 1, 0, 0, 0, time.UTC), v.EventEnd)
}

func TestPVtecParseUntilFurtherNotice(t *testing.T) {
	var v PVtec
	require.NoError(t, v.Parse("/O.CON.KEAX.FL.W.0001.000000T0000Z-000000T0000Z/"))

	assert.True(t, v.EventBegin.IsZero())
	assert.True(t, v.EventEnd.IsZero())
}

func TestPVtecParseErrors(t *testing.T) {
	var v PVtec
	assert.Error(t, v.Parse("/O.NEW.KLSX.SV.W/"))
	assert.Error(t, v.Parse("/O.NEW.KLSX.SV.W.ABCD.250101T0000Z-250101T0100Z/"))
	assert.Error(t, v.Parse("/O.NEW.KLSX.SV.W.0001.250101T0000Z/"))
}
