package awips

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blakeridgway/supercell-wx/common"
)

// PVtec is a parsed Primary Valid Time Event Code string (NWSI 10-1703):
// /k.aaa.cccc.pp.s.####.yymmddThhnnZB-yymmddThhnnZE/
type PVtec struct {
	FixedIdentifier     string // product class: O, T, E or X
	Action              string // eg NEW, CON, CAN
	OfficeID            string
	Phenomenon          string // eg SV, TO, FF
	Significance        string // eg W, A, Y
	EventTrackingNumber int

	// EventBegin and EventEnd are zero when the corresponding group is
	// all zeros ("until further notice" / "ongoing").
	EventBegin time.Time
	EventEnd   time.Time
}

const vtecTimeLayout = "060102T1504Z"

func parseVtecTime(s string) (time.Time, error) {
	if s == "000000T0000Z" {
		return time.Time{}, nil
	}
	return time.Parse(vtecTimeLayout, s)
}

// Parse populates the PVtec from its string form.
func (v *PVtec) Parse(s string) error {
	trimmed := strings.Trim(strings.TrimSpace(s), "/")
	parts := strings.Split(trimmed, ".")
	if len(parts) != 7 {
		return fmt.Errorf("P-VTEC has %d groups: %w", len(parts), common.ErrMalformed)
	}

	v.FixedIdentifier = parts[0]
	v.Action = parts[1]
	v.OfficeID = parts[2]
	v.Phenomenon = parts[3]
	v.Significance = parts[4]

	etn, err := strconv.Atoi(parts[5])
	if err != nil {
		return fmt.Errorf("P-VTEC event tracking number %q: %w", parts[5], common.ErrMalformed)
	}
	v.EventTrackingNumber = etn

	times := strings.SplitN(parts[6], "-", 2)
	if len(times) != 2 {
		return fmt.Errorf("P-VTEC time group %q: %w", parts[6], common.ErrMalformed)
	}
	if v.EventBegin, err = parseVtecTime(times[0]); err != nil {
		return fmt.Errorf("P-VTEC begin time %q: %w", times[0], common.ErrMalformed)
	}
	if v.EventEnd, err = parseVtecTime(times[1]); err != nil {
		return fmt.Errorf("P-VTEC end time %q: %w", times[1], common.ErrMalformed)
	}

	return nil
}
