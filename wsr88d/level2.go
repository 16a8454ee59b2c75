package wsr88d

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blakeridgway/supercell-wx/common"
)

// ElevationScan is the ordered set of radials collected at a single
// elevation cut.
type ElevationScan []*Message31

// Level2File wraps a decoded Archive II volume.
type Level2File struct {
	VolumeHeader VolumeHeaderRecord

	// ElevationScans is keyed by elevation number (1-based).
	ElevationScans map[int]ElevationScan

	// rdaStatus is the first RDA Status Data message seen, normally from
	// the metadata record.
	rdaStatus *RDAStatusData
}

// RadarID returns the ICAO of the radar that produced the volume.
func (f *Level2File) RadarID() string {
	return string(f.VolumeHeader.ICAO[:])
}

// StartTime returns the volume's valid time.
func (f *Level2File) StartTime() time.Time {
	return f.VolumeHeader.Date()
}

// Group identifies this file as a Level-II product.
func (f *Level2File) Group() common.RadarProductGroup {
	return common.Level2
}

// Product returns the empty string; Level-II volumes are not named
// products.
func (f *Level2File) Product() string {
	return ""
}

// RDAStatus returns the volume's RDA Status Data, or nil if the metadata
// record carried none.
func (f *Level2File) RDAStatus() *RDAStatusData {
	return f.rdaStatus
}

// ElevationCuts returns the elevation angle of each cut in the volume,
// ordered by elevation number.
func (f *Level2File) ElevationCuts() []float32 {
	numbers := make([]int, 0, len(f.ElevationScans))
	for n := range f.ElevationScans {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	cuts := make([]float32, 0, len(numbers))
	for _, n := range numbers {
		scan := f.ElevationScans[n]
		if len(scan) > 0 {
			cuts = append(cuts, scan[0].Header.ElevationAngle)
		}
	}
	return cuts
}

// GetElevationScan returns the scan whose elevation cut is nearest the
// requested elevation and contains the requested data moment, along with
// the chosen cut angle and all cut angles in the volume.
func (f *Level2File) GetElevationScan(dataName string, elevation float32, _ time.Time) (ElevationScan, float32, []float32) {
	cuts := f.ElevationCuts()

	var selected ElevationScan
	var selectedCut float32
	bestDelta := float32(math.MaxFloat32)

	numbers := make([]int, 0, len(f.ElevationScans))
	for n := range f.ElevationScans {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		scan := f.ElevationScans[n]
		if len(scan) == 0 || scan[0].MomentData(dataName) == nil {
			continue
		}

		cut := scan[0].Header.ElevationAngle
		delta := cut - elevation
		if delta < 0 {
			delta = -delta
		}
		if delta < bestDelta {
			bestDelta = delta
			selected = scan
			selectedCut = cut
		}
	}

	return selected, selectedCut, cuts
}

// ParseLevel2 decodes an uncompressed Archive II volume: a 24-byte
// volume header record followed by CTM-prefixed messages. Compressed
// (LDM bzip2) volumes are rejected.
func ParseLevel2(data []byte) (*Level2File, error) {
	r := bytes.NewReader(data)

	f := &Level2File{
		ElevationScans: make(map[int]ElevationScan),
	}

	if err := readBigEndian(r, &f.VolumeHeader); err != nil {
		return nil, err
	}
	logrus.Debug(f.VolumeHeader.Filename())

	// An LDM record control word followed by a bzip2 stream marks a
	// compressed volume.
	if pos := int(r.Size()) - r.Len(); pos+7 <= len(data) && bytes.Equal(data[pos+4:pos+7], []byte("BZh")) {
		return nil, fmt.Errorf("bzip2 compressed volume: %w", common.ErrUnsupported)
	}

	// Read until no more messages are available.
	for {
		// Eat 12 bytes due to legacy compliance of CTM header, these are
		// all set to nil.
		if _, err := io.CopyN(io.Discard, r, LegacyCTMHeaderLength); err != nil {
			break
		}

		var header MessageHeader
		if err := readBigEndian(r, &header); err != nil {
			break
		}

		logrus.Tracef("  message type %d (segments: %d size: %d)",
			header.MessageType, header.NumMessageSegments, header.MessageSize)

		switch header.MessageType {
		case 2:
			status := &RDAStatusData{}
			if err := readBigEndian(r, status); err != nil {
				return f, err
			}

			// Skip the rest of the fixed-length record.
			io.CopyN(io.Discard, r, DefaultMetadataRecordLength-LegacyCTMHeaderLength-16-74)

			if f.rdaStatus == nil {
				f.rdaStatus = status
			}

		case 31:
			m31, err := ParseMessage31(r)
			if err != nil {
				return f, err
			}

			elevation := int(m31.Header.ElevationNumber)
			f.ElevationScans[elevation] = append(f.ElevationScans[elevation], m31)

		default:
			// Not handled, skip the rest of the fixed-length record.
			if _, err := io.CopyN(io.Discard, r, DefaultMetadataRecordLength-LegacyCTMHeaderLength-16); err != nil {
				return f, nil
			}
		}
	}

	if len(f.ElevationScans) == 0 {
		return f, fmt.Errorf("volume contains no radials: %w", common.ErrTruncated)
	}

	return f, nil
}
