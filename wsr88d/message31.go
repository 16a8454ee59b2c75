package wsr88d

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blakeridgway/supercell-wx/common"
)

// Message31Header is the non-data portion of Message 31 (User 3.2.4.17)
type Message31Header struct {
	RadarIdentifier          [4]byte // ICAO (eg KMPX for Minneapolis)
	CollectionTime           uint32  // Radial data collection time in milliseconds past midnight GMT
	ModifiedJulianDate       uint16  // Current Julian date - 2440586.5
	AzimuthNumber            uint16  // Radial number within elevation scan
	AzimuthAngle             float32 // Azimuth angle at which radial data was collected
	CompressionIndicator     uint8   // Indicates if message type 31 is compressed and what method of compression is used. The Data Header Block is not compressed.
	Spare                    uint8   // unused
	RadialLength             uint16  // Uncompressed length of the radial in bytes including the Data Header block length
	AzimuthResolutionSpacing uint8   // Code for the azimuthal spacing between adjacent radials. 1 = .5 degrees, 2 = 1 degree
	RadialStatus             uint8   // Radial status
	ElevationNumber          uint8   // Elevation number within volume scan
	CutSectorNumber          uint8   // Sector number within cut
	ElevationAngle           float32 // Elevation angle at which radial radar data was collected
	RadialSpotBlankingStatus uint8   // Spot blanking status for current radial, elevation scan and volume scan
	AzimuthIndexingMode      uint8   // Azimuth indexing value (set if azimuth angle is keyed to constant angles)
	DataBlockCount           uint16  // Number of data blocks used
}

func (h Message31Header) String() string {
	return fmt.Sprintf("Message 31 - %s @ %v deg=%.2f tilt=%.2f",
		string(h.RadarIdentifier[:]),
		h.Date(),
		h.AzimuthAngle,
		h.ElevationAngle,
	)
}

// Date and time this radial is valid for
func (h Message31Header) Date() time.Time {
	return time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(h.ModifiedJulianDate-1) * time.Hour * 24).
		Add(time.Duration(h.CollectionTime) * time.Millisecond)
}

// Message31 - Digital Radar Data Generic Format (User 3.2.4.17)
type Message31 struct {
	Header            Message31Header
	DataBlockPointers []uint32

	VolumeData    *VolumeDataBlock
	ElevationData *ElevationDataBlock
	RadialData    *RadialDataBlock
	REFData       *MomentDataBlock
	VELData       *MomentDataBlock
	SWData        *MomentDataBlock
	ZDRData       *MomentDataBlock
	PHIData       *MomentDataBlock
	RHOData       *MomentDataBlock
	CFPData       *MomentDataBlock
}

// AzimuthResolutionSpacing returns the spacing in degrees
func (m *Message31) AzimuthResolutionSpacing() float32 {
	if m.Header.AzimuthResolutionSpacing == 1 {
		return 0.5
	}
	return 1
}

// MomentData returns the moment block with the given data name ("REF",
// "VEL", "SW ", "ZDR", "PHI", "RHO", "CFP"), or nil if absent.
func (m *Message31) MomentData(dataName string) *MomentDataBlock {
	switch dataName {
	case "REF":
		return m.REFData
	case "VEL":
		return m.VELData
	case "SW ":
		return m.SWData
	case "ZDR":
		return m.ZDRData
	case "PHI":
		return m.PHIData
	case "RHO":
		return m.RHOData
	case "CFP":
		return m.CFPData
	}
	return nil
}

// dataBlockHeader is found at the top of every data block (User 3.2.4.17)
type dataBlockHeader struct {
	DataBlockType [1]byte
	DataName      [3]byte
}

// momentFields is the fixed-layout portion of a moment block following
// the data block header (User 3.2.4.17.2)
type momentFields struct {
	Reserved            uint32
	NumberOfGates       uint16  // Number of data moment gates for current radial
	Range               uint16  // Range to center of first range gate
	RangeSampleInterval uint16  // Size of data moment sample interval
	TOVER               uint16  // Threshold parameter for "overlayed" labeling
	SNRThreshold        int16   // SNR threshold for valid data
	ControlFlags        uint8   // Indicates special control features
	DataWordSize        uint8   // Number of bits used for storing data for each gate
	Scale               float32 // Scale value used to convert data moments from integer to floating point data
	Offset              float32 // Offset value used to convert data moments from integer to floating point data
}

// MomentDataBlock wraps a single data moment. ex: REF, VEL, SW data.
// Data interpretation provided by User 3.2.4.17.6.
type MomentDataBlock struct {
	DataBlockType string
	DataName      string

	NumberOfGates       uint16
	Range               uint16
	RangeSampleInterval uint16
	TOVER               uint16
	SNRThreshold        int16
	ControlFlags        uint8
	DataWordSize        uint8
	Scale               float32
	Offset              float32

	// At most one of these is populated, keyed by DataWordSize: Gates8 for
	// 8-bit words, Gates16 for 16-bit words. Neither is populated for any
	// other word size or when NumberOfGates exceeds MaxDataMomentGates.
	Gates8  []uint8
	Gates16 []uint16
}

const (
	// MomentDataBelowThreshold is the scaled sentinel for gate value 0
	MomentDataBelowThreshold = 999

	// MomentDataFolded is the scaled sentinel for gate value 1
	MomentDataFolded = 998
)

// ScaledData converts the moment gate values to their actual values,
// F = (N - offset) / scale. N = 0 indicates the received signal is below
// threshold and N = 1 indicates range folded data.
func (d *MomentDataBlock) ScaledData() []float32 {
	n := len(d.Gates8)
	if d.DataWordSize == 16 {
		n = len(d.Gates16)
	}
	scaled := make([]float32, 0, n)
	for i := 0; i < n; i++ {
		var raw uint16
		if d.DataWordSize == 16 {
			raw = d.Gates16[i]
		} else {
			raw = uint16(d.Gates8[i])
		}
		scaled = append(scaled, scaleUint(raw, d.Offset, d.Scale))
	}
	return scaled
}

func scaleUint(n uint16, offset, scale float32) float32 {
	switch n {
	case 0:
		return MomentDataBelowThreshold
	case 1:
		return MomentDataFolded
	}
	// A scale of 0 indicates floating point moment data for each gate.
	if scale == 0 {
		return float32(n)
	}
	return (float32(n) - offset) / scale
}

// VolumeDataBlock wraps information about the volume being extracted
// (User 3.2.4.17.3)
type VolumeDataBlock struct {
	LRTUP                          uint16 // Size of data block in bytes
	VersionMajor                   uint8
	VersionMinor                   uint8
	Latitude                       float32
	Longitude                      float32
	SiteHeight                     int16
	FeedhornHeight                 uint16
	CalibrationConstant            float32
	SHVTxPowerHorizontal           float32
	SHVTxPowerVertical             float32
	SystemDifferentialReflectivity float32
	InitialSystemDifferentialPhase float32
	VolumeCoveragePatternNumber    uint16
	ProcessingStatus               uint16
}

// ElevationDataBlock wraps Message 31 elevation data (User 3.2.4.17.4)
type ElevationDataBlock struct {
	LRTUP               uint16 // Size of data block in bytes
	ATMOS               int16  // Atmospheric attenuation factor
	CalibrationConstant float32
}

// RadialDataBlock wraps Message 31 radial data (User 3.2.4.17.5)
type RadialDataBlock struct {
	LRTUP                         uint16 // Size of data block in bytes
	UnambiguousRange              uint16
	NoiseLevelHorizontal          float32
	NoiseLevelVertical            float32
	NyquistVelocity               uint16
	RadialFlags                   uint16
	CalibrationConstantHorizontal float32
	CalibrationConstantVertical   float32
}

// ParseMessage31 decodes a Digital Radar Data message from the current
// stream position. The stream is left positioned at the end of the
// message on success. On failure a partially populated message is
// returned alongside the error.
func ParseMessage31(r io.ReadSeeker) (*Message31, error) {
	logrus.Trace("parsing Digital Radar Data (Message Type 31)")

	begin, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	m := &Message31{}
	if err := readBigEndian(r, &m.Header); err != nil {
		return m, err
	}

	if m.Header.DataBlockCount < 4 || m.Header.DataBlockCount > 10 {
		count := m.Header.DataBlockCount
		m.Header.DataBlockCount = 0
		return m, fmt.Errorf("data block count %d: %w", count, common.ErrMalformed)
	}
	if m.Header.CompressionIndicator != 0 {
		m.Header.DataBlockCount = 0
		return m, fmt.Errorf("compressed radial: %w", common.ErrUnsupported)
	}

	m.DataBlockPointers = make([]uint32, m.Header.DataBlockCount)
	if err := readBigEndian(r, &m.DataBlockPointers); err != nil {
		return m, err
	}

	for _, pointer := range m.DataBlockPointers {
		if pointer >= uint32(m.Header.RadialLength) {
			return m, fmt.Errorf("data block pointer %d beyond radial length %d: %w",
				pointer, m.Header.RadialLength, common.ErrMalformed)
		}

		if _, err := r.Seek(begin+int64(pointer), io.SeekStart); err != nil {
			return m, err
		}

		var bh dataBlockHeader
		if err := readBigEndian(r, &bh); err != nil {
			return m, err
		}

		blockType := string(bh.DataBlockType[:])
		dataName := string(bh.DataName[:])

		switch dataName {
		case "VOL":
			m.VolumeData = &VolumeDataBlock{}
			err = readBigEndian(r, m.VolumeData)
		case "ELV":
			m.ElevationData = &ElevationDataBlock{}
			err = readBigEndian(r, m.ElevationData)
		case "RAD":
			m.RadialData = &RadialDataBlock{}
			err = readBigEndian(r, m.RadialData)
		case "REF", "VEL", "SW ", "ZDR", "PHI", "RHO", "CFP":
			var moment *MomentDataBlock
			moment, err = parseMomentDataBlock(r, blockType, dataName)
			if err == nil {
				switch dataName {
				case "REF":
					m.REFData = moment
				case "VEL":
					m.VELData = moment
				case "SW ":
					m.SWData = moment
				case "ZDR":
					m.ZDRData = moment
				case "PHI":
					m.PHIData = moment
				case "RHO":
					m.RHOData = moment
				case "CFP":
					m.CFPData = moment
				}
			}
		default:
			logrus.Warnf("unknown data name %q", dataName)
		}
		if err != nil {
			return m, err
		}
	}

	if err := validateMessage(r, begin, m.Header.RadialLength); err != nil {
		return m, err
	}

	return m, nil
}

// parseMomentDataBlock decodes the fixed moment fields and the gate
// payload following them.
func parseMomentDataBlock(r io.Reader, blockType, dataName string) (*MomentDataBlock, error) {
	var f momentFields
	if err := readBigEndian(r, &f); err != nil {
		return nil, err
	}

	moment := &MomentDataBlock{
		DataBlockType:       blockType,
		DataName:            dataName,
		NumberOfGates:       f.NumberOfGates,
		Range:               f.Range,
		RangeSampleInterval: f.RangeSampleInterval,
		TOVER:               f.TOVER,
		SNRThreshold:        f.SNRThreshold,
		ControlFlags:        f.ControlFlags,
		DataWordSize:        f.DataWordSize,
		Scale:               f.Scale,
		Offset:              f.Offset,
	}

	if f.NumberOfGates > common.MaxDataMomentGates {
		logrus.Warnf("invalid number of data moment gates: %d", f.NumberOfGates)
		return moment, nil
	}

	switch f.DataWordSize {
	case 8:
		moment.Gates8 = make([]uint8, f.NumberOfGates)
		if _, err := io.ReadFull(r, moment.Gates8); err != nil {
			return moment, fmt.Errorf("%s gates: %w", dataName, common.ErrTruncated)
		}
	case 16:
		raw := make([]byte, int(f.NumberOfGates)*2)
		if _, err := io.ReadFull(r, raw); err != nil {
			return moment, fmt.Errorf("%s gates: %w", dataName, common.ErrTruncated)
		}
		moment.Gates16 = swapUint16s(raw)
	default:
		logrus.Warnf("invalid data word size: %d", f.DataWordSize)
	}

	return moment, nil
}

// validateMessage confirms the stream holds the full declared radial
// length, then leaves the stream positioned at the end of the message.
func validateMessage(r io.ReadSeeker, begin int64, radialLength uint16) error {
	if _, err := r.Seek(begin, io.SeekStart); err != nil {
		return err
	}

	if n, err := io.CopyN(io.Discard, r, int64(radialLength)); err != nil {
		return fmt.Errorf("radial declared %d bytes, stream held %d: %w",
			radialLength, n, common.ErrTruncated)
	}

	return nil
}
