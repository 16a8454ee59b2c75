package wsr88d

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/sirupsen/logrus"

	"github.com/blakeridgway/supercell-wx/common"
)

// Level3TextHeader is the WMO-style header in front of every NIDS
// product.
type Level3TextHeader struct {
	FileType         [6]byte // SDUS__
	_                byte    // space
	RadarIdentifier  [4]byte
	_                byte // space
	DDHHMM           [6]byte
	_                [3]byte // \r\r\n
	Product          [3]byte
	RadarIdentifier3 [3]byte
	_                [3]byte // \r\r\n
}

// Level3MessageHeader (Product 3.3.1)
type Level3MessageHeader struct {
	Code       int16
	Date       int16 // days since 1 Jan 1970, where 1 Jan 1970 is day 1
	Time       int32 // seconds past midnight
	Length     int32
	SourceID   int16
	DestID     int16
	BlockCount int16
}

// Level3ProductDescription (Product 3.3.1.1)
type Level3ProductDescription struct {
	Divider               int16
	Latitude              int32 // degrees * 1000
	Longitude             int32 // degrees * 1000
	Height                int16
	Code                  int16
	OperationalMode       int16
	VolumeCoveragePattern int16
	SequenceNumber        int16
	VolumeScanNumber      int16
	VolumeScanDate        int16
	VolumeScanTime        int32
	GenerationDate        int16
	GenerationTime        int32

	ProductDependent1 int16
	ProductDependent2 int16

	ElevationNumber int16

	ProductDependent3 int16

	ProductDependent31_46 [32]byte
	ProductDependent4     int16
	ProductDependent5     int16
	ProductDependent6     int16
	ProductDependent7     int16
	ProductDependent8     int16
	ProductDependent9     int16
	ProductDependent10    int16

	Version         int8
	SpotBlank       uint8
	SymbologyOffset int32
	GraphicOffset   int32
	TabularOffset   int32
}

// Level3SymbologyBlock (Product 3.3.1.2)
type Level3SymbologyBlock struct {
	Divider      int16
	BlockID      int16
	Length       int32
	LayerCount   int16
	LayerDivider int16
	LayerLength  int32
}

// Level3RadialPacketHeader describes a digital or run-length encoded
// radial data packet.
type Level3RadialPacketHeader struct {
	Code               int16
	FirstRangeBinIndex int16
	BinCount           int16
	ICenter            int16
	JCenter            int16
	ScaleFactor        int16
	RadialCount        int16
}

type Level3RadialHeader struct {
	Length     int16
	AngleStart int16 // degrees * 10
	AngleDelta int16 // degrees * 10
}

// Level3Radial is one decoded radial of a NIDS radial packet.
type Level3Radial struct {
	Header Level3RadialHeader
	Data   []uint8
}

// rleRadialPacketCode marks a run-length encoded radial packet (0xAF1F).
const rleRadialPacketCode = int16(-20705)

// Level3Message exposes the decoded product fields a viewer needs.
type Level3Message struct {
	Code            int16
	VolumeScanTime  time.Time
	Latitude        float64
	Longitude       float64
	ElevationNumber int16
	PacketHeader    Level3RadialPacketHeader
	Radials         []*Level3Radial
}

// Level3File wraps a decoded NIDS product file.
type Level3File struct {
	TextHeader         Level3TextHeader
	MessageHeader      Level3MessageHeader
	ProductDescription Level3ProductDescription
	SymbologyBlock     Level3SymbologyBlock
	PacketHeader       Level3RadialPacketHeader
	Radials            []*Level3Radial
}

func level3Date(days int16, seconds int32) time.Time {
	return time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(days-1) * 24 * time.Hour).
		Add(time.Duration(seconds) * time.Second)
}

// RadarID returns the radar identifier from the text header.
func (f *Level3File) RadarID() string {
	return string(f.TextHeader.RadarIdentifier[:])
}

// StartTime returns the product's volume scan time.
func (f *Level3File) StartTime() time.Time {
	return level3Date(f.ProductDescription.VolumeScanDate, f.ProductDescription.VolumeScanTime)
}

// Group identifies this file as a Level-III product.
func (f *Level3File) Group() common.RadarProductGroup {
	return common.Level3
}

// Product returns the AWIPS product identifier from the text header.
func (f *Level3File) Product() string {
	return strings.TrimSpace(string(f.TextHeader.Product[:]))
}

// Message returns the decoded product message.
func (f *Level3File) Message() *Level3Message {
	return &Level3Message{
		Code:            f.MessageHeader.Code,
		VolumeScanTime:  f.StartTime(),
		Latitude:        float64(f.ProductDescription.Latitude) / 1000.0,
		Longitude:       float64(f.ProductDescription.Longitude) / 1000.0,
		ElevationNumber: f.ProductDescription.ElevationNumber,
		PacketHeader:    f.PacketHeader,
		Radials:         f.Radials,
	}
}

// ParseLevel3 decodes a NIDS product. The symbology block may be bzip2
// compressed.
func ParseLevel3(data []byte) (*Level3File, error) {
	headerOffset := bytes.Index(data, []byte("SDUS"))
	if headerOffset == -1 {
		return nil, fmt.Errorf("no NIDS text header: %w", common.ErrMalformed)
	}
	data = data[headerOffset:]

	r := bytes.NewReader(data)

	f := &Level3File{}
	if err := readBigEndian(r, &f.TextHeader); err != nil {
		return nil, err
	}
	if err := readBigEndian(r, &f.MessageHeader); err != nil {
		return f, err
	}
	if err := readBigEndian(r, &f.ProductDescription); err != nil {
		return f, err
	}

	if f.ProductDescription.Divider != -1 {
		return f, fmt.Errorf("product description divider %d: %w",
			f.ProductDescription.Divider, common.ErrMalformed)
	}

	// The symbology block may be bzip2 compressed in place.
	pos := int(r.Size()) - r.Len()
	var symReader io.Reader = r
	if pos+2 <= len(data) && bytes.Equal(data[pos:pos+2], []byte("BZ")) {
		logrus.Tracef("found bzip2 symbology block")
		br, err := bzip2.NewReader(r, nil)
		if err != nil {
			return f, fmt.Errorf("bzip2 symbology: %w", err)
		}
		symReader = br
	}

	if err := readBigEndian(symReader, &f.SymbologyBlock); err != nil {
		return f, err
	}
	if f.SymbologyBlock.Divider != -1 {
		return f, fmt.Errorf("symbology block divider %d: %w",
			f.SymbologyBlock.Divider, common.ErrMalformed)
	}

	if err := readBigEndian(symReader, &f.PacketHeader); err != nil {
		return f, err
	}

	for i := int16(0); i < f.PacketHeader.RadialCount; i++ {
		radial := &Level3Radial{}
		if err := readBigEndian(symReader, &radial.Header); err != nil {
			return f, err
		}

		switch f.PacketHeader.Code {
		case 16:
			radial.Data = make([]uint8, radial.Header.Length)
			if _, err := io.ReadFull(symReader, radial.Data); err != nil {
				return f, fmt.Errorf("radial %d: %w", i, common.ErrTruncated)
			}
		case rleRadialPacketCode:
			encoded := make([]uint8, int(radial.Header.Length)*2)
			if _, err := io.ReadFull(symReader, encoded); err != nil {
				return f, fmt.Errorf("radial %d: %w", i, common.ErrTruncated)
			}

			for _, c := range encoded {
				value := c & 0x0f
				runs := (c & 0xf0) >> 4
				for j := uint8(0); j < runs; j++ {
					radial.Data = append(radial.Data, value)
				}
			}
		default:
			logrus.Infof("unknown radial packet code %v", f.PacketHeader.Code)
			return f, nil
		}

		f.Radials = append(f.Radials, radial)
	}

	return f, nil
}
