package awips

import (
	"io"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Issuance date/time takes one of the following forms:
// * <hhmm>_xM_<tz>_day_mon_<dd>_year
// * <hhmm>_UTC_day_mon_<dd>_year
// Segment Header only:
// * <hhmm>_xM_<tz1>_day_mon_<dd>_year_/<hhmm>_xM_<tz2>_day_mon_<dd>_year/
// Look for hhmm (xM|UTC) to key the date/time string
var reDateTimeString = regexp.MustCompile(`^[0-9]{3,4} ([AP]M|UTC)`)

// UGC takes the form SSFNNN-NNN>NNN-SSFNNN-DDHHMM- (NWSI 10-1702)
// Look for SSF(NNN)?[->] to key the UGC string
var reUgcString = regexp.MustCompile(`^[A-Z]{2}[CZ]([0-9]{3})?[->]`)

// P-VTEC takes the form /k.aaa.cccc.pp.s.####.yymmddThhnnZB-yymmddThhnnZE/
// (NWSI 10-1703); look for /k. to key the P-VTEC string
var rePVtecString = regexp.MustCompile(`^/[OTEX]\.`)

// H-VTEC takes the form
// /nwsli.s.ic.yymmddThhnnZB.yymmddThhnnZC.yymmddThhnnZE.fr/ (NWSI
// 10-1703); look for /nwsli. to key the H-VTEC string
var reHVtecString = regexp.MustCompile(`^/[A-Z0-9]{5}\.`)

// Vtec pairs a P-VTEC line with its optional H-VTEC line.
type Vtec struct {
	PVtec PVtec
	HVtec string
}

// SegmentHeader holds the UGC, VTEC and issuance lines in front of a
// product segment.
type SegmentHeader struct {
	UgcString        string
	Vtecs            []Vtec
	UgcNames         []string
	IssuanceDateTime string
}

// Segment is one UGC-delimited portion of a text product.
type Segment struct {
	Header         *SegmentHeader
	ProductContent []string
}

// TextProductMessage is a parsed AWIPS text product.
type TextProductMessage struct {
	WmoHeader *WmoHeader
	MndHeader []string
	Segments  []*Segment
}

// ParseTextProduct decodes a text product from the reader. Segment and
// MND header parses that fail leave the read position unchanged.
func ParseTextProduct(r io.Reader) (*TextProductMessage, error) {
	lr, err := newLineReader(r)
	if err != nil {
		return nil, err
	}
	return parseTextProduct(lr)
}

func parseTextProduct(lr *lineReader) (*TextProductMessage, error) {
	msg := &TextProductMessage{}

	header, ok := parseWmoHeader(lr)
	if !ok {
		logrus.Debug("text product has no WMO header")
		return nil, io.ErrUnexpectedEOF
	}
	msg.WmoHeader = header

	for i := 0; !lr.eof(); i++ {
		if i != 0 && tryParseEndOfProduct(lr) {
			break
		}

		segment := &Segment{}

		if i == 0 {
			if lr.peek() != '\r' {
				segment.Header = tryParseSegmentHeader(lr)
			}

			skipBlankLines(lr)

			msg.MndHeader = tryParseMndHeader(lr)
			skipBlankLines(lr)
		}

		if segment.Header == nil {
			segment.Header = tryParseSegmentHeader(lr)
			skipBlankLines(lr)
		}

		segment.ProductContent = parseProductContent(lr)
		skipBlankLines(lr)

		if segment.Header != nil || len(segment.ProductContent) > 0 {
			msg.Segments = append(msg.Segments, segment)
		}
	}

	return msg, nil
}

func parseProductContent(lr *lineReader) []string {
	var content []string

	for !lr.eof() && lr.peek() != ETX {
		line := lr.getLine()

		if strings.HasPrefix(line, "$$") {
			// End of Product or Product Segment Code
			break
		}

		content = append(content, line)
	}

	for len(content) > 0 && content[len(content)-1] == "" {
		content = content[:len(content)-1]
	}

	return content
}

func skipBlankLines(lr *lineReader) {
	for lr.peek() == '\r' {
		lr.getLine()
	}
}

// tryParseEndOfProduct consumes an ETX (optionally preceded by a
// forecast identifier line); on miss the read position is restored.
func tryParseEndOfProduct(lr *lineReader) bool {
	saved := lr.tell()
	endOfStream := false

	if lr.peek() == ETX {
		lr.getByte()
		endOfStream = true
	} else if lr.peek() == -1 {
		endOfStream = true
	}

	if !endOfStream {
		// Optional forecast identifier
		lr.getLine()
		skipBlankLines(lr)

		if lr.peek() == ETX {
			lr.getByte()
			endOfStream = true
		} else if lr.peek() == -1 {
			endOfStream = true
		}
	}

	if !endOfStream {
		lr.seek(saved)
	}

	return endOfStream
}

// tryParseMndHeader reads lines up to a blank and accepts them as the
// MND header only when the final line is an issuance date/time.
func tryParseMndHeader(lr *lineReader) []string {
	var mndHeader []string
	saved := lr.tell()

	for !lr.eof() && lr.peek() != '\r' {
		mndHeader = append(mndHeader, lr.getLine())
	}

	if len(mndHeader) > 0 && !reDateTimeString.MatchString(mndHeader[len(mndHeader)-1]) {
		// MND header should end with an issuance date/time line
		mndHeader = nil
	}

	if len(mndHeader) == 0 {
		lr.seek(saved)
	}

	return mndHeader
}

func tryParseSegmentHeader(lr *lineReader) *SegmentHeader {
	var header *SegmentHeader
	saved := lr.tell()

	line := lr.getLine()

	if reUgcString.MatchString(line) {
		header = &SegmentHeader{UgcString: line}
	}

	if header != nil {
		for {
			vtec := tryParseVtecString(lr)
			if vtec == nil {
				break
			}
			header.Vtecs = append(header.Vtecs, *vtec)
		}

		for !lr.eof() && lr.peek() != '\r' {
			line = lr.getLine()
			if !reDateTimeString.MatchString(line) {
				header.UgcNames = append(header.UgcNames, line)
			} else {
				header.IssuanceDateTime = line
				break
			}
		}
	}

	if header == nil {
		lr.seek(saved)
	}

	return header
}

func tryParseVtecString(lr *lineReader) *Vtec {
	var vtec *Vtec
	saved := lr.tell()

	line := lr.getLine()

	if rePVtecString.MatchString(line) {
		vtec = &Vtec{}
		if err := vtec.PVtec.Parse(line); err != nil {
			logrus.Warnf("bad P-VTEC %q: %v", line, err)
		}

		saved = lr.tell()
		line = lr.getLine()

		if reHVtecString.MatchString(line) {
			vtec.HVtec = line
		} else {
			// H-VTEC was not found, rewind to the beginning of the line
			lr.seek(saved)
		}
	} else {
		// P-VTEC was not found, rewind
		lr.seek(saved)
	}

	return vtec
}
