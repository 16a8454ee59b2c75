package wsr88d

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/blakeridgway/supercell-wx/common"
)

// NexradFile is a decoded NEXRAD product of either tier.
type NexradFile interface {
	RadarID() string
	StartTime() time.Time
	Group() common.RadarProductGroup

	// Product is the AWIPS product identifier, empty for Level-II.
	Product() string
}

// NewNexradFile sniffs the stream and dispatches to the matching
// decoder: "AR2V" marks an Archive II volume, an "SDUS" text header
// within the leading bytes marks a NIDS product.
func NewNexradFile(r io.Reader) (NexradFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if bytes.HasPrefix(data, []byte("AR2V")) {
		return ParseLevel2(data)
	}

	sniff := data
	if len(sniff) > 64 {
		sniff = sniff[:64]
	}
	if bytes.Contains(sniff, []byte("SDUS")) {
		return ParseLevel3(data)
	}

	return nil, fmt.Errorf("unrecognized file format: %w", common.ErrUnsupported)
}

// NewNexradFileFromFile decodes the named file.
func NewNexradFileFromFile(filename string) (NexradFile, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewNexradFile(f)
}
