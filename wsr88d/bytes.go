package wsr88d

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/blakeridgway/supercell-wx/common"
)

// readBigEndian reads data from the big-endian wire stream, mapping an
// early end of stream to ErrTruncated.
func readBigEndian(r io.Reader, data any) error {
	if err := binary.Read(r, binary.BigEndian, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("read %T: %w", data, common.ErrTruncated)
		}
		return err
	}
	return nil
}

// swapUint16s converts a big-endian byte slice into host uint16 values.
// len(b) must be even.
func swapUint16s(b []byte) []uint16 {
	v := make([]uint16, len(b)/2)
	for i := range v {
		v[i] = binary.BigEndian.Uint16(b[i*2:])
	}
	return v
}
