package iso8583

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Messages are framed with a 2-byte big-endian length header.

func ReadMessageLength(r io.Reader) (int, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, fmt.Errorf("reading message length header: %w", err)
	}
	return int(binary.BigEndian.Uint16(header)), nil
}

func WriteMessageLength(w io.Writer, length int) (int, error) {
	if length > 0xFFFF {
		return 0, fmt.Errorf("message length %d exceeds header capacity", length)
	}
	header := make([]byte, 2)
	binary.BigEndian.PutUint16(header, uint16(length))
	return w.Write(header)
}
