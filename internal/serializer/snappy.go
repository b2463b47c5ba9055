package serializer

import (
	"bytes"
	"fmt"

	"github.com/golang/snappy"
)

// streamMagic opens every snappy framed stream.
const streamMagic = "\xff\x06\x00\x00sNaPpY"

// snappySerializer writes the snappy block format and reads both the block
// format and the framed stream format produced by snappy.NewBufferedWriter.
type snappySerializer struct{}

func (s snappySerializer) Serialize(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (s snappySerializer) Deserialize(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, []byte(streamMagic)) {
		return readLimited(snappy.NewReader(bytes.NewReader(data)), "snappy")
	}
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("snappy: %w", err)
	}
	if int64(n) > maxDecoded {
		return nil, fmt.Errorf("snappy: %w (limit %d bytes)", ErrTooLarge, maxDecoded)
	}
	return snappy.Decode(nil, data)
}
