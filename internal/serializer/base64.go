package serializer

import (
	"bytes"
	"encoding/base64"
)

// base64Serializer uses standard base64. Line breaks and other whitespace in
// the input are ignored when decoding, so wrapped dumps decode as well.
type base64Serializer struct{}

func (s base64Serializer) Serialize(data []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(out, data)
	return out, nil
}

func (s base64Serializer) Deserialize(data []byte) ([]byte, error) {
	compact := bytes.Join(bytes.Fields(data), nil)
	out := make([]byte, base64.StdEncoding.DecodedLen(len(compact)))
	n, err := base64.StdEncoding.Decode(out, compact)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}
