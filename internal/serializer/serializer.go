// Package serializer encodes and decodes captured request dumps.
package serializer

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Serializer is a reversible byte codec applied to a whole dump.
type Serializer interface {
	Serialize([]byte) ([]byte, error)
	Deserialize([]byte) ([]byte, error)
}

// ErrTooLarge is returned when a dump decodes to more than maxDecoded bytes.
var ErrTooLarge = errors.New("serializer: decoded dump too large")

// maxDecoded caps what a compressed dump may expand to.
var maxDecoded int64 = 1 << 30

var registry = map[string]Serializer{
	"none":   rawSerializer{},
	"base64": base64Serializer{},
	"gzip":   gzipSerializer{},
	"snappy": snappySerializer{},
}

// Get returns the codec registered under name. An empty name selects "none".
func Get(name string) (Serializer, error) {
	if name == "" {
		name = "none"
	}
	s, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown serializer: %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type rawSerializer struct{}

func (rawSerializer) Serialize(data []byte) ([]byte, error)   { return data, nil }
func (rawSerializer) Deserialize(data []byte) ([]byte, error) { return data, nil }

// readLimited drains r, failing once more than maxDecoded bytes come out.
func readLimited(r io.Reader, codec string) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, maxDecoded+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", codec, err)
	}
	if int64(len(out)) > maxDecoded {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", codec, ErrTooLarge, maxDecoded)
	}
	return out, nil
}
