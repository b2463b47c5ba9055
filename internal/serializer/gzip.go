package serializer

import (
	"bytes"
	"compress/gzip"
	"fmt"
)

// dumpComment tags gzip dumps written by keyparse.
const dumpComment = "keyparse request dump"

// gzipSerializer writes one best-compression gzip member. Reading accepts
// concatenated members, so captures appended with `cat a.gz b.gz` decode
// to one request stream.
type gzipSerializer struct{}

func (s gzipSerializer) Serialize(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	w.Comment = dumpComment

	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return buf.Bytes(), nil
}

func (s gzipSerializer) Deserialize(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer r.Close()
	return readLimited(r, "gzip")
}
