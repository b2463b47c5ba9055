package conn

import (
	"bufio"
	"errors"
	"io"
	"iter"
)

// Requests iterates over consecutive requests read from r. Iteration stops
// after the first error; a clean end of input yields no error at all.
func Requests(r io.Reader, max int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		br := bufio.NewReader(r)
		for {
			raw, err := ReadRequest(br, max)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(raw, err) || err != nil {
				return
			}
		}
	}
}
