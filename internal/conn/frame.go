package conn

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/cosmez/keyparse-go/internal/resp"
)

var (
	// ErrProtocol is returned when a framing line cannot be read as a
	// multibulk header or bulk length.
	ErrProtocol = errors.New("conn: protocol error")
	// ErrTooLarge is returned when a request grows past the configured limit.
	ErrTooLarge = errors.New("conn: request too large")
)

const (
	// maxHeaderLen bounds a "*<n>\r\n" or "$<n>\r\n" line.
	maxHeaderLen = 32
	// readChunk is the most payload buffered ahead of the bytes received.
	readChunk = 64 << 10
)

// ReadRequest returns the bytes of exactly one multibulk request from r: the
// argument count line, then every bulk length line and payload. Command
// names and arity are left to the command package.
//
// At a clean request boundary the error is io.EOF; a stream that ends inside
// a request gives io.ErrUnexpectedEOF. max caps the request size in bytes; 0
// disables the cap.
func ReadRequest(r *bufio.Reader, max int) ([]byte, error) {
	f := framer{r: r, max: max}

	n, err := f.header('*')
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		size, err := f.header('$')
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		if err := f.payload(size); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return f.buf, nil
}

type framer struct {
	r   *bufio.Reader
	max int
	buf []byte
}

func (f *framer) header(sigil byte) (int, error) {
	start := len(f.buf)
	for {
		chunk, err := f.r.ReadSlice('\n')
		f.buf = append(f.buf, chunk...)
		if f.max > 0 && len(f.buf) > f.max {
			return 0, ErrTooLarge
		}
		if len(f.buf)-start > maxHeaderLen {
			return 0, fmt.Errorf("%w: header line too long", ErrProtocol)
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(f.buf) == 0 {
				return 0, io.EOF
			}
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}

	line := f.buf[start:]
	if len(line) < 4 || line[0] != sigil || line[len(line)-2] != '\r' {
		return 0, fmt.Errorf("%w: expected %q line, got %q", ErrProtocol, sigil, line)
	}
	digits := line[1 : len(line)-2]
	for _, ch := range digits {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, digits)
		}
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil || n > resp.MaxBulkLen {
		return 0, fmt.Errorf("%w: length %q out of range", ErrProtocol, digits)
	}
	return n, nil
}

func (f *framer) payload(size int) error {
	if f.max > 0 && size > f.max-len(f.buf)-2 {
		return ErrTooLarge
	}
	// Grow with the data actually received so a lying header cannot
	// allocate more than one chunk ahead.
	for remaining := size + 2; remaining > 0; {
		n := min(remaining, readChunk)
		start := len(f.buf)
		f.buf = append(f.buf, make([]byte, n)...)
		if _, err := io.ReadFull(f.r, f.buf[start:]); err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		remaining -= n
	}
	if f.buf[len(f.buf)-2] != '\r' || f.buf[len(f.buf)-1] != '\n' {
		return fmt.Errorf("%w: bulk string of %d bytes not followed by CRLF", ErrProtocol, size)
	}
	return nil
}
