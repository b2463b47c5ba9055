package resp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	// MaxBulkLen is the largest bulk string or array accepted, matching the
	// server's default proto-max-bulk-len.
	MaxBulkLen = 512 << 20
	// MaxDepth bounds array nesting in a single reply.
	MaxDepth = 32
)

// ErrSyntax is wrapped by every decode error that is not an I/O error.
var ErrSyntax = errors.New("resp: syntax error")

// ParseValue reads one reply value from r. Requests are framed by the conn
// package and classified by the command package; this decoder is for replies.
func ParseValue(r *bufio.Reader) (RedisValue, error) {
	return parseValue(r, 0)
}

func parseValue(r *bufio.Reader, depth int) (RedisValue, error) {
	sigil, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch sigil {
	case '+', '-':
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		if sigil == '-' {
			return RedisError{Value: line}, nil
		}
		return RedisString{Value: line}, nil
	case ':':
		n, err := readInt(r, "integer")
		if err != nil {
			return nil, err
		}
		return RedisInteger{IntValue: n}, nil
	case '$':
		return parseBulk(r)
	case '*':
		if depth >= MaxDepth {
			return nil, fmt.Errorf("%w: arrays nested deeper than %d", ErrSyntax, MaxDepth)
		}
		return parseArray(r, depth)
	default:
		return nil, fmt.Errorf("%w: unknown type byte %q", ErrSyntax, sigil)
	}
}

// readLine reads up to LF and drops the CRLF terminator. A line that ends
// without CR is a syntax error.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", unexpectedEOF(err)
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return "", fmt.Errorf("%w: line %q not terminated by CRLF", ErrSyntax, line)
	}
	return line[:len(line)-2], nil
}

func readInt(r *bufio.Reader, what string) (int64, error) {
	line, err := readLine(r)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrSyntax, what, line)
	}
	return n, nil
}

// readLength reads a bulk length or array count. -1 reports null.
func readLength(r *bufio.Reader, what string) (n int, null bool, err error) {
	v, err := readInt(r, what)
	switch {
	case err != nil:
		return 0, false, err
	case v == -1:
		return 0, true, nil
	case v < 0 || v > MaxBulkLen:
		return 0, false, fmt.Errorf("%w: %s %d out of range", ErrSyntax, what, v)
	}
	return int(v), false, nil
}

func parseBulk(r *bufio.Reader) (RedisValue, error) {
	n, null, err := readLength(r, "bulk length")
	if err != nil {
		return nil, err
	}
	if null {
		return RedisNull{}, nil
	}

	// Payload plus its CRLF in one read.
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("bulk payload: %w", unexpectedEOF(err))
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("%w: expected CRLF after bulk payload, got %q", ErrSyntax, buf[n:])
	}
	return RedisBulkString{Value: string(buf[:n]), Length: n}, nil
}

func parseArray(r *bufio.Reader, depth int) (RedisValue, error) {
	n, null, err := readLength(r, "array count")
	if err != nil {
		return nil, err
	}
	if null {
		return RedisNull{}, nil
	}

	values := make([]RedisValue, n)
	for i := range values {
		v, err := parseValue(r, depth+1)
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", i, unexpectedEOF(err))
		}
		values[i] = v
	}
	return RedisArray{Values: values}, nil
}

// unexpectedEOF turns io.EOF inside a value into io.ErrUnexpectedEOF; only
// the type byte may hit a clean end of stream.
func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
