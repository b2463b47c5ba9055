package conn

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRequest(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ping", "*1\r\n$4\r\nPING\r\n", "*1\r\n$4\r\nPING\r\n"},
		{"get", "*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n", "*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n"},
		{"binary payload", "*2\r\n$3\r\nGET\r\n$4\r\n\r\n\r\n\r\n", "*2\r\n$3\r\nGET\r\n$4\r\n\r\n\r\n\r\n"},
		{"empty payload", "*2\r\n$3\r\nGET\r\n$0\r\n\r\n", "*2\r\n$3\r\nGET\r\n$0\r\n\r\n"},
		{"unknown command is still framed", "*1\r\n$4\r\nPONG\r\n", "*1\r\n$4\r\nPONG\r\n"},
		{"zero arguments", "*0\r\n", "*0\r\n"},
		{"stops at boundary", "*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nQUIT\r\n", "*1\r\n$4\r\nPING\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadRequest(bufio.NewReader(strings.NewReader(tt.input)), 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestReadRequest_SmallBuffer(t *testing.T) {
	key := strings.Repeat("k", 100)
	input := "*2\r\n$3\r\nGET\r\n$100\r\n" + key + "\r\n"
	got, err := ReadRequest(bufio.NewReaderSize(strings.NewReader(input), 16), 0)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestReadRequest_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  error
	}{
		{"clean eof", "", 0, io.EOF},
		{"eof in header", "*2\r", 0, io.ErrUnexpectedEOF},
		{"eof between arguments", "*2\r\n$3\r\nGET\r\n", 0, io.ErrUnexpectedEOF},
		{"eof in payload", "*2\r\n$3\r\nGET\r\n$3\r\nke", 0, io.ErrUnexpectedEOF},
		{"inline command", "PING\r\n", 0, ErrProtocol},
		{"missing count", "*\r\n", 0, ErrProtocol},
		{"negative count", "*-1\r\n", 0, ErrProtocol},
		{"bare LF", "*1\n$4\nPING\n", 0, ErrProtocol},
		{"bad bulk sigil", "*1\r\n+PING\r\n", 0, ErrProtocol},
		{"bad bulk length", "*1\r\n$4x\r\nPING\r\n", 0, ErrProtocol},
		{"payload without CRLF", "*1\r\n$4\r\nPINGXX", 0, ErrProtocol},
		{"long header", "*" + strings.Repeat("1", 64) + "\r\n", 0, ErrProtocol},
		{"overflowing bulk length", "*2\r\n$3\r\nGET\r\n$9223372036854775807\r\nk\r\n", 0, ErrProtocol},
		{"bulk length over 512MB", "*2\r\n$3\r\nGET\r\n$536870913\r\nk\r\n", 0, ErrProtocol},
		{"huge count", "*9223372036854775807\r\n", 0, ErrProtocol},
		{"max bulk length on short stream", "*2\r\n$3\r\nGET\r\n$536870912\r\nk\r\n", 0, io.ErrUnexpectedEOF},
		{"payload over limit", "*2\r\n$3\r\nGET\r\n$100\r\n", 40, ErrTooLarge},
		{"header over limit", "*1\r\n$4\r\nPING\r\n", 6, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRequest(bufio.NewReader(strings.NewReader(tt.input)), tt.max)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestReadRequest_ExactLimit(t *testing.T) {
	input := "*1\r\n$4\r\nPING\r\n"
	got, err := ReadRequest(bufio.NewReader(strings.NewReader(input)), len(input))
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestRequests(t *testing.T) {
	input := "*1\r\n$4\r\nPING\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\n*1\r\n$4\r\nQUIT\r\n"
	var got []string
	for raw, err := range Requests(strings.NewReader(input), 0) {
		require.NoError(t, err)
		got = append(got, string(raw))
	}
	assert.Equal(t, []string{
		"*1\r\n$4\r\nPING\r\n",
		"*2\r\n$3\r\nGET\r\n$1\r\nk\r\n",
		"*1\r\n$4\r\nQUIT\r\n",
	}, got)
}

func TestRequests_StopsAtError(t *testing.T) {
	input := "*1\r\n$4\r\nPING\r\nGARBAGE\r\n*1\r\n$4\r\nPING\r\n"
	var n int
	var last error
	for _, err := range Requests(strings.NewReader(input), 0) {
		n++
		last = err
	}
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, last, ErrProtocol)
}
