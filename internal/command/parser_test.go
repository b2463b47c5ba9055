package command

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// request encodes args as a unified protocol request.
func request(args ...string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(&b, "$%d\r\n%s\r\n", len(a), a)
	}
	return []byte(b.String())
}

func parse(t *testing.T, raw []byte) (*Command, error) {
	t.Helper()
	c := NewAllocator().New(raw)
	return c, Parse(c)
}

func keys(c *Command) []string {
	out := make([]string, len(c.Keys))
	for i := range c.Keys {
		out[i] = string(c.Key(i))
	}
	return out
}

func TestParse_Get(t *testing.T) {
	raw := []byte("*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n")
	c, err := parse(t, raw)
	require.NoError(t, err)

	assert.Equal(t, ResultOK, c.Result)
	assert.Equal(t, TypeGet, c.Type)
	assert.Equal(t, 2, c.NArg)
	assert.Equal(t, 0, c.NArgStart)
	assert.Equal(t, 2, c.NArgEnd)
	require.Equal(t, []KeyPosition{{Start: 17, End: 20}}, c.Keys)
	assert.Equal(t, "key", string(c.Key(0)))
	assert.False(t, c.NoForward)
	assert.False(t, c.Quit)
	assert.Empty(t, c.Diagnostic())
}

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		typ  Type
		keys []string
	}{
		{"get lower case", []string{"get", "k"}, TypeGet, []string{"k"}},
		{"empty key", []string{"GET", ""}, TypeGet, []string{""}},
		{"binary key", []string{"GET", "a\r\nb\x00"}, TypeGet, []string{"a\r\nb\x00"}},
		{"expire", []string{"EXPIRE", "k", "10"}, TypeExpire, []string{"k"}},
		{"hset", []string{"HSET", "h", "f", "v"}, TypeHSet, []string{"h"}},
		{"linsert", []string{"LINSERT", "l", "BEFORE", "a", "b"}, TypeLInsert, []string{"l"}},
		{"set plain", []string{"SET", "k", "v"}, TypeSet, []string{"k"}},
		{"set with options", []string{"SET", "k", "v", "EX", "10", "NX"}, TypeSet, []string{"k"}},
		{"argn key only", []string{"BITCOUNT", "k"}, TypeBitCount, []string{"k"}},
		{"del", []string{"DEL", "k1", "k2", "k3"}, TypeDel, []string{"k1", "k2", "k3"}},
		{"mget single", []string{"MGET", "k"}, TypeMGet, []string{"k"}},
		{"mset", []string{"MSET", "k1", "v1", "k2", "v2"}, TypeMSet, []string{"k1", "k2"}},
		{"eval", []string{"EVAL", "script", "2", "k1", "k2", "arg1"}, TypeEval, []string{"k1", "k2"}},
		{"eval no args", []string{"EVAL", "s", "1", "k"}, TypeEval, []string{"k"}},
		{"evalsha", []string{"EVALSHA", "abc", "3", "a", "b", "c", "x", "y"}, TypeEvalSha, []string{"a", "b", "c"}},
		{"xread", []string{"XREAD", "COUNT", "2", "STREAMS", "s1", "s2", "0", "0"}, TypeXRead, []string{"s1", "s2", "0", "0"}},
		{"xread streams first", []string{"XREAD", "streams", "s1", "0"}, TypeXRead, []string{"s1", "0"}},
		{"xreadgroup", []string{"XREADGROUP", "GROUP", "g", "c", "StReAmS", "s", ">"}, TypeXReadGroup, []string{"s", ">"}},
		{"xadd has no keyword", []string{"XADD", "s", "*", "f", "v"}, TypeXAdd, []string{}},
		{"streams prefix is not the keyword", []string{"XREAD", "STREAMSX", "s"}, TypeXRead, []string{}},
		{"auth", []string{"AUTH", "secret"}, TypeAuth, []string{"secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parse(t, request(tt.args...))
			require.NoError(t, err)
			assert.Equal(t, ResultOK, c.Result)
			assert.Equal(t, tt.typ, c.Type)
			assert.Equal(t, len(tt.args), c.NArg)
			assert.Equal(t, tt.keys, keys(c))
		})
	}
}

func TestParse_PingQuit(t *testing.T) {
	c, err := parse(t, request("PING"))
	require.NoError(t, err)
	assert.Equal(t, TypePing, c.Type)
	assert.Empty(t, c.Keys)
	assert.True(t, c.NoForward)
	assert.False(t, c.Quit)

	c, err = parse(t, request("quit"))
	require.NoError(t, err)
	assert.Equal(t, TypeQuit, c.Type)
	assert.Empty(t, c.Keys)
	assert.True(t, c.Quit)
	assert.True(t, c.NoForward)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		typ   Type
		state State
	}{
		{"empty buffer", "", TypeUnknown, StateStart},
		{"inline command", "GET k\r\n", TypeUnknown, StateStart},
		{"zero args", "*0\r\n", TypeUnknown, StateNArg},
		{"missing narg digits", "*\r\n", TypeUnknown, StateNArg},
		{"signed narg", "*-1\r\n", TypeUnknown, StateNArg},
		{"narg without LF", "*1\r\r", TypeUnknown, StateNArgLF},
		{"bad name sigil", "*1\r\n+PING\r\n", TypeUnknown, StateReqTypeLen},
		{"empty name", "*1\r\n$0\r\n\r\n", TypeUnknown, StateReqTypeLen},
		{"non-digit length", "*1\r\n$4x\r\nPING\r\n", TypeUnknown, StateReqTypeLen},
		{"unknown command", "*1\r\n$4\r\nPONG\r\n", TypeUnknown, StateReqType},
		{"name length too short", "*1\r\n$3\r\nPING\r\n", TypeUnknown, StateReqType},
		{"ping with argument", "*2\r\n$4\r\nPING\r\n$2\r\nhi\r\n", TypePing, StateReqTypeLF},
		{"get without key", "*1\r\n$3\r\nGET\r\n", TypeGet, StateReqTypeLF},
		{"get with extra arg", string(request("GET", "k", "x")), TypeGet, StateKeyLF},
		{"expire without ttl", string(request("EXPIRE", "k")), TypeExpire, StateKeyLF},
		{"hset short", string(request("HSET", "h", "f")), TypeHSet, StateKeyLF},
		{"hset long", string(request("HSET", "h", "f", "v", "x")), TypeHSet, StateKeyLF},
		{"mset even count", string(request("MSET", "k1", "v1", "k2")), TypeMSet, StateKeyLF},
		{"eval zero keys", string(request("EVAL", "script", "0", "arg1")), TypeEval, StateArg2},
		{"eval non-digit numkeys", string(request("EVAL", "script", "1x", "k")), TypeEval, StateArg2},
		{"eval empty numkeys", string(request("EVAL", "script", "", "k")), TypeEval, StateArg2},
		{"eval numkeys beyond args", string(request("EVAL", "script", "3", "k1", "k2")), TypeEval, StateArg2},
		{"eval without keys", string(request("EVAL", "script")), TypeEval, StateArg1LF},
		{"streams without keys", string(request("XREAD", "COUNT", "1", "STREAMS")), TypeXRead, StateArgNLF},
		{"xread without args", string(request("XREAD")), TypeXRead, StateReqTypeLF},
		{"declared count too small", "*1\r\n$3\r\nGET\r\n$1\r\nk\r\n", TypeGet, StateReqTypeLF},
		{"declared count too large", "*3\r\n$3\r\nDEL\r\n$1\r\nk\r\n", TypeDel, StateKeyLen},
		{"missing payload CR", "*2\r\n$3\r\nGET\r\n$1\r\nkk\r\n", TypeGet, StateKey},
		{"payload LF missing", "*2\r\n$3\r\nGET\r\n$1\r\nk\rx", TypeGet, StateKeyLF},
		{"trailing bytes", string(request("GET", "k")) + "*", TypeGet, StateKeyLF},
		{"second request appended", string(request("PING")) + string(request("PING")), TypePing, StateReqTypeLF},
		{"length token without digits", "*2\r\n$3\r\nGET\r\n$\r\n\r\n", TypeGet, StateKeyLen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parse(t, []byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "err = %v", err)
			assert.False(t, errors.Is(err, ErrOutOfMemory))
			assert.Equal(t, ResultParseError, c.Result)
			require.NotNil(t, c.Err)
			assert.Equal(t, tt.typ, c.Type)
			assert.Equal(t, tt.typ, c.Err.Type)
			assert.Equal(t, tt.state, c.Err.State, "reason: %s", c.Err.Reason)
			assert.NotEmpty(t, c.Diagnostic())
			assert.Contains(t, c.Diagnostic(), "Parse command error")
		})
	}
}

func TestParse_TruncatedLengthPointsPastBuffer(t *testing.T) {
	full := request("MSET", "k1", "v1", "k2", "value-two")
	tests := []struct {
		name string
		raw  []byte
	}{
		{"cut inside last payload", full[:len(full)-5]},
		{"cut before last CR", full[:len(full)-2]},
		{"declared length too long", []byte("*2\r\n$3\r\nGET\r\n$9\r\nkey\r\n")},
		{"name length too long", []byte("*1\r\n$12\r\nPING\r\n")},
		{"name length beyond buffer", []byte("*1\r\n$99\r\nPING\r\n")},
		{"key length beyond buffer", []byte("*2\r\n$3\r\nGET\r\n$99\r\nkey\r\n")},
		{"key length 30", []byte("*2\r\n$3\r\nGET\r\n$30\r\nkey\r\n")},
		{"huge key length", []byte("*2\r\n$3\r\nGET\r\n$9223372036854775807999\r\nkey\r\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parse(t, tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
			assert.Equal(t, len(tt.raw), c.Err.Offset)
			assert.Contains(t, c.Err.Reason, "past end of buffer")
		})
	}
}

func TestParse_ErrorOffset(t *testing.T) {
	c, err := parse(t, []byte("*2\r\n$3\r\nGET\r\n#3\r\nkey\r\n"))
	require.Error(t, err)
	assert.Equal(t, 13, c.Err.Offset)
	assert.Equal(t, StateKeyLen, c.Err.State)
	assert.Contains(t, err.Error(), "Cmd type: 5/get")
	assert.Contains(t, err.Error(), "break position: 13")

	c, err = parse(t, []byte("*1\r\n$4\r\nPONG\r\n"))
	require.Error(t, err)
	assert.Equal(t, 8, c.Err.Offset)
	assert.Contains(t, err.Error(), "Unsupported!")
}

func TestParse_Deterministic(t *testing.T) {
	requests := [][]string{
		{"GET", "k"},
		{"MSET", "a", "1", "b", "2", "c", "3"},
		{"EVAL", "return 1", "2", "x", "y", "z"},
		{"XREADGROUP", "GROUP", "g", "c", "COUNT", "10", "STREAMS", "s1", "s2", ">", ">"},
		{"LINSERT", "l", "AFTER", "p", "v"},
		{"QUIT"},
	}
	for _, args := range requests {
		t.Run(args[0], func(t *testing.T) {
			c := NewAllocator().New(request(args...))
			require.NoError(t, Parse(c))
			first := *c
			firstKeys := append([]KeyPosition(nil), c.Keys...)

			require.NoError(t, Parse(c))
			assert.Equal(t, first.Type, c.Type)
			assert.Equal(t, first.NArg, c.NArg)
			assert.Equal(t, first.NoForward, c.NoForward)
			assert.Equal(t, first.Quit, c.Quit)
			assert.Equal(t, firstKeys, c.Keys)
		})
	}
}

func TestParse_ReparseClearsFailure(t *testing.T) {
	c := NewAllocator().New([]byte("*1\r\n$3\r\nGET\r\n"))
	require.Error(t, Parse(c))

	c.Raw = request("GET", "k")
	require.NoError(t, Parse(c))
	assert.Equal(t, ResultOK, c.Result)
	assert.Nil(t, c.Err)
	assert.Equal(t, []string{"k"}, keys(c))
}

func TestParse_KeysNeverOverlap(t *testing.T) {
	c, err := parse(t, request("DEL", "aa", "bbb", "", "c"))
	require.NoError(t, err)
	for i := 1; i < len(c.Keys); i++ {
		assert.LessOrEqual(t, c.Keys[i-1].End, c.Keys[i].Start)
	}
	assert.Equal(t, 0, c.Keys[2].Len())
}

func TestParser_MaxKeys(t *testing.T) {
	p := &Parser{MaxKeys: 2}

	c := NewAllocator().New(request("DEL", "a", "b"))
	require.NoError(t, p.Parse(c))

	c = NewAllocator().New(request("DEL", "a", "b", "c"))
	err := p.Parse(c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfMemory))
	assert.False(t, errors.Is(err, ErrMalformed))
	assert.Equal(t, ResultOutOfMemory, c.Result)
	assert.Equal(t, TypeDel, c.Err.Type)
	assert.Equal(t, StateKey, c.Err.State)
}

func TestParse_Released(t *testing.T) {
	a := NewAllocator()
	c := a.New(request("GET", "k"))
	require.NoError(t, a.Release(c))
	assert.ErrorIs(t, Parse(c), ErrReleased)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "key_lf", StateKeyLF.String())
	assert.Equal(t, "invalid", State(-1).String())
}
