package resp

import (
	"strconv"
	"strings"
)

// EncodeRequest builds a unified protocol request from its arguments, the
// command name first.
func EncodeRequest(args [][]byte) []byte {
	size := 1 + 20 + 2
	for _, a := range args {
		size += 1 + 20 + 2 + len(a) + 2
	}
	buf := make([]byte, 0, size)
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(len(args)), 10)
	buf = append(buf, '\r', '\n')
	for _, a := range args {
		buf = appendBulk(buf, a)
	}
	return buf
}

// EncodeStrings is EncodeRequest for string arguments.
func EncodeStrings(args ...string) []byte {
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	return EncodeRequest(raw)
}

// Encode serialises v. Simple strings and errors have CR and LF replaced by
// spaces so that they stay on one line.
func Encode(v RedisValue) []byte {
	return appendValue(nil, v)
}

func appendValue(buf []byte, v RedisValue) []byte {
	switch v := v.(type) {
	case RedisString:
		buf = append(buf, '+')
		buf = append(buf, oneLine(v.Value)...)
		return append(buf, '\r', '\n')
	case RedisError:
		buf = append(buf, '-')
		buf = append(buf, oneLine(v.Value)...)
		return append(buf, '\r', '\n')
	case RedisInteger:
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, v.IntValue, 10)
		return append(buf, '\r', '\n')
	case RedisBulkString:
		return appendBulk(buf, []byte(v.Value))
	case RedisArray:
		buf = append(buf, '*')
		buf = strconv.AppendInt(buf, int64(len(v.Values)), 10)
		buf = append(buf, '\r', '\n')
		for _, e := range v.Values {
			buf = appendValue(buf, e)
		}
		return buf
	default:
		return append(buf, "$-1\r\n"...)
	}
}

func appendBulk(buf, b []byte) []byte {
	buf = append(buf, '$')
	buf = strconv.AppendInt(buf, int64(len(b)), 10)
	buf = append(buf, '\r', '\n')
	buf = append(buf, b...)
	return append(buf, '\r', '\n')
}

var lineReplacer = strings.NewReplacer("\r", " ", "\n", " ")

func oneLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return lineReplacer.Replace(s)
}
