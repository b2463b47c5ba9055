package resp

import "strconv"

// ValueType is the kind of a RESP reply value.
type ValueType int

const (
	TypeNone ValueType = iota
	TypeString
	TypeInteger
	TypeBulkString
	TypeArray
	TypeNull
	TypeError
)

// RedisValue is a decoded reply, or one the server is about to write.
type RedisValue interface {
	Type() ValueType
	StringValue() string
}

// RedisString is a simple string (+).
type RedisString struct {
	Value string
}

func (s RedisString) Type() ValueType     { return TypeString }
func (s RedisString) StringValue() string { return s.Value }

// RedisBulkString is a bulk string ($). Value may hold arbitrary bytes.
type RedisBulkString struct {
	Value  string
	Length int
}

// Bulk returns a bulk string with its length filled in.
func Bulk(v string) RedisBulkString {
	return RedisBulkString{Value: v, Length: len(v)}
}

func (b RedisBulkString) Type() ValueType     { return TypeBulkString }
func (b RedisBulkString) StringValue() string { return b.Value }

// RedisInteger is an integer (:).
type RedisInteger struct {
	IntValue int64
}

func (i RedisInteger) Type() ValueType { return TypeInteger }
func (i RedisInteger) StringValue() string {
	return strconv.FormatInt(i.IntValue, 10)
}

// RedisArray is an array (*) of nested values.
type RedisArray struct {
	Values []RedisValue
}

func (a RedisArray) Type() ValueType { return TypeArray }

// StringValue is empty; callers walk Values instead.
func (a RedisArray) StringValue() string { return "" }

// RedisError is an error reply (-).
type RedisError struct {
	Value string
}

func (e RedisError) Type() ValueType     { return TypeError }
func (e RedisError) StringValue() string { return e.Value }

// RedisNull is the null bulk string ($-1) or null array (*-1).
type RedisNull struct{}

func (n RedisNull) Type() ValueType     { return TypeNull }
func (n RedisNull) StringValue() string { return "" }
