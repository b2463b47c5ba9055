package command

// Descriptor is one row of the static command table.
type Descriptor struct {
	Type      Type
	Name      string // lower case
	NoForward bool   // served locally, never sent to a cluster node
	Quit      bool   // the connection must be closed after the reply
}

// descriptors is the supported command set. Names and types are unique.
var descriptors = []Descriptor{
	{Type: TypeXAdd, Name: "xadd"},
	{Type: TypeXAck, Name: "xack"},
	{Type: TypeXRead, Name: "xread"},
	{Type: TypeXReadGroup, Name: "xreadgroup"},
	{Type: TypeGet, Name: "get"},
	{Type: TypeSet, Name: "set"},
	{Type: TypeTTL, Name: "ttl"},
	{Type: TypeDel, Name: "del"},
	{Type: TypePTTL, Name: "pttl"},
	{Type: TypeDecr, Name: "decr"},
	{Type: TypeDump, Name: "dump"},
	{Type: TypeHDel, Name: "hdel"},
	{Type: TypeHGet, Name: "hget"},
	{Type: TypeHLen, Name: "hlen"},
	{Type: TypeHSet, Name: "hset"},
	{Type: TypeIncr, Name: "incr"},
	{Type: TypeLLen, Name: "llen"},
	{Type: TypeLPop, Name: "lpop"},
	{Type: TypeLRem, Name: "lrem"},
	{Type: TypeLSet, Name: "lset"},
	{Type: TypeRPop, Name: "rpop"},
	{Type: TypeSAdd, Name: "sadd"},
	{Type: TypeSPop, Name: "spop"},
	{Type: TypeSRem, Name: "srem"},
	{Type: TypeType, Name: "type"},
	{Type: TypeMGet, Name: "mget"},
	{Type: TypeMSet, Name: "mset"},
	{Type: TypeZAdd, Name: "zadd"},
	{Type: TypeZRem, Name: "zrem"},
	{Type: TypeEval, Name: "eval"},
	{Type: TypeSort, Name: "sort"},
	{Type: TypePing, Name: "ping", NoForward: true},
	{Type: TypeQuit, Name: "quit", NoForward: true, Quit: true},
	{Type: TypeAuth, Name: "auth", NoForward: true},
	{Type: TypeHKeys, Name: "hkeys"},
	{Type: TypeHMGet, Name: "hmget"},
	{Type: TypeHMSet, Name: "hmset"},
	{Type: TypeHVals, Name: "hvals"},
	{Type: TypeHScan, Name: "hscan"},
	{Type: TypeLPush, Name: "lpush"},
	{Type: TypeLTrim, Name: "ltrim"},
	{Type: TypeRPush, Name: "rpush"},
	{Type: TypeSCard, Name: "scard"},
	{Type: TypeSDiff, Name: "sdiff"},
	{Type: TypeSetEx, Name: "setex"},
	{Type: TypeSetNx, Name: "setnx"},
	{Type: TypeSMove, Name: "smove"},
	{Type: TypeSScan, Name: "sscan"},
	{Type: TypeZCard, Name: "zcard"},
	{Type: TypeZRank, Name: "zrank"},
	{Type: TypeZScan, Name: "zscan"},
	{Type: TypePFAdd, Name: "pfadd"},
	{Type: TypeAppend, Name: "append"},
	{Type: TypeDecrBy, Name: "decrby"},
	{Type: TypeExists, Name: "exists"},
	{Type: TypeExpire, Name: "expire"},
	{Type: TypeGetBit, Name: "getbit"},
	{Type: TypeGetSet, Name: "getset"},
	{Type: TypePSetEx, Name: "psetex"},
	{Type: TypeHSetNx, Name: "hsetnx"},
	{Type: TypeIncrBy, Name: "incrby"},
	{Type: TypeLIndex, Name: "lindex"},
	{Type: TypeLPushX, Name: "lpushx"},
	{Type: TypeLRange, Name: "lrange"},
	{Type: TypeRPushX, Name: "rpushx"},
	{Type: TypeSetBit, Name: "setbit"},
	{Type: TypeSInter, Name: "sinter"},
	{Type: TypeStrLen, Name: "strlen"},
	{Type: TypeSUnion, Name: "sunion"},
	{Type: TypeZCount, Name: "zcount"},
	{Type: TypeZRange, Name: "zrange"},
	{Type: TypeZScore, Name: "zscore"},
	{Type: TypePersist, Name: "persist"},
	{Type: TypePExpire, Name: "pexpire"},
	{Type: TypeHExists, Name: "hexists"},
	{Type: TypeHGetAll, Name: "hgetall"},
	{Type: TypeHIncrBy, Name: "hincrby"},
	{Type: TypeLInsert, Name: "linsert"},
	{Type: TypeZIncrBy, Name: "zincrby"},
	{Type: TypeEvalSha, Name: "evalsha"},
	{Type: TypeRestore, Name: "restore"},
	{Type: TypePFCount, Name: "pfcount"},
	{Type: TypePFMerge, Name: "pfmerge"},
	{Type: TypeExpireAt, Name: "expireat"},
	{Type: TypeBitCount, Name: "bitcount"},
	{Type: TypeGetRange, Name: "getrange"},
	{Type: TypeSetRange, Name: "setrange"},
	{Type: TypeSMembers, Name: "smembers"},
	{Type: TypeZRevRank, Name: "zrevrank"},
	{Type: TypePExpireAt, Name: "pexpireat"},
	{Type: TypeRPopLPush, Name: "rpoplpush"},
	{Type: TypeSIsMember, Name: "sismember"},
	{Type: TypeZRevRange, Name: "zrevrange"},
	{Type: TypeZLexCount, Name: "zlexcount"},
	{Type: TypeSDiffStore, Name: "sdiffstore"},
	{Type: TypeIncrByFloat, Name: "incrbyfloat"},
	{Type: TypeSInterStore, Name: "sinterstore"},
	{Type: TypeSRandMember, Name: "srandmember"},
	{Type: TypeSUnionStore, Name: "sunionstore"},
	{Type: TypeZInterStore, Name: "zinterstore"},
	{Type: TypeZUnionStore, Name: "zunionstore"},
	{Type: TypeZRangeByLex, Name: "zrangebylex"},
	{Type: TypeHIncrByFloat, Name: "hincrbyfloat"},
	{Type: TypeZRangeByScore, Name: "zrangebyscore"},
	{Type: TypeZRemRangeByLex, Name: "zremrangebylex"},
	{Type: TypeZRemRangeByRank, Name: "zremrangebyrank"},
	{Type: TypeZRemRangeByScore, Name: "zremrangebyscore"},
	{Type: TypeZRevRangeByScore, Name: "zrevrangebyscore"},
}

// unsupportedCaption is returned by Caption for TypeUnknown and anything the
// table does not know.
const unsupportedCaption = "Unsupported!"

// maxNameLen is the longest command name in the table.
const maxNameLen = len("zrevrangebyscore")

var (
	// byLength buckets descriptor indexes by exact name length.
	byLength [maxNameLen + 1][]int
	// byType maps a Type to its descriptor index.
	byType [typeSentinel]int
)

func init() {
	for i := range byType {
		byType[i] = -1
	}
	for i, d := range descriptors {
		n := len(d.Name)
		if n > maxNameLen {
			panic("command: name longer than maxNameLen: " + d.Name)
		}
		if byType[d.Type] != -1 {
			panic("command: duplicate table entry: " + d.Name)
		}
		byLength[n] = append(byLength[n], i)
		byType[d.Type] = i
	}
}

// Lookup resolves a command name. The match is exact on byte length and
// ASCII case-insensitive on content; prefixes never match.
func Lookup(name []byte) (Descriptor, bool) {
	if len(name) == 0 || len(name) > maxNameLen {
		return Descriptor{}, false
	}
	for _, i := range byLength[len(name)] {
		if equalFold(name, descriptors[i].Name) {
			return descriptors[i], true
		}
	}
	return Descriptor{}, false
}

// Resolve returns the Type for name, or TypeUnknown.
func Resolve(name []byte) Type {
	d, ok := Lookup(name)
	if !ok {
		return TypeUnknown
	}
	return d.Type
}

// Caption returns the command name for t, or "Unsupported!" for TypeUnknown
// and unknown values.
func Caption(t Type) string {
	if t <= TypeUnknown || t >= typeSentinel || byType[t] < 0 {
		return unsupportedCaption
	}
	return descriptors[byType[t]].Name
}

// Names returns every command name in table order. The slice is a copy.
func Names() []string {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}
	return names
}

// equalFold compares b to the lower case ASCII name s ignoring ASCII case.
// Callers guarantee len(b) == len(s).
func equalFold(b []byte, s string) bool {
	for i := 0; i < len(b); i++ {
		c := b[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != s[i] {
			return false
		}
	}
	return true
}
