package command

// Type identifies a supported Redis command.
//
// The zero value is TypeUnknown, which is both the initial classification of
// a fresh Command and the terminal classification of anything the table does
// not recognise.
type Type int

const (
	TypeUnknown Type = iota

	TypeXAdd
	TypeXAck
	TypeXRead
	TypeXReadGroup
	TypeGet
	TypeSet
	TypeTTL
	TypeDel
	TypePTTL
	TypeDecr
	TypeDump
	TypeHDel
	TypeHGet
	TypeHLen
	TypeHSet
	TypeIncr
	TypeLLen
	TypeLPop
	TypeLRem
	TypeLSet
	TypeRPop
	TypeSAdd
	TypeSPop
	TypeSRem
	TypeType
	TypeMGet
	TypeMSet
	TypeZAdd
	TypeZRem
	TypeEval
	TypeSort
	TypePing
	TypeQuit
	TypeAuth
	TypeHKeys
	TypeHMGet
	TypeHMSet
	TypeHVals
	TypeHScan
	TypeLPush
	TypeLTrim
	TypeRPush
	TypeSCard
	TypeSDiff
	TypeSetEx
	TypeSetNx
	TypeSMove
	TypeSScan
	TypeZCard
	TypeZRank
	TypeZScan
	TypePFAdd
	TypeAppend
	TypeDecrBy
	TypeExists
	TypeExpire
	TypeGetBit
	TypeGetSet
	TypePSetEx
	TypeHSetNx
	TypeIncrBy
	TypeLIndex
	TypeLPushX
	TypeLRange
	TypeRPushX
	TypeSetBit
	TypeSInter
	TypeStrLen
	TypeSUnion
	TypeZCount
	TypeZRange
	TypeZScore
	TypePersist
	TypePExpire
	TypeHExists
	TypeHGetAll
	TypeHIncrBy
	TypeLInsert
	TypeZIncrBy
	TypeEvalSha
	TypeRestore
	TypePFCount
	TypePFMerge
	TypeExpireAt
	TypeBitCount
	TypeGetRange
	TypeSetRange
	TypeSMembers
	TypeZRevRank
	TypePExpireAt
	TypeRPopLPush
	TypeSIsMember
	TypeZRevRange
	TypeZLexCount
	TypeSDiffStore
	TypeIncrByFloat
	TypeSInterStore
	TypeSRandMember
	TypeSUnionStore
	TypeZInterStore
	TypeZUnionStore
	TypeZRangeByLex
	TypeHIncrByFloat
	TypeZRangeByScore
	TypeZRemRangeByLex
	TypeZRemRangeByRank
	TypeZRemRangeByScore
	TypeZRevRangeByScore

	typeSentinel
)

// String returns the command caption, see Caption.
func (t Type) String() string { return Caption(t) }

// ArityClass is the shape of the argument sequence that follows a command
// name. It decides which bulk strings are keys and which are plain arguments.
type ArityClass int

const (
	ArityUnknown    ArityClass = iota
	ArityNoArgs                // PING, QUIT
	ArityArg0                  // key
	ArityArg1                  // key arg
	ArityArg2                  // key arg arg
	ArityArg3                  // key arg arg arg
	ArityArgN                  // key [arg ...]
	ArityVectorKeys            // key [key ...]
	ArityVectorKV              // key value [key value ...]
	ArityEval                  // script numkeys key [key ...] [arg ...]
	ArityStream                // [arg ...] STREAMS key [key ...]
)

var arityNames = [...]string{
	ArityUnknown:    "unknown",
	ArityNoArgs:     "no-args",
	ArityArg0:       "key",
	ArityArg1:       "key+1",
	ArityArg2:       "key+2",
	ArityArg3:       "key+3",
	ArityArgN:       "key+n",
	ArityVectorKeys: "keys",
	ArityVectorKV:   "key-value pairs",
	ArityEval:       "script",
	ArityStream:     "stream",
}

func (a ArityClass) String() string {
	if a < 0 || int(a) >= len(arityNames) {
		return arityNames[ArityUnknown]
	}
	return arityNames[a]
}

// KeyPosition is a non-owning view of one key argument: the half-open byte
// range [Start, End) of the owning Command's raw buffer.
type KeyPosition struct {
	Start int
	End   int
}

// Len returns the key length in bytes.
func (k KeyPosition) Len() int { return k.End - k.Start }

// Result is the tri-state outcome of parsing a request.
type Result int

const (
	ResultOK Result = iota
	ResultParseError
	ResultOutOfMemory
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultParseError:
		return "parse error"
	case ResultOutOfMemory:
		return "out of memory"
	default:
		return "invalid"
	}
}
