package command

// ArityOf derives the argument shape of t. Every known type belongs to
// exactly one class; TypeUnknown yields ArityUnknown.
func ArityOf(t Type) ArityClass {
	switch {
	case argz(t):
		return ArityNoArgs
	case argx(t):
		return ArityVectorKeys
	case argkvx(t):
		return ArityVectorKV
	case argeval(t):
		return ArityEval
	case argstream(t):
		return ArityStream
	case argn(t):
		return ArityArgN
	}
	if n, ok := argFixed(t); ok {
		return ArityArg0 + ArityClass(n)
	}
	return ArityUnknown
}

// argz reports commands that take no key at all.
func argz(t Type) bool {
	switch t {
	case TypePing, TypeQuit:
		return true
	}
	return false
}

// argFixed reports commands taking one key followed by exactly n arguments.
func argFixed(t Type) (n int, ok bool) {
	switch t {
	case TypeExists, TypePersist, TypePTTL, TypeSort, TypeTTL, TypeType, TypeDump,
		TypeDecr, TypeGet, TypeIncr, TypeStrLen,
		TypeHGetAll, TypeHKeys, TypeHLen, TypeHVals,
		TypeLLen, TypeLPop, TypeRPop,
		TypeSCard, TypeSMembers, TypeSPop,
		TypeZCard, TypePFCount, TypeAuth:
		return 0, true

	case TypeExpire, TypeExpireAt, TypePExpire, TypePExpireAt,
		TypeAppend, TypeDecrBy, TypeGetBit, TypeGetSet, TypeIncrBy, TypeIncrByFloat, TypeSetNx,
		TypeHExists, TypeHGet,
		TypeLIndex, TypeLPushX, TypeRPopLPush, TypeRPushX,
		TypeSIsMember,
		TypeZRank, TypeZRevRank, TypeZScore:
		return 1, true

	case TypeGetRange, TypePSetEx, TypeSetBit, TypeSetEx, TypeSetRange,
		TypeHIncrBy, TypeHIncrByFloat, TypeHSet, TypeHSetNx,
		TypeLRange, TypeLRem, TypeLSet, TypeLTrim,
		TypeSMove,
		TypeZCount, TypeZLexCount, TypeZIncrBy, TypeZRemRangeByLex, TypeZRemRangeByRank, TypeZRemRangeByScore,
		TypeRestore:
		return 2, true

	case TypeLInsert:
		return 3, true
	}
	return 0, false
}

// argn reports commands taking one key followed by any number of arguments.
func argn(t Type) bool {
	switch t {
	case TypeBitCount,
		TypeSet, TypeHDel, TypeHMGet, TypeHMSet, TypeHScan,
		TypeLPush, TypeRPush,
		TypeSAdd, TypeSDiff, TypeSDiffStore, TypeSInter, TypeSInterStore, TypeSRem,
		TypeSUnion, TypeSUnionStore, TypeSRandMember, TypeSScan,
		TypePFAdd, TypePFMerge,
		TypeZAdd, TypeZInterStore, TypeZRange, TypeZRangeByScore, TypeZRem, TypeZRevRange,
		TypeZRangeByLex, TypeZRevRangeByScore, TypeZUnionStore, TypeZScan:
		return true
	}
	return false
}

// argx reports vector commands whose every argument is a key.
func argx(t Type) bool {
	switch t {
	case TypeMGet, TypeDel:
		return true
	}
	return false
}

// argkvx reports vector commands of alternating keys and values.
func argkvx(t Type) bool {
	return t == TypeMSet
}

// argeval reports EVAL and EVALSHA: script, numkeys, keys, then arguments.
func argeval(t Type) bool {
	switch t {
	case TypeEval, TypeEvalSha:
		return true
	}
	return false
}

// argstream reports stream commands whose keys follow a STREAMS token.
func argstream(t Type) bool {
	switch t {
	case TypeXAdd, TypeXAck, TypeXRead, TypeXReadGroup:
		return true
	}
	return false
}
