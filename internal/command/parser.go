package command

// Requests use the Redis unified protocol:
//
//	*<number of arguments> CR LF
//	$<number of bytes of argument 1> CR LF
//	<argument data> CR LF
//	...
//	$<number of bytes of argument N> CR LF
//	<argument data> CR LF
//
// Inline commands are not accepted. The buffer handed to the parser must hold
// exactly one complete request; running out of bytes is a protocol error, not
// a request for more input.

// State is a position in the request grammar. Every bulk string group is four
// consecutive states: length, length LF, payload, payload LF.
type State int

const (
	StateStart State = iota
	StateNArg
	StateNArgLF
	StateReqTypeLen
	StateReqTypeLenLF
	StateReqType
	StateReqTypeLF
	StateKeyLen
	StateKeyLenLF
	StateKey
	StateKeyLF
	StateArg1Len
	StateArg1LenLF
	StateArg1
	StateArg1LF
	StateArg2Len
	StateArg2LenLF
	StateArg2
	StateArg2LF
	StateArg3Len
	StateArg3LenLF
	StateArg3
	StateArg3LF
	StateArgNLen
	StateArgNLenLF
	StateArgN
	StateArgNLF
	stateSentinel
)

var stateNames = [...]string{
	StateStart:        "start",
	StateNArg:         "narg",
	StateNArgLF:       "narg_lf",
	StateReqTypeLen:   "req_type_len",
	StateReqTypeLenLF: "req_type_len_lf",
	StateReqType:      "req_type",
	StateReqTypeLF:    "req_type_lf",
	StateKeyLen:       "key_len",
	StateKeyLenLF:     "key_len_lf",
	StateKey:          "key",
	StateKeyLF:        "key_lf",
	StateArg1Len:      "arg1_len",
	StateArg1LenLF:    "arg1_len_lf",
	StateArg1:         "arg1",
	StateArg1LF:       "arg1_lf",
	StateArg2Len:      "arg2_len",
	StateArg2LenLF:    "arg2_len_lf",
	StateArg2:         "arg2",
	StateArg2LF:       "arg2_lf",
	StateArg3Len:      "arg3_len",
	StateArg3LenLF:    "arg3_len_lf",
	StateArg3:         "arg3",
	StateArg3LF:       "arg3_lf",
	StateArgNLen:      "argn_len",
	StateArgNLenLF:    "argn_len_lf",
	StateArgN:         "argn",
	StateArgNLF:       "argn_lf",
}

func (s State) String() string {
	if s < 0 || s >= stateSentinel {
		return "invalid"
	}
	return stateNames[s]
}

const (
	cr = '\r'
	lf = '\n'
)

// streamsKeyword switches stream commands from plain arguments to keys.
const streamsKeyword = "streams"

// Parser classifies requests and extracts their key positions.
// The zero value has no key limit.
type Parser struct {
	// MaxKeys caps the key list of one request; 0 means no cap. Hitting the
	// cap is reported as ResultOutOfMemory.
	MaxKeys int
}

var defaultParser Parser

// Parse runs the default Parser over c.Raw.
func Parse(c *Command) error {
	return defaultParser.Parse(c)
}

// Parse classifies c.Raw and records the type, flags, key positions and
// outcome on c. The returned error is c.Err, or nil when parsing succeeded.
// Parsing the same buffer again yields the same result.
func (p *Parser) Parse(c *Command) error {
	if c.released {
		return ErrReleased
	}

	c.Type = TypeUnknown
	c.Keys = c.Keys[:0]
	c.NArg, c.NArgStart, c.NArgEnd = 0, 0, 0
	c.NoForward, c.Quit = false, false
	c.Result, c.Err = ResultOK, nil

	f := fsa{cmd: c, buf: c.Raw, maxKeys: p.MaxKeys, token: -1}
	if perr := f.run(); perr != nil {
		c.Err = perr
		if perr.oom {
			c.Result = ResultOutOfMemory
		} else {
			c.Result = ResultParseError
		}
		return perr
	}
	return nil
}

// fsa holds the running state of one parse.
type fsa struct {
	cmd     *Command
	buf     []byte
	maxKeys int

	state  State
	p      int // current byte
	token  int // start of the current length token, -1 outside one
	digits int // digits seen in the current length token
	rlen   int // running length of the current bulk string
	rnarg  int // bulk strings still to come
	nkeys  int // EVAL keys still to come

	argStart, argEnd int // byte range of the last plain argument
}

func (f *fsa) run() *ParseError {
	buf := f.buf
	c := f.cmd

	for f.p = 0; f.p < len(buf); f.p++ {
		ch := buf[f.p]

		switch f.state {
		case StateStart:
			if ch != '*' {
				return f.fail("expected '*'")
			}
			c.NArgStart = f.p
			f.rnarg, f.digits = 0, 0
			f.state = StateNArg

		case StateNArg:
			switch {
			case isDigit(ch):
				if !f.accumulate(&f.rnarg, ch) {
					return f.fail("argument count too large")
				}
			case ch == cr:
				if f.digits == 0 || f.rnarg == 0 {
					return f.fail("argument count must be positive")
				}
				c.NArg = f.rnarg
				c.NArgEnd = f.p
				f.state = StateNArgLF
			default:
				return f.fail("non-digit in argument count")
			}

		case StateReqTypeLen, StateKeyLen, StateArg1Len, StateArg2Len, StateArg3Len, StateArgNLen:
			done, err := f.length(ch)
			if err != nil {
				return err
			}
			if done {
				if f.state == StateReqTypeLen && f.rlen == 0 {
					return f.fail("empty command name")
				}
				f.state++
			}

		case StateNArgLF, StateReqTypeLenLF, StateKeyLenLF, StateArg1LenLF, StateArg2LenLF, StateArg3LenLF, StateArgNLenLF:
			if ch != lf {
				return f.fail("expected LF")
			}
			if f.state == StateNArgLF {
				f.state = StateReqTypeLen
			} else {
				f.state++
			}

		case StateReqType:
			start, end, err := f.payload()
			if err != nil {
				return err
			}
			d, ok := Lookup(buf[start:end])
			if !ok {
				return f.failAt(start, "unknown command")
			}
			c.Type = d.Type
			c.NoForward = d.NoForward
			c.Quit = d.Quit
			f.state = StateReqTypeLF

		case StateKey:
			start, end, err := f.payload()
			if err != nil {
				return err
			}
			if f.maxKeys > 0 && len(c.Keys) >= f.maxKeys {
				return f.oom()
			}
			c.Keys = append(c.Keys, KeyPosition{Start: start, End: end})
			f.state = StateKeyLF

		case StateArg1, StateArg3, StateArgN:
			start, end, err := f.payload()
			if err != nil {
				return err
			}
			f.argStart, f.argEnd = start, end
			f.state++

		case StateArg2:
			start, end, err := f.payload()
			if err != nil {
				return err
			}
			f.argStart, f.argEnd = start, end
			if ArityOf(c.Type) == ArityEval {
				if err := f.numkeys(start, end); err != nil {
					return err
				}
			}
			f.state = StateArg2LF

		case StateReqTypeLF, StateKeyLF, StateArg1LF, StateArg2LF, StateArg3LF, StateArgNLF:
			if ch != lf {
				return f.fail("expected LF")
			}
			done, err := f.next()
			if err != nil {
				return err
			}
			if done {
				return f.finish()
			}

		default:
			panic("command: parser reached invalid state " + f.state.String())
		}
	}

	f.p = len(buf)
	return f.fail("request ended early")
}

// next picks the state after a bulk string terminator from the arity class.
// It reports done when the request is complete.
func (f *fsa) next() (bool, *ParseError) {
	class := ArityOf(f.cmd.Type)

	switch f.state {
	case StateReqTypeLF:
		switch class {
		case ArityNoArgs:
			if f.rnarg != 0 {
				return false, f.fail("command takes no arguments")
			}
			return true, nil
		case ArityEval, ArityStream:
			if f.rnarg == 0 {
				return false, f.fail("missing arguments")
			}
			f.state = StateArg1Len
		default:
			if f.rnarg == 0 {
				return false, f.fail("missing key")
			}
			f.state = StateKeyLen
		}

	case StateKeyLF:
		switch class {
		case ArityArg0:
			if f.rnarg != 0 {
				return false, f.fail("wrong number of arguments")
			}
			return true, nil
		case ArityArg1, ArityArg2, ArityArg3:
			if f.rnarg != int(class-ArityArg0) {
				return false, f.fail("wrong number of arguments")
			}
			f.state = StateArg1Len
		case ArityArgN:
			if f.rnarg == 0 {
				return true, nil
			}
			f.state = StateArg1Len
		case ArityVectorKeys, ArityStream:
			if f.rnarg == 0 {
				return true, nil
			}
			f.state = StateKeyLen
		case ArityVectorKV:
			if f.cmd.NArg%2 == 0 {
				return false, f.fail("key/value command needs an odd argument count")
			}
			if f.rnarg == 0 {
				return false, f.fail("missing value")
			}
			f.state = StateArg1Len
		case ArityEval:
			f.nkeys--
			switch {
			case f.nkeys > 0:
				f.state = StateKeyLen
			case f.rnarg == 0:
				return true, nil
			default:
				f.state = StateArgNLen
			}
		default:
			return false, f.fail("unexpected key")
		}

	case StateArg1LF:
		switch class {
		case ArityArg1:
			if f.rnarg != 0 {
				return false, f.fail("wrong number of arguments")
			}
			return true, nil
		case ArityArg2, ArityArg3:
			if f.rnarg != int(class-ArityArg1) {
				return false, f.fail("wrong number of arguments")
			}
			f.state = StateArg2Len
		case ArityArgN:
			if f.rnarg == 0 {
				return true, nil
			}
			f.state = StateArgNLen
		case ArityEval:
			if f.rnarg < 2 {
				return false, f.fail("missing numkeys or keys")
			}
			f.state = StateArg2Len
		case ArityVectorKV:
			if f.rnarg == 0 {
				return true, nil
			}
			f.state = StateKeyLen
		case ArityStream:
			return f.afterStreamArg()
		default:
			return false, f.fail("unexpected argument")
		}

	case StateArg2LF:
		switch class {
		case ArityArg2:
			if f.rnarg != 0 {
				return false, f.fail("wrong number of arguments")
			}
			return true, nil
		case ArityArg3:
			if f.rnarg != 1 {
				return false, f.fail("wrong number of arguments")
			}
			f.state = StateArg3Len
		case ArityEval:
			if f.rnarg < 1 {
				return false, f.fail("missing keys")
			}
			f.state = StateKeyLen
		default:
			return false, f.fail("unexpected argument")
		}

	case StateArg3LF:
		if class != ArityArg3 || f.rnarg != 0 {
			return false, f.fail("wrong number of arguments")
		}
		return true, nil

	case StateArgNLF:
		switch class {
		case ArityArgN, ArityEval:
			if f.rnarg == 0 {
				return true, nil
			}
			f.state = StateArgNLen
		case ArityStream:
			return f.afterStreamArg()
		default:
			return false, f.fail("unexpected argument")
		}
	}

	return false, nil
}

// afterStreamArg switches to keys once the last argument was STREAMS.
// Everything after the keyword is taken as a key, stream ids included.
func (f *fsa) afterStreamArg() (bool, *ParseError) {
	arg := f.buf[f.argStart:f.argEnd]
	if len(arg) == len(streamsKeyword) && equalFold(arg, streamsKeyword) {
		if f.rnarg == 0 {
			return false, f.fail("STREAMS without keys")
		}
		f.state = StateKeyLen
		return false, nil
	}
	if f.rnarg == 0 {
		return true, nil
	}
	f.state = StateArgNLen
	return false, nil
}

// length consumes one byte of a "$<len>" token. It reports done on the CR
// that ends the token, after charging the bulk string against rnarg.
func (f *fsa) length(ch byte) (bool, *ParseError) {
	switch {
	case f.token < 0:
		if ch != '$' {
			return false, f.fail("expected '$'")
		}
		f.token = f.p
		f.rlen, f.digits = 0, 0
	case isDigit(ch):
		// A length past the end of the buffer is reported by payload, at
		// len(buf), like any other truncation.
		if !f.accumulate(&f.rlen, ch) {
			f.rlen = len(f.buf) + 1
		}
	case ch == cr:
		if f.digits == 0 {
			return false, f.fail("missing bulk length")
		}
		if f.rnarg == 0 {
			return false, f.fail("more bulk strings than declared")
		}
		f.rnarg--
		f.token = -1
		return true, nil
	default:
		return false, f.fail("non-digit in bulk length")
	}
	return false, nil
}

// payload skips the rlen bytes of the current bulk string and leaves f.p on
// its CR. It returns the payload range.
func (f *fsa) payload() (start, end int, err *ParseError) {
	start = f.p
	end = start + f.rlen
	if end >= len(f.buf) {
		f.p = len(f.buf)
		return 0, 0, f.fail("bulk string runs past end of buffer")
	}
	if f.buf[end] != cr {
		f.p = end
		return 0, 0, f.fail("bulk string not terminated by CR")
	}
	f.p = end
	f.rlen = 0
	return start, end, nil
}

// numkeys decodes the EVAL key count held in buf[start:end].
func (f *fsa) numkeys(start, end int) *ParseError {
	if start == end {
		return f.failAt(start, "empty numkeys")
	}
	n := 0
	for i := start; i < end; i++ {
		ch := f.buf[i]
		if !isDigit(ch) {
			return f.failAt(i, "non-digit in numkeys")
		}
		n = n*10 + int(ch-'0')
		if n > f.rnarg {
			return f.failAt(start, "numkeys exceeds remaining arguments")
		}
	}
	if n == 0 {
		return f.failAt(start, "numkeys must be positive")
	}
	f.nkeys = n
	return nil
}

// accumulate adds a decimal digit to *v. Values larger than the buffer
// cannot describe anything inside it and are rejected before they overflow.
func (f *fsa) accumulate(v *int, ch byte) bool {
	*v = *v*10 + int(ch-'0')
	f.digits++
	return *v <= len(f.buf)
}

// finish accepts the request only if the terminator just read is the last
// byte of the buffer.
func (f *fsa) finish() *ParseError {
	if f.cmd.Type == TypeUnknown {
		return f.fail("unknown command")
	}
	if f.p != len(f.buf)-1 {
		return f.failAt(f.p+1, "trailing bytes after request")
	}
	return nil
}

func (f *fsa) fail(reason string) *ParseError {
	return f.failAt(f.p, reason)
}

func (f *fsa) failAt(offset int, reason string) *ParseError {
	return &ParseError{Type: f.cmd.Type, State: f.state, Offset: offset, Reason: reason}
}

func (f *fsa) oom() *ParseError {
	return &ParseError{Type: f.cmd.Type, State: f.state, Offset: f.p, Reason: "key list exhausted", oom: true}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
