package resp

import (
	"fmt"
	"strings"
	"unicode"
)

// Tokenize splits an inline command line into arguments. Whitespace outside
// double quotes separates arguments. Inside quotes, backslash escapes \n, \r,
// \t, \\, \" and \xHH are decoded; outside quotes a backslash takes the next
// character literally. A quoted empty string yields an empty argument.
func Tokenize(line string) ([]string, error) {
	var (
		tokens   []string
		current  strings.Builder
		inQuotes bool
		started  bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == '\\':
			if i+1 >= len(runes) {
				return nil, fmt.Errorf("dangling backslash at end of line")
			}
			i++
			if !inQuotes {
				current.WriteRune(runes[i])
				started = true
				continue
			}
			n, err := unescape(runes, i, &current)
			if err != nil {
				return nil, err
			}
			i = n
		case r == '"':
			inQuotes = !inQuotes
			started = true
		case unicode.IsSpace(r) && !inQuotes:
			if started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}

	if inQuotes {
		return nil, fmt.Errorf("unbalanced quotes")
	}
	if started {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

// unescape decodes the escape whose letter is runes[i] and returns the index
// of its last rune.
func unescape(runes []rune, i int, b *strings.Builder) (int, error) {
	switch runes[i] {
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'x':
		if i+2 >= len(runes) {
			return 0, fmt.Errorf("short \\x escape")
		}
		hi, ok1 := hexVal(runes[i+1])
		lo, ok2 := hexVal(runes[i+2])
		if !ok1 || !ok2 {
			return 0, fmt.Errorf("invalid \\x escape %q", string(runes[i-1:i+3]))
		}
		b.WriteByte(hi<<4 | lo)
		return i + 2, nil
	default:
		b.WriteRune(runes[i])
	}
	return i, nil
}

func hexVal(r rune) (byte, bool) {
	switch {
	case '0' <= r && r <= '9':
		return byte(r - '0'), true
	case 'a' <= r && r <= 'f':
		return byte(r-'a') + 10, true
	case 'A' <= r && r <= 'F':
		return byte(r-'A') + 10, true
	}
	return 0, false
}
