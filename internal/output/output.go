package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/cosmez/keyparse-go/internal/command"
	"github.com/cosmez/keyparse-go/internal/resp"
)

// PrintOpts configures how commands and replies are printed.
type PrintOpts struct {
	Color   bool
	Padding string
	Newline bool
	// MaxKeyWidth truncates quoted keys to this many bytes; 0 keeps them whole.
	MaxKeyWidth int
}

var (
	colorString  = color.New(color.FgHiBlue)
	colorInteger = color.New(color.FgHiGreen)
	colorError   = color.New(color.FgRed, color.Bold)
	colorNull    = color.New(color.FgHiBlack)
	colorArray   = color.New(color.FgHiYellow)
	colorIndex   = color.New(color.FgHiBlack)
	colorCommand = color.New(color.FgHiCyan, color.Bold)
)

// digitWidth returns the number of digits in n.
func digitWidth(n int) int {
	if n <= 0 {
		return 1
	}
	w := 0
	for n > 0 {
		w++
		n /= 10
	}
	return w
}

func paint(w io.Writer, useColor bool, c *color.Color, s string) {
	if useColor && c != nil {
		c.Fprint(w, s)
	} else {
		fmt.Fprint(w, s)
	}
}

// printIndex writes an index string (e.g. " 1) "), optionally colored.
func printIndex(w io.Writer, idx string, useColor bool) {
	paint(w, useColor, colorIndex, idx)
}

// quoteKey renders a key as a Go-quoted string, truncated to max bytes.
func quoteKey(key []byte, max int) string {
	q := strconv.Quote(string(key))
	if max > 3 && len(q) > max {
		return q[:max-3] + "..."
	}
	return q
}

func flagList(c *command.Command) string {
	var flags []string
	if c.NoForward {
		flags = append(flags, "noforward")
	}
	if c.Quit {
		flags = append(flags, "quit")
	}
	return strings.Join(flags, " ")
}

// PrintCommand renders a classified command: id, caption, arity class, slot
// and flags on the first line, then every key with its byte range, then any
// sub-commands indented beneath. Failed commands show their diagnostic.
func PrintCommand(w io.Writer, c *command.Command, opts PrintOpts) {
	pad := opts.Padding
	printIndex(w, fmt.Sprintf("%s#%d ", pad, c.ID), opts.Color)

	if c.Result != command.ResultOK {
		paint(w, opts.Color, colorError, c.Result.String())
		fmt.Fprintln(w)
		fmt.Fprint(w, pad+"  ")
		paint(w, opts.Color, colorError, c.Diagnostic())
		fmt.Fprintln(w)
		return
	}

	paint(w, opts.Color, colorCommand, c.Type.String())
	fmt.Fprintf(w, " (%s)", c.Arity())
	if c.Slot >= 0 {
		fmt.Fprint(w, " slot ")
		paint(w, opts.Color, colorInteger, strconv.Itoa(c.Slot))
	}
	if flags := flagList(c); flags != "" {
		fmt.Fprint(w, " ")
		paint(w, opts.Color, colorNull, "["+flags+"]")
	}
	fmt.Fprintln(w)

	digits := digitWidth(len(c.Keys))
	for i, k := range c.Keys {
		fmt.Fprint(w, pad+"  ")
		printIndex(w, fmt.Sprintf("%*d) ", digits, i+1), opts.Color)
		paint(w, opts.Color, colorString, quoteKey(c.Key(i), opts.MaxKeyWidth))
		fmt.Fprintf(w, " @%d..%d", k.Start, k.End)
		if i < len(c.FragSeq) && c.FragSeq[i] < len(c.SubCommands) {
			fmt.Fprintf(w, " -> #%d", c.SubCommands[c.FragSeq[i]].ID)
		}
		fmt.Fprintln(w)
	}

	childOpts := opts
	childOpts.Padding = pad + "  "
	for _, sub := range c.SubCommands {
		PrintCommand(w, sub, childOpts)
	}
}

// WriteTSV writes one tab-separated line per command and sub-command:
// id, parent id (0 for top level), caption, result, slot, key count, keys.
// Keys are Go-quoted and separated by spaces. Failed commands carry the
// diagnostic in place of the keys.
func WriteTSV(w io.Writer, c *command.Command) {
	var parent uint64
	if p := c.Parent(); p != nil {
		parent = p.ID
	}
	tail := c.Diagnostic()
	if c.Result == command.ResultOK {
		quoted := make([]string, len(c.Keys))
		for i := range c.Keys {
			quoted[i] = strconv.Quote(string(c.Key(i)))
		}
		tail = strings.Join(quoted, " ")
	}
	fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%d\t%s\n",
		c.ID, parent, c.Type, c.Result, c.Slot, len(c.Keys), tail)
	for _, sub := range c.SubCommands {
		WriteTSV(w, sub)
	}
}

// PrintRedisValue prints a reply with optional ANSI colors.
func PrintRedisValue(w io.Writer, v resp.RedisValue, opts PrintOpts) {
	if v == nil {
		return
	}

	switch val := v.(type) {
	case resp.RedisArray:
		if len(val.Values) == 0 {
			paint(w, opts.Color, colorNull, "(empty array)")
			if opts.Newline {
				fmt.Fprintln(w)
			}
			return
		}

		// Right-aligned indices; the first element of a nested array is
		// printed inline after its parent's index.
		digits := digitWidth(len(val.Values))
		idxWidth := digits + 2
		for i := 0; i < len(val.Values); i++ {
			if i > 0 {
				fmt.Fprint(w, opts.Padding)
			}
			printIndex(w, fmt.Sprintf("%*d) ", digits, i+1), opts.Color)

			childOpts := opts
			childOpts.Padding = opts.Padding + strings.Repeat(" ", idxWidth)
			childOpts.Newline = false
			PrintRedisValue(w, val.Values[i], childOpts)

			// Non-empty child arrays already end with a newline.
			if child, ok := val.Values[i].(resp.RedisArray); !ok || len(child.Values) == 0 {
				fmt.Fprintln(w)
			}
		}

	default:
		var outputText string
		var c *color.Color

		switch val.Type() {
		case resp.TypeString:
			outputText = val.StringValue()
			c = colorString
		case resp.TypeNull:
			outputText = "(nil)"
			c = colorNull
		case resp.TypeBulkString:
			if val.(resp.RedisBulkString).Length == -1 {
				outputText = "(nil)"
				c = colorNull
			} else {
				outputText = strconv.Quote(val.StringValue())
				c = colorArray
			}
		case resp.TypeInteger:
			outputText = fmt.Sprintf("(integer) %s", val.StringValue())
			c = colorInteger
		case resp.TypeError:
			outputText = "(error) " + val.StringValue()
			c = colorError
		}

		paint(w, opts.Color, c, outputText)
		if opts.Newline {
			fmt.Fprintln(w)
		}
	}
}
