package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/cosmez/keyparse-go/internal/command"
)

// replCompleter completes the first word against the command table.
type replCompleter struct {
	names []string // upper case, sorted
}

func newReplCompleter() *replCompleter {
	names := command.Names()
	for i, n := range names {
		names[i] = strings.ToUpper(n)
	}
	names = append(names, "EXIT", "CLEAR", "HELP")
	sort.Strings(names)
	return &replCompleter{names: names}
}

// Do returns completion candidates based on the current input.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	text := string(line[:pos])
	// Only complete the first word
	if strings.Contains(text, " ") {
		return nil, 0
	}

	upper := strings.ToUpper(text)
	for _, name := range c.names {
		if strings.HasPrefix(name, upper) {
			newLine = append(newLine, []rune(name[len(text):]+" "))
		}
	}
	return newLine, len(text)
}

// replHinter shows the arity class of the command being typed on the line
// below the input. Paint only clears stale hints; OnChange renders the hint
// after readline has positioned the cursor, so readline's cursor math is
// never affected.
type replHinter struct {
	promptLen int
	termWidth int
}

// copyAppend returns line + suffix without mutating line's backing array.
func copyAppend(line []rune, suffix string) []rune {
	sfx := []rune(suffix)
	out := make([]rune, len(line)+len(sfx))
	copy(out, line)
	copy(out[len(line):], sfx)
	return out
}

func (h *replHinter) Paint(line []rune, pos int) []rune {
	return copyAppend(line, "\033[J")
}

func (h *replHinter) OnChange(line []rune, pos int, key rune) ([]rune, int, bool) {
	if len(line) == 0 {
		return nil, 0, false
	}

	text := string(line)
	parts := strings.SplitN(text, " ", 2)
	name := parts[0]

	// Upper-case the command word once it names a known command.
	if name != "" {
		upper := strings.ToUpper(name)
		if name != upper && command.Resolve([]byte(name)) != command.TypeUnknown {
			return []rune(upper + text[len(name):]), pos, true
		}
	}

	if len(parts) < 2 || name == "" {
		return nil, 0, false
	}
	hint := commandHint(name)
	if hint == "" {
		return nil, 0, false
	}

	hintRows := 1
	if h.termWidth > 0 {
		hintRows = (2 + len(hint) + h.termWidth - 1) / h.termWidth
	}
	fmt.Fprintf(os.Stdout, "\n\r\033[K  \033[36m%s\033[0m\033[%dA\r\033[%dC",
		hint, hintRows, h.promptLen+pos)
	return nil, 0, false
}

// commandHint describes the argument shape of name, or "" if it is unknown.
func commandHint(name string) string {
	d, ok := command.Lookup([]byte(name))
	if !ok {
		return ""
	}
	hint := fmt.Sprintf("%s: %s", strings.ToUpper(command.Caption(d.Type)), command.ArityOf(d.Type))
	var flags []string
	if d.NoForward {
		flags = append(flags, "answered locally")
	}
	if d.Quit {
		flags = append(flags, "closes connection")
	}
	if len(flags) > 0 {
		hint += " (" + strings.Join(flags, ", ") + ")"
	}
	return hint
}

func runRepl(cl *classifier) error {
	homeDir, _ := os.UserHomeDir()
	historyFile := filepath.Join(homeDir, ".keyparse_history")

	prompt := "keyparse> "
	tw, _, _ := term.GetSize(int(os.Stdout.Fd()))
	hinter := &replHinter{promptLen: len(prompt), termWidth: tw}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		AutoComplete:    newReplCompleter(),
		Painter:         hinter,
		Listener:        hinter,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !handleLine(cl, line) {
			return nil
		}

		// Refresh terminal width in case the window was resized.
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			hinter.termWidth = w
			if w > 40 {
				cl.opts.MaxKeyWidth = w - 24
			}
		}
	}
}

// handleLine runs one REPL line. It returns false when the session should end.
func handleLine(cl *classifier, line string) bool {
	fields := strings.Fields(line)
	switch strings.ToUpper(fields[0]) {
	case "EXIT":
		return false
	case "CLEAR":
		fmt.Fprint(cl.w, "\033[2J\033[H")
	case "HELP":
		handleHelp(cl.w, fields[1:])
	default:
		cl.failed = 0
		if err := cl.classifyLine(line); err != nil && cl.failed == 0 {
			color.New(color.FgRed).Fprintf(cl.w, "Error: %v\n", err)
		}
	}
	return true
}

func handleHelp(w io.Writer, args []string) {
	if len(args) == 0 {
		color.New(color.FgYellow).Fprintln(w, "Usage: HELP <command>")
		return
	}
	hint := commandHint(args[0])
	if hint == "" {
		color.New(color.FgRed).Fprintf(w, "Unknown command: %s\n", strings.ToUpper(args[0]))
		return
	}
	color.New(color.FgCyan).Fprintln(w, hint)
}
