package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/cosmez/keyparse-go/internal/command"
	"github.com/cosmez/keyparse-go/internal/resp"
)

// setupCommandInput wires the command input with Enter handling and tab
// completion.
func (a *App) setupCommandInput() {
	a.cmdInput.SetAutocompleteFunc(func(currentText string) []string {
		if currentText == "" || strings.Contains(currentText, " ") {
			return nil
		}
		return completions(currentText)
	})

	a.cmdInput.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(a.cmdInput.GetText())
		if text == "" {
			return
		}
		a.cmdInput.SetText("")
		a.executeCommand(text)
	})
}

// completions returns upper case command names starting with prefix.
func completions(prefix string) []string {
	prefix = strings.ToUpper(prefix)
	var out []string
	for _, name := range command.Names() {
		name = strings.ToUpper(name)
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// executeCommand handles one input line: EXIT, CLEAR or an inline command
// to classify and add to the list.
func (a *App) executeCommand(input string) {
	a.switchContent("output", "Output")
	fmt.Fprintf(a.ansiWriter, "\n[green]> %s[white]\n", tview.Escape(input))

	switch strings.ToUpper(input) {
	case "EXIT":
		a.app.Stop()
		return
	case "CLEAR":
		a.outputView.Clear()
		return
	}

	args, err := resp.Tokenize(input)
	if err != nil {
		fmt.Fprintf(a.ansiWriter, "[red]Error: %v[white]\n", err)
		a.outputView.ScrollToEnd()
		return
	}
	e := a.addRequest(resp.EncodeStrings(args...))
	fmt.Fprint(a.ansiWriter, e.Detail)
	a.outputView.ScrollToEnd()
}
