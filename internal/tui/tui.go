// Package tui is a terminal browser for classified requests: a filterable
// list of requests on the left, the routing of the selected one on the
// right and an input line for classifying more.
package tui

import (
	"io"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/cosmez/keyparse-go/internal/command"
)

// Entry is one classified request in the list.
type Entry struct {
	Raw    []byte
	Label  string // one-line summary shown in the list
	Detail string // PrintCommand output with ANSI colors
	Failed bool
}

// App holds all TUI state.
type App struct {
	alloc  *command.Allocator
	parser command.Parser
	split  bool

	app          *tview.Application
	layout       *tview.Flex
	leftPane     *tview.Flex
	filterInput  *tview.InputField
	cmdList      *tview.List
	contentPages *tview.Pages // "output" log or "detail" of the selected request
	outputView   *tview.TextView
	detailView   *tview.TextView
	ansiWriter   io.Writer // tview.ANSIWriter(outputView)
	cmdInput     *tview.InputField
	bottomPane   *tview.Flex

	focusOrder []tview.Primitive
	focusIndex int

	entries []Entry
	visible []int // entries indices shown in cmdList, in list order
	filter  string
}

// newApp builds every widget without starting the event loop.
func newApp(parser command.Parser, split bool) *App {
	a := &App{
		alloc:  command.NewAllocator(),
		parser: parser,
		split:  split,
		app:    tview.NewApplication(),
	}

	// Left pane: filter + request list.
	a.filterInput = tview.NewInputField().
		SetLabel("Filter: ").
		SetFieldBackgroundColor(tcell.ColorBlack)

	a.cmdList = tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	a.leftPane = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.filterInput, 1, 0, false).
		AddItem(a.cmdList, 0, 1, true)
	a.leftPane.SetBorder(true).SetTitle(" Requests ")

	// Right pane.
	a.outputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	a.detailView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(false)

	a.contentPages = tview.NewPages().
		AddPage("output", a.outputView, true, true).
		AddPage("detail", a.detailView, true, false)
	a.contentPages.SetBorder(true).SetTitle(contentTitle("Output"))

	a.detailView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			a.switchContent("output", "Output")
			a.focusIndex = 1
			a.app.SetFocus(a.cmdList)
			a.highlightFocusedPane()
			return nil
		}
		return event
	})

	// Bottom pane: inline command input.
	a.cmdInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldBackgroundColor(tcell.ColorBlack)
	a.bottomPane = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.cmdInput, 1, 0, true)
	a.bottomPane.SetBorder(true).SetTitle(" Command ")

	rightSide := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.contentPages, 0, 1, false).
		AddItem(a.bottomPane, 3, 0, false)

	a.layout = tview.NewFlex().
		AddItem(a.leftPane, 0, 4, false).
		AddItem(rightSide, 0, 6, false)

	a.ansiWriter = tview.ANSIWriter(a.outputView)

	// Typing on the list goes to the filter.
	a.cmdList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		ch := event.Rune()
		if ch != 0 && event.Key() == tcell.KeyRune {
			a.filterInput.SetText(a.filterInput.GetText() + string(ch))
			a.app.SetFocus(a.filterInput)
			a.focusIndex = 0
			a.highlightFocusedPane()
			return nil
		}
		return event
	})

	a.focusOrder = []tview.Primitive{a.filterInput, a.cmdList, a.outputView, a.cmdInput}
	a.focusIndex = 1

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyTab:
			a.cycleFocus(1)
			return nil
		case tcell.KeyBacktab:
			a.cycleFocus(-1)
			return nil
		}
		return event
	})

	a.setupListHandlers()
	a.setupCommandInput()
	a.highlightFocusedPane()

	return a
}

// Run classifies requests, shows them in the browser and blocks until the
// user quits.
func Run(requests [][]byte, parser command.Parser, split bool) error {
	// tview.ANSIWriter translates ANSI codes into color tags, so force them
	// on even though stdout is owned by tcell.
	color.NoColor = false

	a := newApp(parser, split)
	for _, raw := range requests {
		a.addRequest(raw)
	}
	if len(a.entries) > 0 {
		a.cmdList.SetCurrentItem(0)
	}
	return a.app.EnableMouse(true).SetRoot(a.layout, true).SetFocus(a.cmdList).Run()
}
