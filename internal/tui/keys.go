package tui

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rivo/tview"

	"github.com/cosmez/keyparse-go/internal/cluster"
	"github.com/cosmez/keyparse-go/internal/command"
	"github.com/cosmez/keyparse-go/internal/output"
)

// maxLabelKeys bounds how many keys a list label shows.
const maxLabelKeys = 3

// setupListHandlers wires request selection and the filter input.
func (a *App) setupListHandlers() {
	a.cmdList.SetSelectedFunc(func(index int, _ string, _ string, _ rune) {
		a.selectEntry(index)
	})
	a.cmdList.SetChangedFunc(func(index int, _ string, _ string, _ rune) {
		a.leftPane.SetTitle(fmt.Sprintf(" Requests [%d/%d] ", index+1, len(a.visible)))
	})
	a.filterInput.SetChangedFunc(a.applyFilter)
}

// classify parses, routes and renders one request, then releases it.
func (a *App) classify(raw []byte) Entry {
	c := a.alloc.New(raw)
	defer a.alloc.Release(c)

	e := Entry{Raw: raw}
	if err := a.parser.Parse(c); err != nil {
		e.Failed = true
	} else if err := cluster.Assign(c); errors.Is(err, cluster.ErrCrossSlot) && a.split {
		_ = cluster.Split(a.alloc, &a.parser, c)
	}

	var buf bytes.Buffer
	output.PrintCommand(&buf, c, output.PrintOpts{Color: true})
	e.Detail = buf.String()
	e.Label = label(c)
	return e
}

// label summarizes c as "#id CAPTION key... @slot".
func label(c *command.Command) string {
	var sb strings.Builder
	sb.WriteString("#" + strconv.FormatUint(c.ID, 10) + " ")
	if c.Result != command.ResultOK {
		sb.WriteString("[red]" + c.Result.String() + "[white]")
		return sb.String()
	}
	sb.WriteString(strings.ToUpper(c.Type.String()))
	for i := range c.Keys {
		if i == maxLabelKeys {
			sb.WriteString(fmt.Sprintf(" +%d", len(c.Keys)-i))
			break
		}
		sb.WriteString(" " + strconv.Quote(string(c.Key(i))))
	}
	switch {
	case len(c.SubCommands) > 0:
		sb.WriteString(fmt.Sprintf(" @%d slots", len(c.SubCommands)))
	case c.Slot >= 0:
		sb.WriteString(" @" + strconv.Itoa(c.Slot))
	}
	return tview.Escape(sb.String())
}

// addRequest classifies raw and appends it to the list when it matches the
// current filter.
func (a *App) addRequest(raw []byte) Entry {
	e := a.classify(raw)
	a.entries = append(a.entries, e)
	if matches(e, a.filter) {
		a.visible = append(a.visible, len(a.entries)-1)
		a.cmdList.AddItem(e.Label, "", 0, nil)
	}
	a.leftPane.SetTitle(fmt.Sprintf(" Requests [%d] ", len(a.visible)))
	return e
}

// applyFilter rebuilds the list with entries whose label contains text,
// ignoring case.
func (a *App) applyFilter(text string) {
	a.filter = text
	a.cmdList.Clear()
	a.visible = a.visible[:0]
	for i, e := range a.entries {
		if matches(e, text) {
			a.visible = append(a.visible, i)
			a.cmdList.AddItem(e.Label, "", 0, nil)
		}
	}
	a.leftPane.SetTitle(fmt.Sprintf(" Requests [%d] ", len(a.visible)))
}

func matches(e Entry, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Label), strings.ToLower(filter))
}

// selectEntry shows the routing of the index-th visible entry.
func (a *App) selectEntry(index int) {
	if index < 0 || index >= len(a.visible) {
		return
	}
	e := a.entries[a.visible[index]]

	a.detailView.Clear()
	fmt.Fprint(tview.ANSIWriter(a.detailView), e.Detail)
	a.detailView.ScrollToBeginning()
	a.switchContent("detail", fmt.Sprintf("Request %d", a.visible[index]+1))
	a.focusIndex = 2
	a.app.SetFocus(a.detailView)
	a.highlightFocusedPane()
}
