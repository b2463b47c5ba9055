package tui

import (
	"strings"
	"testing"

	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmez/keyparse-go/internal/command"
	"github.com/cosmez/keyparse-go/internal/resp"
)

// TestAppScaffold builds the app without calling Run, which needs a
// terminal.
func TestAppScaffold(t *testing.T) {
	app := newApp(command.Parser{}, true)
	require.NotNil(t, app)
	assert.NotNil(t, app.cmdList)
	assert.NotNil(t, app.outputView)
	assert.NotNil(t, app.detailView)
	assert.NotNil(t, app.contentPages)
	assert.NotNil(t, app.cmdInput)
	assert.NotNil(t, app.filterInput)
	assert.NotNil(t, app.ansiWriter)
	assert.Len(t, app.focusOrder, 4)
}

func TestAddRequestAndFilter(t *testing.T) {
	app := newApp(command.Parser{}, true)

	app.addRequest(resp.EncodeStrings("GET", "foo"))
	app.addRequest(resp.EncodeStrings("DEL", "foo", "bar"))
	app.addRequest(resp.EncodeStrings("GET"))
	require.Len(t, app.entries, 3)
	assert.Equal(t, 3, app.cmdList.GetItemCount())

	assert.Equal(t, `#1 GET "foo" @12182`, app.entries[0].Label)
	assert.Equal(t, `#2 DEL "foo" "bar" @2 slots`, app.entries[1].Label)
	assert.True(t, app.entries[2].Failed)
	assert.Contains(t, app.entries[2].Label, "parse error")
	assert.Contains(t, app.entries[1].Detail, "-> #")

	app.applyFilter("del")
	assert.Equal(t, []int{1}, app.visible)
	assert.Equal(t, 1, app.cmdList.GetItemCount())

	// New requests honour the active filter.
	app.addRequest(resp.EncodeStrings("MGET", "a"))
	assert.Equal(t, 1, app.cmdList.GetItemCount())
	app.addRequest(resp.EncodeStrings("DEL", "x"))
	assert.Equal(t, []int{1, 4}, app.visible)

	app.applyFilter("")
	assert.Equal(t, 5, app.cmdList.GetItemCount())
}

func TestLabel_ManyKeys(t *testing.T) {
	app := newApp(command.Parser{}, false)
	e := app.addRequest(resp.EncodeStrings("MGET", "{t}a", "{t}b", "{t}c", "{t}d", "{t}e"))
	assert.Regexp(t, `^#1 MGET "\{t\}a" "\{t\}b" "\{t\}c" \+2 @\d+$`, e.Label)
}

func TestLabel_EscapesBrackets(t *testing.T) {
	app := newApp(command.Parser{}, true)
	e := app.addRequest(resp.EncodeStrings("GET", "[red]"))
	assert.Contains(t, e.Label, tview.Escape(`"[red]"`))
}

func TestExecuteCommand(t *testing.T) {
	app := newApp(command.Parser{}, true)
	app.executeCommand("set k v")
	require.Len(t, app.entries, 1)
	assert.Contains(t, app.outputView.GetText(true), `"k" @17..18`)

	app.executeCommand(`GET "open`)
	assert.Len(t, app.entries, 1)
	assert.Contains(t, app.outputView.GetText(true), "Error:")

	app.executeCommand("clear")
	assert.Empty(t, strings.TrimSpace(app.outputView.GetText(true)))
}

func TestCompletions(t *testing.T) {
	assert.Equal(t, []string{"HGET", "HGETALL"}, completions("hge"))
	assert.Empty(t, completions("nosuch"))
}

func TestSelectEntry(t *testing.T) {
	app := newApp(command.Parser{}, true)
	app.addRequest(resp.EncodeStrings("GET", "foo"))
	app.selectEntry(0)
	assert.Contains(t, app.detailView.GetText(true), `"foo" @17..20`)
	assert.Equal(t, 2, app.focusIndex)
	app.selectEntry(5) // out of range is ignored
}
