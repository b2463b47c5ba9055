package tui

import "github.com/gdamore/tcell/v2"

const appName = "keyparse"

// contentTitle formats a content pane title with the app name prefix.
func contentTitle(subtitle string) string {
	if subtitle == "" {
		return " " + appName + " "
	}
	return " " + appName + " | " + subtitle + " "
}

// switchContent switches the visible content page and keeps focus cycling
// pointed at it.
func (a *App) switchContent(pageName string, title string) {
	a.contentPages.SwitchToPage(pageName)
	a.contentPages.SetTitle(contentTitle(title))

	switch pageName {
	case "output":
		a.focusOrder[2] = a.outputView
	case "detail":
		a.focusOrder[2] = a.detailView
	}
}

func (a *App) cycleFocus(step int) {
	n := len(a.focusOrder)
	a.focusIndex = (a.focusIndex + step + n) % n
	a.app.SetFocus(a.focusOrder[a.focusIndex])
	a.highlightFocusedPane()
}

// highlightFocusedPane updates border colors to show which pane has focus.
func (a *App) highlightFocusedPane() {
	const (
		defaultColor   = tcell.ColorWhite
		highlightColor = tcell.ColorAqua
	)

	a.leftPane.SetBorderColor(defaultColor)
	a.contentPages.SetBorderColor(defaultColor)
	a.bottomPane.SetBorderColor(defaultColor)

	switch {
	case a.focusIndex <= 1: // filterInput or cmdList
		a.leftPane.SetBorderColor(highlightColor)
	case a.focusIndex == 2:
		a.contentPages.SetBorderColor(highlightColor)
	case a.focusIndex == 3:
		a.bottomPane.SetBorderColor(highlightColor)
	}
}
