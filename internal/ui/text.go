package ui

import "github.com/mattn/go-runewidth"

// ellipsis marks truncated text.
const ellipsis = "…"

// truncate shortens s to at most maxWidth terminal columns, ending in an
// ellipsis when something was cut.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, ellipsis)
}

// padRight pads s with spaces to width columns, truncating when wider.
func padRight(s string, width int) string {
	if runewidth.StringWidth(s) >= width {
		return truncate(s, width)
	}
	return runewidth.FillRight(s, width)
}
