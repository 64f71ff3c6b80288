// Package ui provides Bubble Tea building blocks that render visibility levels.
//
// Core abstractions:
//   - View: A screen or major UI region with its own model, update, view (Elm-style)
//   - Panel: Hosts a View and shows it only while its bound (level, item) is visible
//   - TabSet: A level rendered as a tab bar; a tab may nest another TabSet as its child level
//   - FocusManager: Rotates focus across a level's items by selecting them
//   - KeybindRegistry: Leader-key bindings, optionally active only while an item is visible
//
// The views never decide visibility themselves. They select items and react
// to the notifications the level delivers.
package ui
