// Package level manages hierarchical visibility levels.
//
// A Level is a named group of mutually exclusive Items: at most one item is
// selected ("visible") at a time. An Item may name a child level; whenever
// the item becomes visible or invisible, the child level's visibility follows,
// so hiding a parent hides the whole active branch beneath it and showing it
// restores that branch.
//
// Levels and items are created lazily by name through a Registry. Observers
// register on a Level and are held weakly, so a short-lived consumer never
// leaks by forgetting to unregister.
//
//	reg := level.NewRegistry()
//	root := reg.MustLevel("root")
//	a, _ := root.AddItem("a")
//	a.SetChildLevel("root.a")
//	_ = root.SelectItem("a")
//	_ = root.SetVisible(false) // root.a is now hidden as well
//
// Selecting an unknown item is ignored; selecting anything on a hidden level
// fails with ErrIllegalState.
package level
