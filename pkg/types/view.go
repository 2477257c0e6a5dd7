package types

// View is the user-facing surface the controller and synchronizer draw on.
//
// Implementations must be safe for concurrent use: refreshes and user actions may complete
// on different goroutines.
type View interface {
	// Render replaces the displayed list with the given entries, in order.
	Render(list ImageList)
	// Clear empties the displayed list.
	Clear()
	// Remove drops a single entry from the displayed list, renumbering the rest.
	Remove(name string)
	// Items returns the displayed list in display order.
	Items() ImageList
	// ShowError surfaces a failure to the user.
	ShowError(message string)
	// ShowProgress displays the progress indicator reset to 0%.
	ShowProgress()
	// SetProgress updates the indicator with a formatted percentage such as "42.50%".
	SetProgress(percent string)
	// HideProgress removes the progress indicator.
	HideProgress()
	// ShowResult presents the outcome of a generation, typically the GIF location.
	ShowResult(location string)
}
