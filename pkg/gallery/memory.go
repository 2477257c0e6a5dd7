package gallery

import (
	"slices"
	"sync"

	"github.com/nicholas-fedor/gifdeck/pkg/progress"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// MemoryView records everything drawn on it.
type MemoryView struct {
	mu sync.RWMutex

	items           types.ImageList
	errors          []string
	results         []string
	progress        string
	progressVisible bool
	progressHistory []string
	renders         int
}

// NewMemoryView creates an empty MemoryView.
func NewMemoryView() *MemoryView {
	return &MemoryView{items: types.ImageList{}}
}

// Render replaces the list.
func (v *MemoryView) Render(list types.ImageList) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.items = renumber(list)
	v.renders++
}

// Clear empties the list.
func (v *MemoryView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.items = types.ImageList{}
}

// Remove drops name and renumbers the remaining entries.
func (v *MemoryView) Remove(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.items = renumber(slices.DeleteFunc(slices.Clone(v.items), func(entry types.ImageEntry) bool {
		return entry.Name == name
	}))
}

// Items returns a copy of the list.
func (v *MemoryView) Items() types.ImageList {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return slices.Clone(v.items)
}

// ShowError records message.
func (v *MemoryView) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.errors = append(v.errors, message)
}

// ShowProgress shows the indicator at 0%.
func (v *MemoryView) ShowProgress() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.progressVisible = true
	v.progress = progress.Initial
	v.progressHistory = append(v.progressHistory, progress.Initial)
}

// SetProgress updates the indicator.
func (v *MemoryView) SetProgress(percent string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.progress = percent
	v.progressHistory = append(v.progressHistory, percent)
}

// HideProgress hides the indicator.
func (v *MemoryView) HideProgress() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.progressVisible = false
}

// ShowResult records location.
func (v *MemoryView) ShowResult(location string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.results = append(v.results, location)
}

// Errors returns every surfaced error, oldest first.
func (v *MemoryView) Errors() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return slices.Clone(v.errors)
}

// Results returns every shown result, oldest first.
func (v *MemoryView) Results() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return slices.Clone(v.results)
}

// Progress returns the indicator text and whether it is visible.
func (v *MemoryView) Progress() (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.progress, v.progressVisible
}

// ProgressHistory returns every value the indicator displayed, including resets.
func (v *MemoryView) ProgressHistory() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return slices.Clone(v.progressHistory)
}

// Renders returns how many times a list was rendered.
func (v *MemoryView) Renders() int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.renders
}

func renumber(list types.ImageList) types.ImageList {
	out := make(types.ImageList, len(list))
	for i, entry := range list {
		out[i] = types.ImageEntry{Name: entry.Name, Position: i + 1}
	}

	return out
}
