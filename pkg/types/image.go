package types

// ImageEntry is one uploaded file as rendered in the list.
type ImageEntry struct {
	Name     string `json:"name"`     // Server-assigned file name, unique within a session.
	Position int    `json:"position"` // 1-based display position.
}

// ImageList is the ordered sequence of rendered entries; slice order is display order.
type ImageList []ImageEntry

// NewImageList builds a list from names, assigning positions in order.
//
// Parameters:
//   - names: File names in display order.
//
// Returns:
//   - ImageList: Entries numbered from 1.
func NewImageList(names []string) ImageList {
	list := make(ImageList, 0, len(names))
	for i, name := range names {
		list = append(list, ImageEntry{Name: name, Position: i + 1})
	}

	return list
}

// Names returns the file names in display order.
func (l ImageList) Names() []string {
	names := make([]string, 0, len(l))
	for _, entry := range l {
		names = append(names, entry.Name)
	}

	return names
}

// Contains reports whether an entry with the given name is present.
func (l ImageList) Contains(name string) bool {
	for _, entry := range l {
		if entry.Name == name {
			return true
		}
	}

	return false
}

// OrderMap returns the position-to-name mapping sent to the reorder endpoint.
//
// Returns:
//   - map[int]string: 1-based positions mapped to file names.
func (l ImageList) OrderMap() map[int]string {
	order := make(map[int]string, len(l))
	for i, entry := range l {
		order[i+1] = entry.Name
	}

	return order
}
