package domain

import "slices"

// Selection is the set of listing ids a seller has ticked for a bulk action.
// The zero value is empty and ready to use; methods return a new Selection
type Selection struct {
	ids map[string]struct{}
}

// NewSelection builds a Selection from ids
func NewSelection(ids ...string) Selection {
	s := Selection{}
	for _, id := range ids {
		s = s.Add(id)
	}
	return s
}

func (s Selection) clone() Selection {
	out := Selection{ids: make(map[string]struct{}, len(s.ids))}
	for id := range s.ids {
		out.ids[id] = struct{}{}
	}
	return out
}

// Add selects id
func (s Selection) Add(id string) Selection {
	if id == "" || s.Has(id) {
		return s
	}
	out := s.clone()
	out.ids[id] = struct{}{}
	return out
}

// Remove deselects id
func (s Selection) Remove(id string) Selection {
	if !s.Has(id) {
		return s
	}
	out := s.clone()
	delete(out.ids, id)
	return out
}

// Toggle flips id
func (s Selection) Toggle(id string) Selection {
	if s.Has(id) {
		return s.Remove(id)
	}
	return s.Add(id)
}

// Clear returns an empty Selection
func (Selection) Clear() Selection { return Selection{} }

// ToggleAll selects every visible id unless all of them are already selected,
// in which case it deselects them. Selected ids outside visible are kept
func (s Selection) ToggleAll(visible []string) Selection {
	all := len(visible) > 0
	for _, id := range visible {
		if !s.Has(id) {
			all = false
			break
		}
	}
	out := s.clone()
	for _, id := range visible {
		if id == "" {
			continue
		}
		if all {
			delete(out.ids, id)
		} else {
			out.ids[id] = struct{}{}
		}
	}
	return out
}

// Has reports whether id is selected
func (s Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected ids sorted
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Len is the number of selected ids
func (s Selection) Len() int { return len(s.ids) }
