package domain

import pstrings "marketfeed/internal/platform/strings"

// BulkRequest is the body of POST /listings/bulk. An empty ids list is
// answered with EmptySelection rather than a validation error
type BulkRequest struct {
	IDs        []string   `json:"ids" validate:"max=500,dive,max=64"`
	Transition Transition `json:"transition" validate:"required,oneof=archive relist delete" example:"archive"`
}

// Selection collapses the posted ids, dropping blanks and repeats
func (r BulkRequest) Selection() Selection {
	s := Selection{ids: make(map[string]struct{}, len(r.IDs))}
	for _, id := range r.IDs {
		if id = pstrings.Clean(id); id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}
