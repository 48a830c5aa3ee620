package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Outcome is the result of one listing inside a bulk operation or sweep
type Outcome struct {
	ListingID string `json:"listing_id"`
	OK        bool   `json:"ok"`
	Reason    Reason `json:"reason,omitempty"`
	Message   string `json:"message,omitempty"`
}

// OutcomeOf builds an Outcome from an operation error
func OutcomeOf(id string, err error) Outcome {
	if err == nil {
		return Outcome{ListingID: id, OK: true}
	}
	return Outcome{ListingID: id, Reason: ReasonOf(err), Message: err.Error()}
}

// ReasonCount is how many outcomes failed for one reason
type ReasonCount struct {
	Reason Reason `json:"reason"`
	Count  int    `json:"count"`
}

// BulkResult aggregates a bulk operation
type BulkResult struct {
	Transition Transition    `json:"transition"`
	Total      int           `json:"total"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Outcomes   []Outcome     `json:"outcomes"`
	Reasons    []ReasonCount `json:"reasons"`
	Summary    string        `json:"summary"`
}

// Summarize builds a BulkResult from per-item outcomes
func Summarize(t Transition, outcomes []Outcome) BulkResult {
	res := BulkResult{Transition: t, Total: len(outcomes), Outcomes: outcomes, Reasons: []ReasonCount{}}
	counts := map[Reason]int{}
	for _, o := range outcomes {
		if o.OK {
			res.Succeeded++
			continue
		}
		res.Failed++
		counts[o.Reason]++
	}
	for r, n := range counts {
		res.Reasons = append(res.Reasons, ReasonCount{Reason: r, Count: n})
	}
	slices.SortFunc(res.Reasons, func(a, b ReasonCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Reason, b.Reason)
	})

	noun := "listings"
	if res.Total == 1 {
		noun = "listing"
	}
	res.Summary = fmt.Sprintf("%s %d of %d %s", t.PastTense(), res.Succeeded, res.Total, noun)
	if res.Failed > 0 {
		parts := make([]string, 0, len(res.Reasons))
		for _, rc := range res.Reasons {
			parts = append(parts, fmt.Sprintf("%s (%d)", rc.Reason.Label(), rc.Count))
		}
		res.Summary += fmt.Sprintf("; %d failed: %s", res.Failed, strings.Join(parts, ", "))
	}
	return res
}

// Page is one feed response
type Page struct {
	Items    []Listing `json:"items"`
	HasMore  bool      `json:"has_more"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Seed     string    `json:"seed,omitempty"`
	Seq      uint64    `json:"seq,omitempty"`
}
