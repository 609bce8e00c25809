// Package triage filters, orders and counts report lists for the admin view.
package triage

import (
	"slices"
	"strings"

	"github.com/Skotchmaster/civic_mirror/pkg/authclient"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"

	SortUpvotes = "upvotes"
	SortDate    = "date"
)

// Filter fields left empty or set to "all" do not constrain.
type Filter struct {
	Category string
	Status   string
	Location string
	Query    string
}

type Sort struct {
	By   string
	Desc bool
}

type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

func unconstrained(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (f Filter) Match(r authclient.Report) bool {
	if !unconstrained(f.Category) && r.Type != f.Category {
		return false
	}
	if !unconstrained(f.Status) && NormalizeStatus(r.Status) != NormalizeStatus(f.Status) {
		return false
	}
	if !unconstrained(f.Location) && deref(r.Location) != f.Location {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		title := strings.ToLower(r.Title)
		desc := strings.ToLower(deref(r.Description))
		if !strings.Contains(title, q) && !strings.Contains(desc, q) {
			return false
		}
	}
	return true
}

// Apply returns a new slice; the input is left untouched. Equal keys keep
// their input order.
func Apply(reports []authclient.Report, f Filter, s Sort) []authclient.Report {
	out := make([]authclient.Report, 0, len(reports))
	for _, r := range reports {
		if f.Match(r) {
			out = append(out, r)
		}
	}

	var cmp func(a, b authclient.Report) int
	switch s.By {
	case SortUpvotes:
		cmp = func(a, b authclient.Report) int { return a.VoteCount - b.VoteCount }
	case SortDate:
		cmp = func(a, b authclient.Report) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return out
	}
	if s.Desc {
		asc := cmp
		cmp = func(a, b authclient.Report) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

// NormalizeStatus maps "completed" to "resolved".
func NormalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "completed" {
		return StatusResolved
	}
	return s
}

func Summarize(reports []authclient.Report) Stats {
	st := Stats{Total: len(reports)}
	for _, r := range reports {
		switch NormalizeStatus(r.Status) {
		case StatusPending:
			st.Pending++
		case StatusInProgress:
			st.InProgress++
		case StatusResolved:
			st.Resolved++
		}
	}
	return st
}

// Locations lists the distinct report locations in first-seen order.
func Locations(reports []authclient.Report) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range reports {
		loc := deref(r.Location)
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		out = append(out, loc)
	}
	return out
}
