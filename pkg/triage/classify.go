// Package triage maps issue status and priority labels to scheduling
// attributes: a triage ordering level, an assumed completion percentage, and
// a display glyph. It also derives sort keys and effort estimates used when
// issues are placed into the planning document.
package triage

import (
	"fmt"
	"strings"

	"github.com/reece/issueplanner/pkg/bitbucket"
)

// StatusInfo describes a recognized issue status. Level gives the triage
// order (new/open first, terminal states last). PercentComplete is the
// assumed completion: on-hold issues count as fully allocated but paused.
type StatusInfo struct {
	Level           int
	PercentComplete int
	Symbol          string
}

// PriorityInfo describes a recognized issue priority, ordered
// blocker(1) < critical(2) < major(3) < minor(4) < trivial(5).
type PriorityInfo struct {
	Level  int
	Symbol string
}

var statuses = map[string]StatusInfo{
	"new":       {Level: 1, PercentComplete: 0, Symbol: "•"},
	"open":      {Level: 2, PercentComplete: 0, Symbol: "○"},
	"on hold":   {Level: 3, PercentComplete: 100, Symbol: "‖"},
	"resolved":  {Level: 4, PercentComplete: 75, Symbol: "✓"},
	"duplicate": {Level: 5, PercentComplete: 100, Symbol: "≡"},
	"invalid":   {Level: 6, PercentComplete: 100, Symbol: "✗"},
	"wontfix":   {Level: 7, PercentComplete: 100, Symbol: "⊘"},
	"closed":    {Level: 8, PercentComplete: 100, Symbol: "✔"},
}

var priorities = map[string]PriorityInfo{
	"blocker":  {Level: 1, Symbol: "‼"},
	"critical": {Level: 2, Symbol: "!"},
	"major":    {Level: 3, Symbol: "▲"},
	"minor":    {Level: 4, Symbol: "▽"},
	"trivial":  {Level: 5, Symbol: "·"},
}

// ClassifyError reports an unrecognized status or priority label. The issue
// it belongs to should be skipped, not guessed at.
type ClassifyError struct {
	Field string
	Value string
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("unrecognized issue %s %q", e.Field, e.Value)
}

// StatusFor looks up a status label, case-insensitively.
func StatusFor(name string) (StatusInfo, bool) {
	s, ok := statuses[strings.ToLower(name)]
	return s, ok
}

// PriorityFor looks up a priority label, case-insensitively.
func PriorityFor(name string) (PriorityInfo, bool) {
	p, ok := priorities[strings.ToLower(name)]
	return p, ok
}

// Classification bundles the status and priority lookups for one issue.
type Classification struct {
	Status   StatusInfo
	Priority PriorityInfo
}

// Classify resolves an issue's status and priority labels. Returns a
// *ClassifyError naming the offending field if either label is unknown.
func Classify(is bitbucket.Issue) (Classification, error) {
	st, ok := StatusFor(is.Status)
	if !ok {
		return Classification{}, &ClassifyError{Field: "status", Value: is.Status}
	}
	pr, ok := PriorityFor(is.Priority)
	if !ok {
		return Classification{}, &ClassifyError{Field: "priority", Value: is.Priority}
	}
	return Classification{Status: st, Priority: pr}, nil
}

// Key is the canonical issue ordering: status level first, then priority
// level, ties broken by ascending local id.
type Key struct {
	StatusLevel   int
	PriorityLevel int
	LocalID       int
}

// Key builds the sort key for an issue with the given local id.
func (c Classification) Key(localID int) Key {
	return Key{
		StatusLevel:   c.Status.Level,
		PriorityLevel: c.Priority.Level,
		LocalID:       localID,
	}
}

// Less reports whether k orders before o.
func (k Key) Less(o Key) bool {
	if k.StatusLevel != o.StatusLevel {
		return k.StatusLevel < o.StatusLevel
	}
	if k.PriorityLevel != o.PriorityLevel {
		return k.PriorityLevel < o.PriorityLevel
	}
	return k.LocalID < o.LocalID
}
