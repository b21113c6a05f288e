package bitbucket

import (
	"fmt"
	"time"
)

// Issue is one issue record as returned by the Bitbucket issues endpoint.
// Read-only to this tool; issues are consumed transiently during a sync run
// and never written back.
type Issue struct {
	LocalID   int    `json:"local_id"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedOn string `json:"utc_created_on"`
	UpdatedOn string `json:"utc_last_updated"`
	Metadata  struct {
		Milestone *string `json:"milestone"`
		Component *string `json:"component"`
		Version   *string `json:"version"`
	} `json:"metadata"`
}

// Tracker timestamps arrive in a handful of near-ISO-8601 shapes: "T" or
// space separated, "+00:00" or "Z" offset, or no offset at all. Fractional
// seconds are accepted by time.Parse regardless of layout.
var timeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseTime parses a tracker timestamp into a time.Time. The zone, when
// absent, is assumed to be UTC.
func ParseTime(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", ts)
}
