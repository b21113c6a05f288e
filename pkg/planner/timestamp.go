package planner

import "strings"

// TimeLayout is the compact timestamp form Planner stores in task and
// project attributes: UTC, no separators, no fractional seconds.
const TimeLayout = "20060102T150405Z"

// CompactTimestamp converts a tracker timestamp to the Planner form.
// Trackers emit ISO-8601-ish strings with optional fractional seconds and
// either a "+00:00" or "Z" offset, sometimes with a space instead of the
// "T" separator:
//
//	"2015-06-02T23:16:26.709"      -> "20150602T231626Z"
//	"2015-06-02 21:16:26+00:00"    -> "20150602T211626Z"
//
// Sub-second precision is truncated and any explicit offset is dropped; the
// input is assumed to be UTC.
func CompactTimestamp(ts string) string {
	s, _, _ := strings.Cut(ts, "+")
	s, _, _ = strings.Cut(s, ".")
	s = strings.TrimSuffix(s, "Z")
	s = strings.NewReplacer("-", "", ":", "", " ", "T").Replace(s)
	return s + "Z"
}
