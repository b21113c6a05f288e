package sync

import (
	"regexp"
	"strings"
)

// trackerSpecRe matches tracker declarations of the form
// "<scm>:<owner>/<slug>", each component word characters only. Properties
// whose descriptions don't match are simply not tracker declarations.
var trackerSpecRe = regexp.MustCompile(`^(\w+):(\w+)/(\w+)$`)

// TrackerSpec identifies one tracked repository. Prefix is the name of the
// document property that declared it and doubles as the human-readable issue
// tag prefix ("[<prefix>-<id>]").
type TrackerSpec struct {
	Prefix string
	SCM    string
	Owner  string
	Slug   string
}

// FullName returns the owner-qualified repository name used for the
// tracker's project task. Qualifying by owner keeps same-named repositories
// under different owners from colliding in one document.
func (t TrackerSpec) FullName() string {
	return t.Owner + "/" + t.Slug
}

// ParseTrackerSpec decomposes a tracker spec string. Returns nil when the
// string is not a tracker spec; that is an expected outcome for unrelated
// properties, not an error.
func ParseTrackerSpec(s string) *TrackerSpec {
	m := trackerSpecRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return &TrackerSpec{SCM: m[1], Owner: m[2], Slug: m[3]}
}

// MilestonePathNames returns the task names along the path to a milestone
// bucket. Dotted milestones nest under their version prefixes so that minor
// releases group under major ones:
//
//	MilestonePathNames("1.2.3") == []string{"1.2", "1.2.3"}
//	MilestonePathNames("2.0")   == []string{"2.0"}
func MilestonePathNames(milestone string) []string {
	parts := strings.Split(milestone, ".")
	names := make([]string, 0, len(parts)-1)
	for i := 2; i <= len(parts); i++ {
		names = append(names, strings.Join(parts[:i], "."))
	}
	return names
}
