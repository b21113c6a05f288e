// Package sync walks issues from external trackers into the task tree of a
// Planner document: one top-level task per tracked repository, milestone (or
// "Unplanned") buckets beneath it, and one leaf task per issue. The walk is
// idempotent; re-running against an unchanged issue set leaves the document
// byte-identical.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/reece/issueplanner/pkg/bitbucket"
	"github.com/reece/issueplanner/pkg/planner"
	"github.com/reece/issueplanner/pkg/triage"
)

// UnplannedTaskName is the fallback milestone bucket for issues that have no
// milestone assigned.
const UnplannedTaskName = "Unplanned"

// startConstraint is the Planner constraint type applied to issue tasks so
// that scheduling never places work before the issue existed.
const startConstraint = "start-no-earlier-than"

// IssueIterator is a forward-only sequence of issues. Next reports whether
// another issue is available; Err returns the error that ended iteration
// early, if any.
type IssueIterator interface {
	Next() bool
	Issue() bitbucket.Issue
	Err() error
}

// IssueSource yields the issues of one repository. Implementations handle
// pagination internally.
type IssueSource interface {
	Issues(ctx context.Context, owner, slug string) IssueIterator
}

// DuplicateSiblingError reports two or more same-named tasks under one
// parent. The document is in a state that needs manual correction; the
// synchronizer never guesses which task to use.
type DuplicateSiblingError struct {
	Parent string
	Name   string
}

func (e *DuplicateSiblingError) Error() string {
	return fmt.Sprintf("multiple tasks named %q under %q", e.Name, e.Parent)
}

// Syncer routes tracker issues into a Planner document.
type Syncer struct {
	doc    *planner.Doc
	source IssueSource
	log    *slog.Logger
}

// New creates a Syncer over doc, pulling issues from source.
func New(doc *planner.Doc, source IssueSource, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{doc: doc, source: source, log: logger}
}

// Trackers reads the tracker declarations from the document's properties.
// Properties whose descriptions are not tracker specs are skipped. The
// property's name becomes the tracker's prefix.
func (s *Syncer) Trackers() []TrackerSpec {
	var specs []TrackerSpec
	for _, prop := range s.doc.Properties() {
		desc := prop.SelectAttrValue("description", "")
		spec := ParseTrackerSpec(desc)
		if spec == nil {
			continue
		}
		spec.Prefix = prop.SelectAttrValue("name", "")
		specs = append(specs, *spec)
	}
	return specs
}

// Run syncs every tracker declared in the document, then recomputes the
// document-level project start. A failure in one tracker does not abort the
// others; all per-tracker errors are joined into the returned error.
func (s *Syncer) Run(ctx context.Context) error {
	var errs []error
	for _, spec := range s.Trackers() {
		if err := s.SyncTracker(ctx, spec); err != nil {
			s.log.Error("tracker sync failed", "tracker", spec.FullName(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", spec.FullName(), err))
		}
	}
	if _, err := s.doc.RecomputeProjectStart(); err != nil {
		if errors.Is(err, planner.ErrNoScheduledTasks) {
			s.log.Warn("project start left unchanged", "reason", err)
		} else {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SyncTracker fetches all issues for one tracker and upserts their task
// nodes. Issues are placed in triage order (status level, priority level,
// local id). Issues with unrecognized status or priority labels are logged
// and skipped; a fetch failure aborts this tracker only.
func (s *Syncer) SyncTracker(ctx context.Context, spec TrackerSpec) error {
	type classified struct {
		issue bitbucket.Issue
		class triage.Classification
		key   triage.Key
	}

	var issues []classified
	it := s.source.Issues(ctx, spec.Owner, spec.Slug)
	for it.Next() {
		is := it.Issue()
		class, err := triage.Classify(is)
		if err != nil {
			s.log.Warn("skipping issue", "tracker", spec.FullName(), "issue", is.LocalID, "error", err)
			continue
		}
		issues = append(issues, classified{issue: is, class: class, key: class.Key(is.LocalID)})
	}
	if err := it.Err(); err != nil {
		return err
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].key.Less(issues[j].key) })

	prj, err := s.projectTask(spec)
	if err != nil {
		return err
	}
	for _, c := range issues {
		ms, err := s.milestoneTask(prj, c.issue.Metadata.Milestone)
		if err != nil {
			return err
		}
		if err := s.syncIssue(spec, ms, c.issue, c.class); err != nil {
			return err
		}
	}
	return nil
}

// projectTask finds or creates the top-level task for a tracker, named by
// its owner-qualified repository.
func (s *Syncer) projectTask(spec TrackerSpec) (*etree.Element, error) {
	root := s.doc.TasksRoot()
	if root == nil {
		root = s.doc.Project().CreateElement("tasks")
	}
	return s.resolvePath(root, []string{spec.FullName()})
}

// milestoneTask finds or creates the milestone bucket beneath a project
// task. A nil milestone maps to the "Unplanned" bucket; dotted milestones
// nest under their version prefixes.
func (s *Syncer) milestoneTask(prj *etree.Element, milestone *string) (*etree.Element, error) {
	var names []string
	switch {
	case milestone == nil:
		names = []string{UnplannedTaskName}
	case strings.Contains(*milestone, "."):
		names = MilestonePathNames(*milestone)
	default:
		names = []string{*milestone}
	}
	return s.resolvePath(prj, names)
}

// resolvePath walks from parent through the named child tasks, creating any
// that are missing, and returns the deepest node. Two or more same-named
// children is a data-integrity violation and fails the walk.
func (s *Syncer) resolvePath(parent *etree.Element, names []string) (*etree.Element, error) {
	for _, name := range names {
		var matches []*etree.Element
		for _, child := range parent.SelectElements("task") {
			if child.SelectAttrValue("name", "") == name {
				matches = append(matches, child)
			}
		}
		switch len(matches) {
		case 0:
			child := s.doc.CreateTask(name, nil)
			parent.AddChild(child)
			parent = child
		case 1:
			parent = matches[0]
		default:
			return nil, &DuplicateSiblingError{Parent: taskPath(parent), Name: name}
		}
	}
	return parent, nil
}

// syncIssue upserts the leaf task for one issue under its milestone bucket.
// Existing leaves are matched by the embedded "[prefix-id]" tag and updated
// in place, so re-syncing an unchanged issue set is a no-op.
func (s *Syncer) syncIssue(spec TrackerSpec, milestone *etree.Element, is bitbucket.Issue, class triage.Classification) error {
	tag := fmt.Sprintf("[%s-%d]", spec.Prefix, is.LocalID)
	name := fmt.Sprintf("%s %s %s", tag, class.Status.Symbol, is.Title)

	attrs := map[string]string{
		"name":             name,
		"note":             is.Content,
		"percent-complete": strconv.Itoa(class.Status.PercentComplete),
		"priority":         strconv.Itoa(taskPriority(class.Priority)),
		// Always written so a reopened issue sheds the end timestamp left
		// by an earlier sync.
		"end": "",
	}
	start := ""
	if is.CreatedOn != "" {
		start = planner.CompactTimestamp(is.CreatedOn)
		attrs["start"] = start
	}
	if class.Status.PercentComplete == 100 && is.UpdatedOn != "" {
		attrs["end"] = planner.CompactTimestamp(is.UpdatedOn)
	}

	work, err := triage.ElapsedWork(is)
	if err != nil {
		// Fall back to the default work attribute rather than schedule a
		// malformed duration.
		s.log.Warn("no work estimate", "tracker", spec.FullName(), "issue", is.LocalID, "error", err)
	} else if work > 0 {
		attrs["work"] = strconv.FormatInt(int64(work.Seconds()), 10)
	}

	task := findIssueTask(milestone, tag)
	if task == nil {
		task = s.doc.CreateTask(name, attrs)
		milestone.AddChild(task)
	} else {
		for k, v := range attrs {
			task.CreateAttr(k, v)
		}
	}
	if start != "" {
		planner.SetTaskConstraint(task, startConstraint, start)
	}
	return nil
}

// findIssueTask returns the direct child of milestone whose name carries the
// issue tag, or nil. Leaves are keyed by tag only within their milestone
// bucket: if an issue's milestone changes upstream, the next sync creates a
// fresh leaf under the new bucket and the old one persists until removed by
// hand (this tool never deletes tasks).
func findIssueTask(milestone *etree.Element, tag string) *etree.Element {
	for _, child := range milestone.SelectElements("task") {
		name := child.SelectAttrValue("name", "")
		if strings.HasPrefix(name, tag+" ") || name == tag {
			return child
		}
	}
	return nil
}

// taskPriority maps a priority level (1 = blocker .. 5 = trivial) onto
// Planner's ascending priority scale.
func taskPriority(p triage.PriorityInfo) int {
	return (6 - p.Level) * 1000
}

// taskPath renders the document path of a task for error reporting.
func taskPath(e *etree.Element) string {
	var names []string
	for ; e != nil; e = e.Parent() {
		if e.Tag != "task" {
			continue
		}
		names = append([]string{e.SelectAttrValue("name", "?")}, names...)
	}
	if len(names) == 0 {
		return "/"
	}
	return "/" + strings.Join(names, "/")
}
