// Package planner reads, writes, and manipulates GNOME Planner XML
// documents. It is independent of any issue tracker; see pkg/sync for the
// tracker-aware layer built on top of it.
package planner

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/natefinch/atomic"
)

// ErrNoScheduledTasks is returned by RecomputeProjectStart when no task in
// the document has a start timestamp.
var ErrNoScheduledTasks = errors.New("no scheduled tasks in document")

// Doc is a facade over a parsed Planner document. The underlying tree is
// mutated in place; nodes that this package does not touch survive a
// load/save round trip unchanged.
type Doc struct {
	tree *etree.Document
	path string
}

// Load reads a Planner document from path.
func Load(path string) (*Doc, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("failed to read planner file %s: %w", path, err)
	}
	d := &Doc{tree: tree, path: path}
	if root := d.Project(); root == nil || root.Tag != "project" {
		return nil, fmt.Errorf("planner file %s has no <project> root element", path)
	}
	return d, nil
}

// Parse reads a Planner document from a string. Intended for tests and for
// callers that manage persistence themselves; Save requires a path.
func Parse(s string) (*Doc, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromString(s); err != nil {
		return nil, fmt.Errorf("failed to parse planner document: %w", err)
	}
	d := &Doc{tree: tree}
	if root := d.Project(); root == nil || root.Tag != "project" {
		return nil, errors.New("planner document has no <project> root element")
	}
	return d, nil
}

// Save writes the document back to the file it was loaded from. The write is
// atomic: a partial write never clobbers the previous version.
func (d *Doc) Save() error {
	if d.path == "" {
		return errors.New("document was not loaded from a file")
	}
	return d.SaveTo(d.path)
}

// SaveTo writes the document to the given path atomically.
func (d *Doc) SaveTo(path string) error {
	b, err := d.tree.WriteToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize planner document: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("failed to write planner file %s: %w", path, err)
	}
	return nil
}

// String returns the serialized document.
func (d *Doc) String() string {
	s, _ := d.tree.WriteToString()
	return s
}

// Project returns the root <project> element.
func (d *Doc) Project() *etree.Element {
	return d.tree.Root()
}

// TasksRoot returns the top-level <tasks> container, or nil if the document
// has none.
func (d *Doc) TasksRoot() *etree.Element {
	return d.Project().SelectElement("tasks")
}

// Tasks returns every <task> element in the document, at any depth, in
// document order.
func (d *Doc) Tasks() []*etree.Element {
	root := d.TasksRoot()
	if root == nil {
		return nil
	}
	var tasks []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.SelectElements("task") {
			tasks = append(tasks, child)
			walk(child)
		}
	}
	walk(root)
	return tasks
}

// Properties returns the document's <property> elements.
func (d *Doc) Properties() []*etree.Element {
	return d.childrenOf("properties", "property")
}

// Resources returns the document's <resource> elements.
func (d *Doc) Resources() []*etree.Element {
	return d.childrenOf("resources", "resource")
}

// Allocations returns the document's <allocation> elements.
func (d *Doc) Allocations() []*etree.Element {
	return d.childrenOf("allocations", "allocation")
}

func (d *Doc) childrenOf(container, tag string) []*etree.Element {
	c := d.Project().SelectElement(container)
	if c == nil {
		return nil
	}
	return c.SelectElements(tag)
}

// RecomputeProjectStart scans every task's start attribute and sets the
// project-start attribute on the <project> element to the earliest non-empty
// value found, returning it. The compact timestamp format sorts
// lexicographically in chronological order, so a plain string comparison is
// sufficient. Returns ErrNoScheduledTasks if no task has a start.
func (d *Doc) RecomputeProjectStart() (string, error) {
	earliest := ""
	for _, t := range d.Tasks() {
		start := t.SelectAttrValue("start", "")
		if start == "" {
			continue
		}
		if earliest == "" || start < earliest {
			earliest = start
		}
	}
	if earliest == "" {
		return "", ErrNoScheduledTasks
	}
	d.Project().CreateAttr("project-start", earliest)
	return earliest, nil
}

// nextTaskID allocates the next task identifier: one more than the largest
// numeric id anywhere in the document. An empty document numbers from 1.
// IDs are never reused, even if a task is removed by hand.
func (d *Doc) nextTaskID() int {
	maxID := 0
	for _, t := range d.Tasks() {
		id, err := strconv.Atoi(t.SelectAttrValue("id", ""))
		if err != nil {
			continue
		}
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}
