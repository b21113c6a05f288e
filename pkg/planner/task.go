package planner

import (
	"strconv"

	"github.com/beevik/etree"
)

// Default attributes for a newly created task: one workday of fixed-work
// scheduling, not started, unscheduled. These are the attributes Planner
// itself writes for a fresh task.
const defaultWorkSeconds = 8 * 3600

// CreateTask allocates the next task identifier, builds a new <task> element
// with the default attributes merged under attrs, and returns it unattached.
// The caller is responsible for appending it to a parent; until then the
// element is not visible to Tasks or to id allocation.
func (d *Doc) CreateTask(name string, attrs map[string]string) *etree.Element {
	t := etree.NewElement("task")
	defaults := [][2]string{
		{"id", strconv.Itoa(d.nextTaskID())},
		{"name", name},
		{"note", ""},
		{"work", strconv.Itoa(defaultWorkSeconds)},
		{"start", ""},
		{"end", ""},
		{"work-start", ""},
		{"percent-complete", "0"},
		{"priority", "0"},
		{"type", "normal"},
		{"scheduling", "fixed-work"},
	}
	for _, kv := range defaults {
		if v, ok := attrs[kv[0]]; ok {
			t.CreateAttr(kv[0], v)
		} else {
			t.CreateAttr(kv[0], kv[1])
		}
	}
	for k, v := range attrs {
		if t.SelectAttr(k) == nil {
			t.CreateAttr(k, v)
		}
	}
	return t
}

// SetTaskConstraint ensures the task has exactly one <constraint> child and
// sets its type and time. Calling it again with the same arguments is a
// no-op in effect.
func SetTaskConstraint(task *etree.Element, typ, timestamp string) {
	c := task.SelectElement("constraint")
	if c == nil {
		c = task.CreateElement("constraint")
	}
	c.CreateAttr("type", typ)
	c.CreateAttr("time", timestamp)
}
