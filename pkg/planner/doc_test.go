package planner

import (
	"errors"
	"strings"
	"testing"
)

const exampleDoc = `<?xml version="1.0"?>
<project name="example" company="" manager="" phase="" project-start="20150601T000000Z" mrproject-version="2" calendar="1">
  <properties>
    <property name="eutils" type="text" owner="project" label="eutils" description="bitbucket:biocommons/eutils"/>
    <property name="notes" type="text" owner="project" label="notes" description="free-form text"/>
  </properties>
  <tasks>
    <task id="1" name="biocommons/eutils" note="" work="28800" start="20150601T000000Z" end="" work-start="" percent-complete="0" priority="0" type="normal" scheduling="fixed-work">
      <task id="2" name="0.1" note="" work="28800" start="20150603T000000Z" end="" work-start="" percent-complete="0" priority="0" type="normal" scheduling="fixed-work"/>
    </task>
  </tasks>
  <resources>
    <resource id="1" name="Reece" short-name="rh" type="1" units="0" email="" note="" std-rate="0"/>
  </resources>
  <allocations>
    <allocation task-id="2" resource-id="1" units="100"/>
  </allocations>
</project>
`

func mustParse(t *testing.T, s string) *Doc {
	t.Helper()
	d, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return d
}

func TestAccessors(t *testing.T) {
	d := mustParse(t, exampleDoc)

	if got := len(d.Tasks()); got != 2 {
		t.Errorf("Expected 2 tasks, got %d", got)
	}
	if got := len(d.Properties()); got != 2 {
		t.Errorf("Expected 2 properties, got %d", got)
	}
	if got := len(d.Resources()); got != 1 {
		t.Errorf("Expected 1 resource, got %d", got)
	}
	if got := len(d.Allocations()); got != 1 {
		t.Errorf("Expected 1 allocation, got %d", got)
	}
}

func TestCreateTaskAllocatesMonotonicIDs(t *testing.T) {
	d := mustParse(t, exampleDoc)

	task := d.CreateTask("0.2", nil)
	if got := task.SelectAttrValue("id", ""); got != "3" {
		t.Errorf("Expected id 3, got %s", got)
	}
	if got := task.SelectAttrValue("work", ""); got != "28800" {
		t.Errorf("Expected default work 28800, got %s", got)
	}
	if got := task.SelectAttrValue("scheduling", ""); got != "fixed-work" {
		t.Errorf("Expected fixed-work scheduling, got %s", got)
	}

	// The id is only consumed once the task is attached.
	d.TasksRoot().AddChild(task)
	next := d.CreateTask("0.3", nil)
	if got := next.SelectAttrValue("id", ""); got != "4" {
		t.Errorf("Expected id 4 after attaching previous task, got %s", got)
	}
}

func TestCreateTaskOnEmptyDocument(t *testing.T) {
	d := mustParse(t, `<project><tasks/></project>`)
	task := d.CreateTask("first", nil)
	if got := task.SelectAttrValue("id", ""); got != "1" {
		t.Errorf("Expected numbering to start at 1, got %s", got)
	}
}

func TestCreateTaskMergesAttrs(t *testing.T) {
	d := mustParse(t, exampleDoc)
	task := d.CreateTask("x", map[string]string{
		"percent-complete": "75",
		"note":             "hello",
	})
	if got := task.SelectAttrValue("percent-complete", ""); got != "75" {
		t.Errorf("Expected percent-complete 75, got %s", got)
	}
	if got := task.SelectAttrValue("note", ""); got != "hello" {
		t.Errorf("Expected note to be overridden, got %q", got)
	}
	if got := task.SelectAttrValue("priority", ""); got != "0" {
		t.Errorf("Expected default priority 0, got %s", got)
	}
}

func TestSetTaskConstraintIsIdempotent(t *testing.T) {
	d := mustParse(t, exampleDoc)
	task := d.Tasks()[0]

	SetTaskConstraint(task, "start-no-earlier-than", "20150601T000000Z")
	SetTaskConstraint(task, "start-no-earlier-than", "20150602T000000Z")

	constraints := task.SelectElements("constraint")
	if len(constraints) != 1 {
		t.Fatalf("Expected exactly 1 constraint, got %d", len(constraints))
	}
	if got := constraints[0].SelectAttrValue("time", ""); got != "20150602T000000Z" {
		t.Errorf("Expected constraint time to be overwritten, got %s", got)
	}
}

func TestRecomputeProjectStart(t *testing.T) {
	d := mustParse(t, `<project project-start="20990101T000000Z"><tasks>
		<task id="1" name="a" start="20150603T000000Z"/>
		<task id="2" name="b" start=""/>
		<task id="3" name="c" start="20150601T000000Z"/>
	</tasks></project>`)

	got, err := d.RecomputeProjectStart()
	if err != nil {
		t.Fatalf("RecomputeProjectStart failed: %v", err)
	}
	if got != "20150601T000000Z" {
		t.Errorf("Expected 20150601T000000Z, got %s", got)
	}
	if attr := d.Project().SelectAttrValue("project-start", ""); attr != "20150601T000000Z" {
		t.Errorf("Expected project-start attribute to be updated, got %s", attr)
	}
}

func TestRecomputeProjectStartNoScheduledTasks(t *testing.T) {
	d := mustParse(t, `<project><tasks>
		<task id="1" name="a" start=""/>
	</tasks></project>`)

	_, err := d.RecomputeProjectStart()
	if !errors.Is(err, ErrNoScheduledTasks) {
		t.Errorf("Expected ErrNoScheduledTasks, got %v", err)
	}
}

func TestRoundTripPreservesUntouchedNodes(t *testing.T) {
	d := mustParse(t, exampleDoc)
	out := d.String()

	for _, fragment := range []string{
		`description="bitbucket:biocommons/eutils"`,
		`<allocation task-id="2" resource-id="1" units="100"/>`,
		`short-name="rh"`,
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("Expected round-tripped document to contain %q", fragment)
		}
	}
}
