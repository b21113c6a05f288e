package triage

import (
	"testing"
	"time"
)

func TestElapsedWorkShortSpan(t *testing.T) {
	is := issue(1, "open", "major")
	is.CreatedOn = "2015-06-02T09:00:00"
	is.UpdatedOn = "2015-06-02T11:30:00"

	got, err := ElapsedWork(is)
	if err != nil {
		t.Fatalf("ElapsedWork failed: %v", err)
	}
	// Under one workday: no workweek scaling, rounded up to the hour.
	if got != 3*time.Hour {
		t.Errorf("Expected 3h, got %s", got)
	}
}

func TestElapsedWorkScalesLongSpans(t *testing.T) {
	is := issue(1, "open", "major")
	is.CreatedOn = "2015-06-01T00:00:00"
	is.UpdatedOn = "2015-06-08T00:00:00" // exactly one calendar week

	got, err := ElapsedWork(is)
	if err != nil {
		t.Fatalf("ElapsedWork failed: %v", err)
	}
	// One 168h calendar week is one 40h workweek.
	if got != 40*time.Hour {
		t.Errorf("Expected 40h, got %s", got)
	}
}

func TestElapsedWorkMultiYearSpan(t *testing.T) {
	is := issue(1, "open", "major")
	is.CreatedOn = "2010-01-01T00:00:00"
	is.UpdatedOn = "2020-01-01T00:00:00"

	got, err := ElapsedWork(is)
	if err != nil {
		t.Fatalf("ElapsedWork failed: %v", err)
	}
	if got <= 0 {
		t.Fatalf("Expected a positive duration for a decade-old issue, got %s", got)
	}
	// 3652 days = 87648h calendar, scaled by 40/168 and rounded up.
	if got != 20869*time.Hour {
		t.Errorf("Expected 20869h, got %s", got)
	}
}

func TestElapsedWorkMixedTimestampFormats(t *testing.T) {
	is := issue(1, "open", "major")
	is.CreatedOn = "2015-06-02 21:16:26+00:00"
	is.UpdatedOn = "2015-06-02T23:16:26.709"

	got, err := ElapsedWork(is)
	if err != nil {
		t.Fatalf("ElapsedWork failed: %v", err)
	}
	if got != 3*time.Hour {
		t.Errorf("Expected 3h (2h0m0.709s rounded up), got %s", got)
	}
}

func TestElapsedWorkMalformedTimestamps(t *testing.T) {
	is := issue(1, "open", "major")
	is.CreatedOn = ""
	is.UpdatedOn = "2015-06-08T00:00:00"
	if _, err := ElapsedWork(is); err == nil {
		t.Error("Expected missing created_on to fail")
	}

	is.CreatedOn = "2015-06-01T00:00:00"
	is.UpdatedOn = "not a time"
	if _, err := ElapsedWork(is); err == nil {
		t.Error("Expected malformed last_updated to fail")
	}
}
