package triage

import (
	"fmt"
	"time"

	"github.com/reece/issueplanner/pkg/bitbucket"
)

const (
	workday = 8 * time.Hour

	// A standard workweek is 40 working hours out of 168 calendar hours.
	// Elapsed spans longer than one workday are scaled by this ratio so
	// that a weeks-old issue is credited with its work-time-equivalent
	// share of the span, not the full wall clock.
	workHoursPerWeek     = 40
	calendarHoursPerWeek = 168
)

// ElapsedWork estimates the effort spent on an issue from its creation and
// last-update timestamps. The result is rounded up to the next whole hour.
// Returns an error if either timestamp is absent or unparseable; callers
// must handle that explicitly rather than schedule a malformed duration.
func ElapsedWork(is bitbucket.Issue) (time.Duration, error) {
	created, err := bitbucket.ParseTime(is.CreatedOn)
	if err != nil {
		return 0, fmt.Errorf("issue %d created_on: %w", is.LocalID, err)
	}
	updated, err := bitbucket.ParseTime(is.UpdatedOn)
	if err != nil {
		return 0, fmt.Errorf("issue %d last_updated: %w", is.LocalID, err)
	}

	elapsed := updated.Sub(created)
	if elapsed < 0 {
		return 0, fmt.Errorf("issue %d updated before created (%s < %s)", is.LocalID, is.UpdatedOn, is.CreatedOn)
	}
	if elapsed > workday {
		// Scale in floating point: multiplying a Duration by 40 first
		// overflows int64 nanoseconds for spans over a few years.
		elapsed = time.Duration(float64(elapsed) * workHoursPerWeek / calendarHoursPerWeek)
	}

	// Round up to a whole hour.
	if rem := elapsed % time.Hour; rem != 0 {
		elapsed += time.Hour - rem
	}
	return elapsed, nil
}
