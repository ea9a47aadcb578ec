package schedule

import (
	"time"

	"hostpool/internal/model"
)

// NoExclusion tells CheckOverlap to test the candidate against every
// existing override.
const NoExclusion = -1

// Conflict identifies the existing override a candidate window intrudes on.
type Conflict struct {
	ID    int
	Cloud string
	Start time.Time
	End   time.Time
}

// CheckOverlap tests a candidate window [start, end) against the host's
// existing overrides, skipping excludeID so an override being modified does
// not conflict with itself. It returns the first (lowest id) override whose
// window contains the candidate's start, or whose window the candidate's end
// falls into, and nil if the candidate is disjoint from all of them.
//
// Policy: a candidate that strictly contains an existing window, touching
// neither of its bounds, is NOT a conflict. Only boundary intrusion is
// rejected.
func CheckOverlap(h *model.Host, start, end time.Time, excludeID int) *Conflict {
	for _, id := range h.ScheduleIDs() {
		if id == excludeID {
			continue
		}
		o := h.Schedule[id]

		// o.Start <= start < o.End
		startInside := !o.Start.After(start) && start.Before(o.End)
		// o.Start < end <= o.End
		endInside := o.Start.Before(end) && !end.After(o.End)

		if startInside || endInside {
			return &Conflict{ID: id, Cloud: o.Cloud, Start: o.Start, End: o.End}
		}
	}
	return nil
}
