package schedule

import (
	"time"

	"hostpool/internal/model"
)

// GridCell is one day of a host's monthly schedule, resolved at midnight.
type GridCell struct {
	Day         int
	Cloud       string
	OverrideID  int
	HasOverride bool
}

// DaysIn returns the number of days in the given month, accounting for leap
// years.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the following month normalizes to this month's last day.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// MonthGrid resolves every host's effective cloud for each calendar day of
// the month at midnight local time, keyed by host name.
func MonthGrid(s *model.Store, year int, month time.Month, now time.Time) map[string][]GridCell {
	grid := make(map[string][]GridCell, len(s.Hosts))
	days := DaysIn(year, month)
	for _, host := range s.HostNames() {
		cells := make([]GridCell, 0, days)
		for day := 1; day <= days; day++ {
			at := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
			res := Resolve(s, host, at, now)
			cells = append(cells, GridCell{
				Day:         day,
				Cloud:       res.CurrentCloud,
				OverrideID:  res.OverrideID,
				HasOverride: res.HasOverride,
			})
		}
		grid[host] = cells
	}
	return grid
}
