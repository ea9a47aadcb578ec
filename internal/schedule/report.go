package schedule

import (
	"time"

	"hostpool/internal/model"
)

// CloudSummary is one row of the per-cloud report: the hosts a cloud owns at
// the query instant, with its description as of that instant.
type CloudSummary struct {
	Cloud       string
	Hosts       []string
	Description string
}

// Summary resolves every host at instant at and groups host names by their
// effective cloud. With full set, clouds owning no hosts are included too.
// Descriptions follow the same past-only history rule as resolution: for a
// query in the past the description recorded at that time is used, otherwise
// the live one.
func Summary(s *model.Store, at, now time.Time, full bool) []CloudSummary {
	byCloud := make(map[string][]string, len(s.Clouds))
	for _, host := range s.HostNames() {
		res := Resolve(s, host, at, now)
		byCloud[res.CurrentCloud] = append(byCloud[res.CurrentCloud], host)
	}

	var out []CloudSummary
	for _, cloud := range s.CloudNames() {
		hosts := byCloud[cloud]
		if len(hosts) == 0 && !full {
			continue
		}
		out = append(out, CloudSummary{
			Cloud:       cloud,
			Hosts:       hosts,
			Description: descriptionAt(s, cloud, at, now),
		})
	}
	return out
}

func descriptionAt(s *model.Store, cloud string, at, now time.Time) string {
	if at.Before(now) {
		if meta, ok := s.MetaAt(cloud, at); ok {
			return meta.Description
		}
	}
	return s.Clouds[cloud].Description
}

// OverrideEntry is one defined override window with its id.
type OverrideEntry struct {
	ID       int
	Cloud    string
	Start    time.Time
	End      time.Time
}

// HostSchedule is the full per-host listing: resolution at the query instant
// plus every defined override regardless of whether it is active.
type HostSchedule struct {
	Resolution
	Overrides []OverrideEntry
}

// HostListing resolves host at instant at and lists all of its overrides in
// ascending id order.
func HostListing(s *model.Store, host string, at, now time.Time) HostSchedule {
	listing := HostSchedule{Resolution: Resolve(s, host, at, now)}
	h, ok := s.Hosts[host]
	if !ok {
		return listing
	}
	for _, id := range h.ScheduleIDs() {
		o := h.Schedule[id]
		listing.Overrides = append(listing.Overrides, OverrideEntry{
			ID:    id,
			Cloud: o.Cloud,
			Start: o.Start,
			End:   o.End,
		})
	}
	return listing
}
