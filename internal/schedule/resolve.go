package schedule

import (
	"time"

	"hostpool/internal/model"
)

// Resolution is the answer to "which cloud owns this host at instant t".
type Resolution struct {
	Known        bool
	DefaultCloud string
	CurrentCloud string
	OverrideID   int
	HasOverride  bool
}

// Resolve computes the cloud owning host at instant at. Overrides apply at
// any instant; history is consulted only for instants strictly before now,
// since it records past default values and the live default already carries
// the latest change. An unknown host yields a zero Resolution rather than an
// error so report loops can keep iterating.
func Resolve(s *model.Store, host string, at, now time.Time) Resolution {
	h, ok := s.Hosts[host]
	if !ok {
		return Resolution{}
	}

	res := Resolution{
		Known:        true,
		DefaultCloud: h.Cloud,
		CurrentCloud: h.Cloud,
	}

	// At most one override can contain at, non-overlap is an invariant.
	for _, id := range h.ScheduleIDs() {
		if h.Schedule[id].Contains(at) {
			res.CurrentCloud = h.Schedule[id].Cloud
			res.OverrideID = id
			res.HasOverride = true
			return res
		}
	}

	if at.Before(now) {
		if cloud, ok := s.AssignmentAt(host, at); ok {
			res.CurrentCloud = cloud
		}
	}

	return res
}
