package store

import (
	"time"

	"hostpool/internal/model"
	"hostpool/internal/schedule"
)

// The history recorder. Assignment history records each change to a host's
// default cloud; cloud history records each metadata change. Entries are
// append-only, keyed by seconds since epoch, with entry 0 seeded at
// first registration so queries before any explicit change still resolve.

func recordAssignment(s *model.Store, host, cloud string, now time.Time) {
	if s.History[host] == nil {
		s.History[host] = make(map[int64]string)
	}
	s.History[host][now.Unix()] = cloud
}

func recordCloudMeta(s *model.Store, cloud string, meta model.CloudMeta, now time.Time) {
	if s.CloudHistory[cloud] == nil {
		s.CloudHistory[cloud] = make(map[int64]model.CloudMeta)
	}
	s.CloudHistory[cloud][now.Unix()] = meta
}

func seedHostHistory(s *model.Store, host string, now time.Time) {
	if _, ok := s.History[host]; ok {
		return
	}
	res := schedule.Resolve(s, host, now, now)
	s.History[host] = map[int64]string{0: res.CurrentCloud}
}

func seedCloudHistory(s *model.Store, cloud string, now time.Time) {
	if _, ok := s.CloudHistory[cloud]; ok {
		return
	}
	s.CloudHistory[cloud] = map[int64]model.CloudMeta{0: s.Clouds[cloud].WithDefaults()}
}

// SeedHistories backfills the epoch-zero history entry for every host and
// cloud that has none yet, e.g. records loaded from a data file written
// before histories existed. It reports whether anything changed so the
// caller can persist.
func SeedHistories(s *model.Store, now time.Time) bool {
	changed := false
	for _, host := range s.HostNames() {
		if _, ok := s.History[host]; !ok {
			seedHostHistory(s, host, now)
			changed = true
		}
	}
	for _, cloud := range s.CloudNames() {
		if _, ok := s.CloudHistory[cloud]; !ok {
			seedCloudHistory(s, cloud, now)
			changed = true
		}
	}
	return changed
}

// SyncState records the current resolution as the applied assignment for
// every host that has none yet, so the first move plan after enabling
// provisioning does not try to move the whole pool. Reports whether
// anything changed.
func SyncState(s *model.Store, now time.Time) bool {
	changed := false
	for _, host := range s.HostNames() {
		if _, ok := s.Assignments[host]; !ok {
			s.Assignments[host] = schedule.Resolve(s, host, now, now).CurrentCloud
			changed = true
		}
	}
	return changed
}
