package store

import (
	"fmt"
	"time"

	"hostpool/internal/model"
	"hostpool/internal/schedule"
	"hostpool/internal/util"
)

// All mutations here validate fully before touching the store: on any error
// the store is exactly as it was before the call. Persistence is the
// caller's job.

// AddSchedule inserts a new override for host and returns its id.
func AddSchedule(s *model.Store, host, cloud string, start, end time.Time) (int, error) {
	if !start.Before(end) {
		return 0, &ValidationError{Reason: fmt.Sprintf(
			"schedule start %s must be before end %s",
			util.FormatStamp(start), util.FormatStamp(end),
		)}
	}
	if _, ok := s.Clouds[cloud]; !ok {
		return 0, &NotFoundError{Kind: "cloud", Name: cloud}
	}
	h, ok := s.Hosts[host]
	if !ok {
		return 0, &NotFoundError{Kind: "host", Name: host}
	}

	if c := schedule.CheckOverlap(h, start, end, schedule.NoExclusion); c != nil {
		return 0, &ConflictError{
			Host:     host,
			Start:    util.FormatStamp(start),
			End:      util.FormatStamp(end),
			Existing: *c,
		}
	}

	id := h.NextScheduleID()
	h.Schedule[id] = model.Override{Cloud: cloud, Start: start, End: end}
	return id, nil
}

// RemoveSchedule deletes the override with the given id from host.
func RemoveSchedule(s *model.Store, host string, id int) error {
	h, ok := s.Hosts[host]
	if !ok {
		return &NotFoundError{Kind: "host", Name: host}
	}
	if _, ok := h.Schedule[id]; !ok {
		return &NotFoundError{Kind: "override", Name: fmt.Sprintf("%s/%d", host, id)}
	}
	delete(h.Schedule, id)
	return nil
}

// ModifySchedule updates an existing override in place. Nil fields keep the
// override's current value. The three fields are overwritten together only
// after every check passes.
func ModifySchedule(s *model.Store, host string, id int, cloud *string, start, end *time.Time) error {
	h, ok := s.Hosts[host]
	if !ok {
		return &NotFoundError{Kind: "host", Name: host}
	}
	cur, ok := h.Schedule[id]
	if !ok {
		return &NotFoundError{Kind: "override", Name: fmt.Sprintf("%s/%d", host, id)}
	}

	newCloud, newStart, newEnd := cur.Cloud, cur.Start, cur.End
	if cloud != nil {
		newCloud = *cloud
	}
	if start != nil {
		newStart = *start
	}
	if end != nil {
		newEnd = *end
	}

	if !newStart.Before(newEnd) {
		return &ValidationError{Reason: fmt.Sprintf(
			"schedule start %s must be before end %s",
			util.FormatStamp(newStart), util.FormatStamp(newEnd),
		)}
	}
	if _, ok := s.Clouds[newCloud]; !ok {
		return &NotFoundError{Kind: "cloud", Name: newCloud}
	}

	if c := schedule.CheckOverlap(h, newStart, newEnd, id); c != nil {
		return &ConflictError{
			Host:     host,
			Start:    util.FormatStamp(newStart),
			End:      util.FormatStamp(newEnd),
			Existing: *c,
		}
	}

	h.Schedule[id] = model.Override{Cloud: newCloud, Start: newStart, End: newEnd}
	return nil
}

// UpdateHost defines a host or moves an existing host's default cloud.
// Redefining an existing host requires force. A change to the default is
// recorded in the host's assignment history.
func UpdateHost(s *model.Store, host, cloud string, force bool, now time.Time) error {
	if _, ok := s.Clouds[cloud]; !ok {
		return &NotFoundError{Kind: "cloud", Name: cloud}
	}

	h, exists := s.Hosts[host]
	if exists {
		if !force {
			return &ValidationError{Reason: fmt.Sprintf(
				"host %q already defined; pass force to redefine", host,
			)}
		}
		if h.Cloud != cloud {
			h.Cloud = cloud
			recordAssignment(s, host, cloud, now)
		}
		return nil
	}

	s.Hosts[host] = &model.Host{Cloud: cloud, Schedule: make(map[int]model.Override)}
	seedHostHistory(s, host, now)
	return nil
}

// RemoveHost deletes a host and its history. Removal is refused while the
// host still has an active or future override.
func RemoveHost(s *model.Store, host string, now time.Time) error {
	h, ok := s.Hosts[host]
	if !ok {
		return &NotFoundError{Kind: "host", Name: host}
	}
	for _, id := range h.ScheduleIDs() {
		if h.Schedule[id].End.After(now) {
			return &ValidationError{Reason: fmt.Sprintf(
				"host %q still has override %d active or in the future", host, id,
			)}
		}
	}
	delete(s.Hosts, host)
	delete(s.History, host)
	delete(s.Assignments, host)
	return nil
}

// UpdateCloud defines a cloud or updates an existing cloud's metadata.
// Redefining requires force. Unset owner/ticket fields get their defaults,
// and any change is recorded in the cloud's metadata history.
func UpdateCloud(s *model.Store, cloud string, meta model.CloudMeta, force bool, now time.Time) error {
	meta = meta.WithDefaults()

	_, exists := s.Clouds[cloud]
	if exists {
		if !force {
			return &ValidationError{Reason: fmt.Sprintf(
				"cloud %q already defined; pass force to redefine", cloud,
			)}
		}
		s.Clouds[cloud] = meta
		recordCloudMeta(s, cloud, meta, now)
		return nil
	}

	s.Clouds[cloud] = meta
	seedCloudHistory(s, cloud, now)
	return nil
}

// RemoveCloud deletes a cloud. Removal is refused while any host defaults to
// it or any override references it.
func RemoveCloud(s *model.Store, cloud string) error {
	if _, ok := s.Clouds[cloud]; !ok {
		return &NotFoundError{Kind: "cloud", Name: cloud}
	}
	for _, host := range s.HostNames() {
		h := s.Hosts[host]
		if h.Cloud == cloud {
			return &ValidationError{Reason: fmt.Sprintf(
				"cloud %q is still the default for host %q", cloud, host,
			)}
		}
		for _, id := range h.ScheduleIDs() {
			if h.Schedule[id].Cloud == cloud {
				return &ValidationError{Reason: fmt.Sprintf(
					"cloud %q is still referenced by override %d on host %q", cloud, id, host,
				)}
			}
		}
	}
	delete(s.Clouds, cloud)
	delete(s.CloudHistory, cloud)
	return nil
}
