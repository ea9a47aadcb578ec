package model

import (
	"sort"
	"time"
)

// AssignmentAt returns the default cloud recorded for host at the greatest
// history timestamp <= at. The second result is false when the host has no
// history entry at or before that instant.
func (s *Store) AssignmentAt(host string, at time.Time) (string, bool) {
	entries, ok := s.History[host]
	if !ok {
		return "", false
	}
	ts, ok := greatestKeyAtOrBefore(keysOf(entries), at)
	if !ok {
		return "", false
	}
	return entries[ts], true
}

// MetaAt returns the metadata snapshot recorded for cloud at the greatest
// history timestamp <= at.
func (s *Store) MetaAt(cloud string, at time.Time) (CloudMeta, bool) {
	entries, ok := s.CloudHistory[cloud]
	if !ok {
		return CloudMeta{}, false
	}
	ts, ok := greatestKeyAtOrBefore(metaKeysOf(entries), at)
	if !ok {
		return CloudMeta{}, false
	}
	return entries[ts], true
}

func keysOf(m map[int64]string) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func metaKeysOf(m map[int64]CloudMeta) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func greatestKeyAtOrBefore(keys []int64, at time.Time) (int64, bool) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	found := false
	var best int64
	for _, k := range keys {
		if time.Unix(k, 0).After(at) {
			break
		}
		best = k
		found = true
	}
	return best, found
}
