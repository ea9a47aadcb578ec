package model

import (
	"sort"
	"time"
)

// Defaults applied to cloud metadata fields that were never set explicitly.
const (
	DefaultOwner  = "nobody"
	DefaultTicket = "000000"
)

// Override assigns a host to a cloud for the half-open window [Start, End).
// Overrides on one host never overlap; the conflict checker enforces that
// before any insert or update.
type Override struct {
	Cloud string
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the override's window.
func (o Override) Contains(t time.Time) bool {
	return !o.Start.After(t) && t.Before(o.End)
}

// Host is a schedulable resource. Cloud is its long-lived default
// assignment; Schedule maps override ids (monotonically assigned per host)
// to time-bounded exceptions.
type Host struct {
	Cloud    string
	Schedule map[int]Override
}

// ScheduleIDs returns the host's override ids in ascending (insertion)
// order.
func (h *Host) ScheduleIDs() []int {
	ids := make([]int, 0, len(h.Schedule))
	for id := range h.Schedule {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// NextScheduleID returns the id the next override on this host gets:
// max existing id + 1, or 0 for an empty schedule.
func (h *Host) NextScheduleID() int {
	next := 0
	for id := range h.Schedule {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// CloudMeta is the mutable metadata attached to a cloud.
type CloudMeta struct {
	Description string
	Owner       string
	CCUsers     []string
	Ticket      string
	QinQ        bool
}

// WithDefaults fills unset fields with their documented defaults.
func (m CloudMeta) WithDefaults() CloudMeta {
	if m.Owner == "" {
		m.Owner = DefaultOwner
	}
	if m.Ticket == "" {
		m.Ticket = DefaultTicket
	}
	return m
}

// Store is the authoritative in-memory record of hosts, clouds, override
// schedules and histories. It is pure data; mutation and resolution live in
// the store and schedule packages. History keys are seconds since epoch.
type Store struct {
	Hosts        map[string]*Host
	Clouds       map[string]CloudMeta
	History      map[string]map[int64]string    // host -> ts -> default cloud as of ts
	CloudHistory map[string]map[int64]CloudMeta // cloud -> ts -> metadata snapshot
	Assignments  map[string]string              // host -> last cloud the provisioning layer applied
}

// NewStore returns an empty store with all maps allocated.
func NewStore() *Store {
	return &Store{
		Hosts:        make(map[string]*Host),
		Clouds:       make(map[string]CloudMeta),
		History:      make(map[string]map[int64]string),
		CloudHistory: make(map[string]map[int64]CloudMeta),
		Assignments:  make(map[string]string),
	}
}

// HostNames returns all host names in sorted order.
func (s *Store) HostNames() []string {
	names := make([]string, 0, len(s.Hosts))
	for name := range s.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloudNames returns all cloud names in sorted order.
func (s *Store) CloudNames() []string {
	names := make([]string, 0, len(s.Clouds))
	for name := range s.Clouds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
