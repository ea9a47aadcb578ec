package store

import (
	"fmt"

	"hostpool/internal/schedule"
	"hostpool/internal/util"
)

// NotFoundError reports a reference to a host, cloud or override id that is
// not defined in the store.
type NotFoundError struct {
	Kind string // "host", "cloud" or "override"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q is not defined", e.Kind, e.Name)
}

// ValidationError reports a structural invariant violation detected before
// any mutation was applied.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ConflictError reports a candidate override window that intrudes on an
// existing window on the same host.
type ConflictError struct {
	Host     string
	Start    string
	End      string
	Existing schedule.Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"schedule %s - %s on host %s conflicts with override %d (%s - %s)",
		e.Start, e.End, e.Host, e.Existing.ID,
		util.FormatStamp(e.Existing.Start), util.FormatStamp(e.Existing.End),
	)
}
