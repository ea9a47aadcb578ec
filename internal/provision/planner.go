package provision

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hostpool/internal/model"
	"hostpool/internal/schedule"
)

// Move is a host whose applied assignment no longer matches what the
// resolver says it should be.
type Move struct {
	Host string
	From string
	To   string
}

// Plan diffs each host's recorded applied cloud against its resolution at
// instant at. A host that was never applied diffs against its default, so a
// freshly defined host with an active override still gets moved.
func Plan(s *model.Store, at, now time.Time) []Move {
	var moves []Move
	for _, host := range s.HostNames() {
		from, ok := s.Assignments[host]
		if !ok {
			from = s.Hosts[host].Cloud
		}
		res := schedule.Resolve(s, host, at, now)
		if res.CurrentCloud != from {
			moves = append(moves, Move{Host: host, From: from, To: res.CurrentCloud})
		}
	}
	return moves
}

// Apply runs each move through the driver, recording the new applied cloud
// after each success. It stops at the first driver failure and returns the
// moves that were applied, leaving the rest for the next pass.
func Apply(ctx context.Context, s *model.Store, moves []Move, driver Driver, logger *zap.Logger) ([]Move, error) {
	var applied []Move
	for _, m := range moves {
		if err := driver.ApplyAssignment(ctx, m.Host, m.From, m.To); err != nil {
			logger.Error("move failed",
				zap.String("host", m.Host), zap.String("from", m.From),
				zap.String("to", m.To), zap.Error(err))
			return applied, err
		}
		s.Assignments[m.Host] = m.To
		applied = append(applied, m)
	}
	return applied, nil
}
